package dbaccess

import (
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var assetsBucket = database.MakeBucket([]byte("assets"))

// RegisterAsset records an asset and its declared precision. Registering
// the same asset again is a no-op.
func RegisterAsset(context Context, asset *daghash.Hash, precision uint8) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}
	return accessor.Put(assetsBucket.Key(asset[:]), []byte{precision})
}

// HasAsset returns whether the given asset is registered.
func HasAsset(context Context, asset *daghash.Hash) (bool, error) {
	accessor, err := context.accessor()
	if err != nil {
		return false, err
	}
	return accessor.Has(assetsBucket.Key(asset[:]))
}

// AssetPrecision returns the declared precision of the given asset.
// Returns database.ErrNotFound for an unregistered asset.
func AssetPrecision(context Context, asset *daghash.Hash) (uint8, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}

	precisionBytes, err := accessor.Get(assetsBucket.Key(asset[:]))
	if err != nil {
		return 0, err
	}
	return precisionBytes[0], nil
}

// FetchAssets returns the hashes of all registered assets in ascending
// hash order.
func FetchAssets(context Context) ([]*daghash.Hash, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	cursor, err := accessor.Cursor(assetsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var assets []*daghash.Hash
	for found := cursor.First(); found; found = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		asset, err := daghash.NewHash(key)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
