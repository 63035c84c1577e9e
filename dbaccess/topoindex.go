package dbaccess

import (
	"encoding/binary"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var (
	topoHashBucket = database.MakeBucket([]byte("topo-hash"))
	hashTopoBucket = database.MakeBucket([]byte("hash-topo"))
)

func topoHashKey(topoHeight uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], topoHeight)
	return topoHashBucket.Key(buf[:])
}

func hashTopoKey(hash *daghash.Hash) []byte {
	return hashTopoBucket.Key(hash[:])
}

// StoreTopoHeight writes both directions of the topoheight<->hash index.
// An existing assignment at the same topoheight is overwritten; reorgs
// reassign topoheights along the new canonical branch.
func StoreTopoHeight(context Context, topoHeight uint64, hash *daghash.Hash) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	err = accessor.Put(topoHashKey(topoHeight), hash[:])
	if err != nil {
		return err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], topoHeight)
	return accessor.Put(hashTopoKey(hash), buf[:])
}

// RemoveTopoHeight deletes a topoheight assignment, both directions.
func RemoveTopoHeight(context Context, topoHeight uint64, hash *daghash.Hash) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	err = accessor.Delete(topoHashKey(topoHeight))
	if err != nil {
		return err
	}
	return accessor.Delete(hashTopoKey(hash))
}

// HashAtTopoHeight returns the hash of the block assigned the given
// topoheight. Returns database.ErrNotFound if the topoheight was never
// assigned.
func HashAtTopoHeight(context Context, topoHeight uint64) (*daghash.Hash, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	hashBytes, err := accessor.Get(topoHashKey(topoHeight))
	if err != nil {
		return nil, err
	}
	return daghash.NewHash(hashBytes)
}

// TopoHeightOfBlock returns the topoheight assigned to the given block hash.
// Returns database.ErrNotFound if the block is not topologically ordered.
func TopoHeightOfBlock(context Context, hash *daghash.Hash) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}

	topoBytes, err := accessor.Get(hashTopoKey(hash))
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(topoBytes), nil
}

// IsBlockTopologicallyOrdered returns whether the given block currently has
// a topoheight assignment.
func IsBlockTopologicallyOrdered(context Context, hash *daghash.Hash) (bool, error) {
	accessor, err := context.accessor()
	if err != nil {
		return false, err
	}
	return accessor.Has(hashTopoKey(hash))
}
