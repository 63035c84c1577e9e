package dbaccess

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

var (
	blocksBucket       = database.MakeBucket([]byte("blocks"))
	blockHeightsBucket = database.MakeBucket([]byte("block-heights"))
	blockCountKey      = database.MakeBucket([]byte("meta")).Key([]byte("block-count"))
)

func blockKey(hash *daghash.Hash) []byte {
	return blocksBucket.Key(hash[:])
}

func blockHeightKey(height uint64, hash *daghash.Hash) []byte {
	key := make([]byte, 8+daghash.HashSize)
	binary.BigEndian.PutUint64(key[:8], height)
	copy(key[8:], hash[:])
	return blockHeightsBucket.Key(key)
}

// StoreBlock stores the given block in the database and indexes it by
// height. Returns ErrAlreadyExists if a block with the same hash was
// previously stored.
func StoreBlock(context Context, block *wire.MsgBlock) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	hash := block.BlockHash()
	exists, err := HasBlock(context, hash)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrAlreadyExists, "block %s already exists", hash)
	}

	blockBytes, err := block.Bytes()
	if err != nil {
		return err
	}

	err = accessor.Put(blockKey(hash), blockBytes)
	if err != nil {
		return err
	}

	err = accessor.Put(blockHeightKey(block.Height, hash), []byte{})
	if err != nil {
		return err
	}

	blockCount, err := BlockCount(context)
	if err != nil {
		return err
	}
	err = storeCount(accessor, blockCountKey, blockCount+1)
	if err != nil {
		return err
	}

	context.cache().blockCache.Add(*hash, block)
	return nil
}

// HasBlock returns whether the block of the given hash has been previously
// stored in the database.
func HasBlock(context Context, hash *daghash.Hash) (bool, error) {
	if context.cache().blockCache.Contains(*hash) {
		return true, nil
	}
	accessor, err := context.accessor()
	if err != nil {
		return false, err
	}
	return accessor.Has(blockKey(hash))
}

// FetchBlock returns the block of the given hash. Returns
// database.ErrNotFound if the block was not previously stored.
func FetchBlock(context Context, hash *daghash.Hash) (*wire.MsgBlock, error) {
	if cached, ok := context.cache().blockCache.Get(*hash); ok {
		return cached.(*wire.MsgBlock), nil
	}

	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	blockBytes, err := accessor.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}

	block := &wire.MsgBlock{}
	err = block.Deserialize(bytes.NewReader(blockBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "could not deserialize block %s", hash)
	}

	context.cache().blockCache.Add(*hash, block)
	return block, nil
}

// BlockHashesAtHeight returns the hashes of all stored blocks of the given
// height, in ascending hash order.
func BlockHashesAtHeight(context Context, height uint64) ([]*daghash.Hash, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	cursor, err := accessor.Cursor(blockHeightsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], height)

	var hashes []*daghash.Hash
	err = cursor.Seek(prefix[:])
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		if len(key) != 8+daghash.HashSize || !bytes.Equal(key[:8], prefix[:]) {
			break
		}
		hash, err := daghash.NewHash(key[8:])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
		if !cursor.Next() {
			break
		}
	}
	return hashes, nil
}

// BlockHashesSortedByHeight returns the hashes of every stored block,
// sorted by ascending height. Since a block's height always exceeds the
// heights of its parents, this order is safe for reconstructing the DAG.
func BlockHashesSortedByHeight(context Context) ([]*daghash.Hash, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	cursor, err := accessor.Cursor(blockHeightsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var hashes []*daghash.Hash
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		if len(key) != 8+daghash.HashSize {
			return nil, errors.Errorf("malformed block height index key of length %d", len(key))
		}
		hash, err := daghash.NewHash(key[8:])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// BlockCount returns the number of blocks stored in the database.
func BlockCount(context Context) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}
	return fetchCount(accessor, blockCountKey)
}

func storeCount(accessor database.DataAccessor, key []byte, count uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], count)
	return accessor.Put(key, buf[:])
}

func fetchCount(accessor database.DataAccessor, key []byte) (uint64, error) {
	countBytes, err := accessor.Get(key)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(countBytes), nil
}
