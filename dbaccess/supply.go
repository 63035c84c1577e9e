package dbaccess

import (
	"encoding/binary"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var (
	supplyBucket = database.MakeBucket([]byte("supply"))
	rewardBucket = database.MakeBucket([]byte("reward"))
)

// StoreSupply records, keyed by block hash, the total minted supply as of
// the block's position in the order and the reward the block minted.
// Records are kept even if the block is later orphaned; they describe what
// the block minted when it was applied.
func StoreSupply(context Context, hash *daghash.Hash, supply uint64, reward uint64) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	var supplyBytes [8]byte
	binary.BigEndian.PutUint64(supplyBytes[:], supply)
	err = accessor.Put(supplyBucket.Key(hash[:]), supplyBytes[:])
	if err != nil {
		return err
	}

	var rewardBytes [8]byte
	binary.BigEndian.PutUint64(rewardBytes[:], reward)
	return accessor.Put(rewardBucket.Key(hash[:]), rewardBytes[:])
}

// FetchSupply returns the total minted supply as of the given block.
// Returns database.ErrNotFound if the block was never applied.
func FetchSupply(context Context, hash *daghash.Hash) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}

	supplyBytes, err := accessor.Get(supplyBucket.Key(hash[:]))
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(supplyBytes), nil
}

// FetchReward returns the reward minted by the given block. Returns
// database.ErrNotFound if the block was never applied.
func FetchReward(context Context, hash *daghash.Hash) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}

	rewardBytes, err := accessor.Get(rewardBucket.Key(hash[:]))
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(rewardBytes), nil
}
