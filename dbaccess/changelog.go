package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var changelogBucket = database.MakeBucket([]byte("changelog"))

// BalanceKey identifies one (owner, asset) balance history.
type BalanceKey struct {
	Owner [32]byte
	Asset daghash.Hash
}

// ChangeRecord lists the state keys that gained a version at one
// topoheight. It is what makes rollback_to cheap: discarding the state
// written above a topoheight only touches the keys the record names,
// never scanning the full state.
type ChangeRecord struct {
	BlockHash   *daghash.Hash
	BalanceKeys []BalanceKey
	NonceOwners [][32]byte
}

func changelogKey(topoHeight uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], topoHeight)
	return changelogBucket.Key(buf[:])
}

func serializeChangeRecord(record *ChangeRecord) []byte {
	size := daghash.HashSize + 4 + len(record.BalanceKeys)*(32+daghash.HashSize) +
		4 + len(record.NonceOwners)*32
	buf := make([]byte, 0, size)

	buf = append(buf, record.BlockHash[:]...)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(record.BalanceKeys)))
	buf = append(buf, count[:]...)
	for i := range record.BalanceKeys {
		buf = append(buf, record.BalanceKeys[i].Owner[:]...)
		buf = append(buf, record.BalanceKeys[i].Asset[:]...)
	}

	binary.BigEndian.PutUint32(count[:], uint32(len(record.NonceOwners)))
	buf = append(buf, count[:]...)
	for i := range record.NonceOwners {
		buf = append(buf, record.NonceOwners[i][:]...)
	}
	return buf
}

func deserializeChangeRecord(recordBytes []byte) (*ChangeRecord, error) {
	const minSize = daghash.HashSize + 4 + 4
	if len(recordBytes) < minSize {
		return nil, errors.Errorf("serialized change record is too short (%d bytes)",
			len(recordBytes))
	}

	record := &ChangeRecord{}
	offset := 0

	var err error
	record.BlockHash, err = daghash.NewHash(recordBytes[:daghash.HashSize])
	if err != nil {
		return nil, err
	}
	offset += daghash.HashSize

	balanceCount := binary.BigEndian.Uint32(recordBytes[offset:])
	offset += 4
	record.BalanceKeys = make([]BalanceKey, balanceCount)
	for i := range record.BalanceKeys {
		if len(recordBytes) < offset+32+daghash.HashSize {
			return nil, errors.Errorf("serialized change record is truncated")
		}
		copy(record.BalanceKeys[i].Owner[:], recordBytes[offset:])
		offset += 32
		copy(record.BalanceKeys[i].Asset[:], recordBytes[offset:])
		offset += daghash.HashSize
	}

	if len(recordBytes) < offset+4 {
		return nil, errors.Errorf("serialized change record is truncated")
	}
	nonceCount := binary.BigEndian.Uint32(recordBytes[offset:])
	offset += 4
	record.NonceOwners = make([][32]byte, nonceCount)
	for i := range record.NonceOwners {
		if len(recordBytes) < offset+32 {
			return nil, errors.Errorf("serialized change record is truncated")
		}
		copy(record.NonceOwners[i][:], recordBytes[offset:])
		offset += 32
	}
	return record, nil
}

// StoreChangeRecord records which state keys gained versions at the given
// topoheight.
func StoreChangeRecord(context Context, topoHeight uint64, record *ChangeRecord) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}
	return accessor.Put(changelogKey(topoHeight), serializeChangeRecord(record))
}

// FetchChangeRecord returns the change record of the given topoheight, or
// database.ErrNotFound.
func FetchChangeRecord(context Context, topoHeight uint64) (*ChangeRecord, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	recordBytes, err := accessor.Get(changelogKey(topoHeight))
	if err != nil {
		return nil, err
	}
	return deserializeChangeRecord(recordBytes)
}

// RemoveChangeRecord deletes the change record of the given topoheight.
func RemoveChangeRecord(context Context, topoHeight uint64) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}
	return accessor.Delete(changelogKey(topoHeight))
}
