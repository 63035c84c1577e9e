package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var (
	metadataBucket     = database.MakeBucket([]byte("meta"))
	tipsKey            = metadataBucket.Key([]byte("tips"))
	currentTopoKey     = metadataBucket.Key([]byte("current-topoheight"))
	stateCommitmentKey = metadataBucket.Key([]byte("state-commitment"))
)

// StoreTips stores the current tip set.
func StoreTips(context Context, tips []*daghash.Hash) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	buf := make([]byte, 0, len(tips)*daghash.HashSize)
	for _, tip := range tips {
		buf = append(buf, tip[:]...)
	}
	return accessor.Put(tipsKey, buf)
}

// FetchTips returns the stored tip set. Returns database.ErrNotFound for a
// fresh database.
func FetchTips(context Context) ([]*daghash.Hash, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	tipsBytes, err := accessor.Get(tipsKey)
	if err != nil {
		return nil, err
	}
	if len(tipsBytes)%daghash.HashSize != 0 {
		return nil, errors.Errorf("serialized tips length %d is not a multiple of %d",
			len(tipsBytes), daghash.HashSize)
	}

	tips := make([]*daghash.Hash, 0, len(tipsBytes)/daghash.HashSize)
	for offset := 0; offset < len(tipsBytes); offset += daghash.HashSize {
		tip, err := daghash.NewHash(tipsBytes[offset : offset+daghash.HashSize])
		if err != nil {
			return nil, err
		}
		tips = append(tips, tip)
	}
	return tips, nil
}

// StoreCurrentTopoHeight stores the topoheight of the current end of the
// canonical order.
func StoreCurrentTopoHeight(context Context, topoHeight uint64) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], topoHeight)
	return accessor.Put(currentTopoKey, buf[:])
}

// FetchCurrentTopoHeight returns the topoheight of the current end of the
// canonical order. Returns database.ErrNotFound for a fresh database.
func FetchCurrentTopoHeight(context Context) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}

	topoBytes, err := accessor.Get(currentTopoKey)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(topoBytes), nil
}

// StoreStateCommitment stores the serialized multiset hash covering all
// live account-state versions.
func StoreStateCommitment(context Context, serialized []byte) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}
	return accessor.Put(stateCommitmentKey, serialized)
}

// FetchStateCommitment returns the serialized multiset hash covering all
// live account-state versions. Returns database.ErrNotFound for a fresh
// database.
func FetchStateCommitment(context Context) ([]byte, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}
	return accessor.Get(stateCommitmentKey)
}
