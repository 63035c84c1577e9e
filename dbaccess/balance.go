package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
)

var (
	balancesBucket       = database.MakeBucket([]byte("balances"))
	balancesLatestBucket = database.MakeBucket([]byte("balances-latest"))
)

// AccountKeySize is the byte size of a serialized (owner, asset) pair.
const AccountKeySize = 32 + daghash.HashSize

// BalanceVersion is one entry of an account's append-only balance history.
// PreviousTopoHeight links to the version this one superseded, so a rollback
// can restore the latest-version pointer without scanning.
type BalanceVersion struct {
	Balance            uint64
	HasPrevious        bool
	PreviousTopoHeight uint64
}

func balanceAccountKey(owner *[32]byte, asset *daghash.Hash) []byte {
	key := make([]byte, AccountKeySize)
	copy(key[:32], owner[:])
	copy(key[32:], asset[:])
	return key
}

func balanceVersionKey(owner *[32]byte, asset *daghash.Hash, topoHeight uint64) []byte {
	key := make([]byte, AccountKeySize+8)
	copy(key[:32], owner[:])
	copy(key[32:], asset[:])
	binary.BigEndian.PutUint64(key[AccountKeySize:], topoHeight)
	return balancesBucket.Key(key)
}

func serializeBalanceVersion(version *BalanceVersion) []byte {
	buf := make([]byte, 17)
	binary.BigEndian.PutUint64(buf[:8], version.Balance)
	if version.HasPrevious {
		buf[8] = 1
		binary.BigEndian.PutUint64(buf[9:], version.PreviousTopoHeight)
	}
	return buf
}

func deserializeBalanceVersion(versionBytes []byte) (*BalanceVersion, error) {
	if len(versionBytes) != 17 {
		return nil, errors.Errorf("serialized balance version is %d bytes, want 17",
			len(versionBytes))
	}
	version := &BalanceVersion{
		Balance:     binary.BigEndian.Uint64(versionBytes[:8]),
		HasPrevious: versionBytes[8] == 1,
	}
	if version.HasPrevious {
		version.PreviousTopoHeight = binary.BigEndian.Uint64(versionBytes[9:])
	}
	return version, nil
}

// StoreBalance writes a new balance version for (owner, asset) effective at
// the given topoheight, and moves the account's latest-version pointer to
// it. A version already recorded at the same topoheight is overwritten; the
// orderer never assigns the same (key, topoheight) twice within one order,
// but a reorganization may reassign a topoheight it rolled back within the
// same database transaction.
func StoreBalance(context Context, owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64, version *BalanceVersion) error {

	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	key := balanceVersionKey(owner, asset, topoHeight)
	err = accessor.Put(key, serializeBalanceVersion(version))
	if err != nil {
		return err
	}

	var topoBytes [8]byte
	binary.BigEndian.PutUint64(topoBytes[:], topoHeight)
	return accessor.Put(balancesLatestBucket.Key(balanceAccountKey(owner, asset)), topoBytes[:])
}

// FetchBalanceAtExactTopoHeight returns the balance version recorded for
// (owner, asset) exactly at the given topoheight. There is no interpolation
// across gaps: database.ErrNotFound is returned if no version exists at that
// topoheight.
func FetchBalanceAtExactTopoHeight(context Context, owner *[32]byte,
	asset *daghash.Hash, topoHeight uint64) (*BalanceVersion, error) {

	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	versionBytes, err := accessor.Get(balanceVersionKey(owner, asset, topoHeight))
	if err != nil {
		return nil, err
	}
	return deserializeBalanceVersion(versionBytes)
}

// FetchLastBalance returns the latest balance version of (owner, asset) and
// the topoheight at which it became effective. Since rollbacks discard
// versions above the rolled-back topoheight and rewind the latest-version
// pointer, the latest version is always the one with the greatest
// topoheight less than or equal to the current chain topoheight.
// Returns database.ErrNotFound if the key never had a version.
func FetchLastBalance(context Context, owner *[32]byte,
	asset *daghash.Hash) (*BalanceVersion, uint64, error) {

	accessor, err := context.accessor()
	if err != nil {
		return nil, 0, err
	}

	topoBytes, err := accessor.Get(balancesLatestBucket.Key(balanceAccountKey(owner, asset)))
	if err != nil {
		return nil, 0, err
	}
	topoHeight := binary.BigEndian.Uint64(topoBytes)

	version, err := FetchBalanceAtExactTopoHeight(context, owner, asset, topoHeight)
	if err != nil {
		return nil, 0, err
	}
	return version, topoHeight, nil
}

// RemoveBalance deletes the balance version of (owner, asset) at the given
// topoheight and rewinds the latest-version pointer to the version it had
// superseded. It is only valid to remove the key's latest version; rollback
// walks versions from the top down.
func RemoveBalance(context Context, owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64) error {

	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	version, err := FetchBalanceAtExactTopoHeight(context, owner, asset, topoHeight)
	if err != nil {
		return err
	}

	err = accessor.Delete(balanceVersionKey(owner, asset, topoHeight))
	if err != nil {
		return err
	}

	latestKey := balancesLatestBucket.Key(balanceAccountKey(owner, asset))
	if !version.HasPrevious {
		return accessor.Delete(latestKey)
	}
	var topoBytes [8]byte
	binary.BigEndian.PutUint64(topoBytes[:], version.PreviousTopoHeight)
	return accessor.Put(latestKey, topoBytes[:])
}
