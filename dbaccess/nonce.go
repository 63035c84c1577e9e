package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
)

var (
	noncesBucket       = database.MakeBucket([]byte("nonces"))
	noncesLatestBucket = database.MakeBucket([]byte("nonces-latest"))
)

// NonceVersion is one entry of an account's append-only nonce history,
// versioned by topoheight the same way balance versions are.
type NonceVersion struct {
	Nonce              uint64
	HasPrevious        bool
	PreviousTopoHeight uint64
}

func nonceVersionKey(owner *[32]byte, topoHeight uint64) []byte {
	key := make([]byte, 32+8)
	copy(key[:32], owner[:])
	binary.BigEndian.PutUint64(key[32:], topoHeight)
	return noncesBucket.Key(key)
}

func serializeNonceVersion(version *NonceVersion) []byte {
	buf := make([]byte, 17)
	binary.BigEndian.PutUint64(buf[:8], version.Nonce)
	if version.HasPrevious {
		buf[8] = 1
		binary.BigEndian.PutUint64(buf[9:], version.PreviousTopoHeight)
	}
	return buf
}

func deserializeNonceVersion(versionBytes []byte) (*NonceVersion, error) {
	if len(versionBytes) != 17 {
		return nil, errors.Errorf("serialized nonce version is %d bytes, want 17",
			len(versionBytes))
	}
	version := &NonceVersion{
		Nonce:       binary.BigEndian.Uint64(versionBytes[:8]),
		HasPrevious: versionBytes[8] == 1,
	}
	if version.HasPrevious {
		version.PreviousTopoHeight = binary.BigEndian.Uint64(versionBytes[9:])
	}
	return version, nil
}

// StoreNonce writes a new nonce version for the owner effective at the given
// topoheight, and moves the account's latest-version pointer to it. A
// version already recorded at the same topoheight is overwritten, the same
// way balance versions are.
func StoreNonce(context Context, owner *[32]byte, topoHeight uint64,
	version *NonceVersion) error {

	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	key := nonceVersionKey(owner, topoHeight)
	err = accessor.Put(key, serializeNonceVersion(version))
	if err != nil {
		return err
	}

	var topoBytes [8]byte
	binary.BigEndian.PutUint64(topoBytes[:], topoHeight)
	return accessor.Put(noncesLatestBucket.Key(owner[:]), topoBytes[:])
}

// FetchNonceAtExactTopoHeight returns the nonce version recorded for the
// owner exactly at the given topoheight, or database.ErrNotFound.
func FetchNonceAtExactTopoHeight(context Context, owner *[32]byte,
	topoHeight uint64) (*NonceVersion, error) {

	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	versionBytes, err := accessor.Get(nonceVersionKey(owner, topoHeight))
	if err != nil {
		return nil, err
	}
	return deserializeNonceVersion(versionBytes)
}

// FetchLastNonce returns the owner's latest nonce version and the topoheight
// at which it became effective. Returns database.ErrNotFound if the account
// never had a nonce.
func FetchLastNonce(context Context, owner *[32]byte) (*NonceVersion, uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, 0, err
	}

	topoBytes, err := accessor.Get(noncesLatestBucket.Key(owner[:]))
	if err != nil {
		return nil, 0, err
	}
	topoHeight := binary.BigEndian.Uint64(topoBytes)

	version, err := FetchNonceAtExactTopoHeight(context, owner, topoHeight)
	if err != nil {
		return nil, 0, err
	}
	return version, topoHeight, nil
}

// RemoveNonce deletes the owner's nonce version at the given topoheight and
// rewinds the latest-version pointer. It is only valid to remove the
// account's latest version.
func RemoveNonce(context Context, owner *[32]byte, topoHeight uint64) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	version, err := FetchNonceAtExactTopoHeight(context, owner, topoHeight)
	if err != nil {
		return err
	}

	err = accessor.Delete(nonceVersionKey(owner, topoHeight))
	if err != nil {
		return err
	}

	latestKey := noncesLatestBucket.Key(owner[:])
	if !version.HasPrevious {
		return accessor.Delete(latestKey)
	}
	var topoBytes [8]byte
	binary.BigEndian.PutUint64(topoBytes[:], version.PreviousTopoHeight)
	return accessor.Put(latestKey, topoBytes[:])
}
