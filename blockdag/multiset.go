package blockdag

import (
	"encoding/binary"

	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/util/daghash"
)

// stateMultiset is an incremental, unordered commitment over the live state
// versions of the ledger. Adding and removing elements commute, so applying
// blocks and rolling them back in any interleaving that ends at the same
// state ends at the same commitment.
type stateMultiset struct {
	mu *muhash.MuHash
}

func newStateMultiset() *stateMultiset {
	return &stateMultiset{mu: muhash.NewMuHash()}
}

// AddBalance commits a balance version to the multiset.
func (ms *stateMultiset) AddBalance(owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64, balance uint64) {

	ms.mu.Add(balanceElement(owner, asset, topoHeight, balance))
}

// RemoveBalance removes a previously committed balance version.
func (ms *stateMultiset) RemoveBalance(owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64, balance uint64) {

	ms.mu.Remove(balanceElement(owner, asset, topoHeight, balance))
}

// AddNonce commits a nonce version to the multiset.
func (ms *stateMultiset) AddNonce(owner *[32]byte, topoHeight uint64, nonce uint64) {
	ms.mu.Add(nonceElement(owner, topoHeight, nonce))
}

// RemoveNonce removes a previously committed nonce version.
func (ms *stateMultiset) RemoveNonce(owner *[32]byte, topoHeight uint64, nonce uint64) {
	ms.mu.Remove(nonceElement(owner, topoHeight, nonce))
}

// Clone returns an independent copy of the multiset.
func (ms *stateMultiset) Clone() *stateMultiset {
	return &stateMultiset{mu: ms.mu.Clone()}
}

// CommitmentHash finalizes the multiset into a single hash.
func (ms *stateMultiset) CommitmentHash() *daghash.Hash {
	finalized := ms.mu.Finalize()
	hash := daghash.Hash(*finalized.AsArray())
	return &hash
}

// Serialize returns the multiset in its serialized form, suitable for
// persisting and for DeserializeStateMultiset.
func (ms *stateMultiset) Serialize() []byte {
	return ms.mu.Serialize()[:]
}

func deserializeStateMultiset(serialized []byte) (*stateMultiset, error) {
	if len(serialized) != muhash.SerializedMuHashSize {
		return nil, errors.Errorf("serialized multiset expected to be %d bytes but got %d",
			muhash.SerializedMuHashSize, len(serialized))
	}
	var buf muhash.SerializedMuHash
	copy(buf[:], serialized)
	mu, err := muhash.DeserializeMuHash(&buf)
	if err != nil {
		return nil, err
	}
	return &stateMultiset{mu: mu}, nil
}

func balanceElement(owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64, balance uint64) []byte {

	element := make([]byte, 1+32+daghash.HashSize+8+8)
	element[0] = 'b'
	copy(element[1:33], owner[:])
	copy(element[33:65], asset[:])
	binary.LittleEndian.PutUint64(element[65:], topoHeight)
	binary.LittleEndian.PutUint64(element[73:], balance)
	return element
}

func nonceElement(owner *[32]byte, topoHeight uint64, nonce uint64) []byte {
	element := make([]byte, 1+32+8+8)
	element[0] = 'n'
	copy(element[1:33], owner[:])
	binary.LittleEndian.PutUint64(element[33:], topoHeight)
	binary.LittleEndian.PutUint64(element[41:], nonce)
	return element
}
