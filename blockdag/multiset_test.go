package blockdag

import (
	"testing"

	"github.com/quasarnet/quasard/dagconfig"
)

func TestStateMultisetCommutes(t *testing.T) {
	owner := [32]byte{1}
	otherOwner := [32]byte{2}

	forward := newStateMultiset()
	forward.AddBalance(&owner, dagconfig.NativeAsset, 3, 500)
	forward.AddNonce(&owner, 3, 1)
	forward.AddBalance(&otherOwner, dagconfig.NativeAsset, 4, 250)

	backward := newStateMultiset()
	backward.AddBalance(&otherOwner, dagconfig.NativeAsset, 4, 250)
	backward.AddNonce(&owner, 3, 1)
	backward.AddBalance(&owner, dagconfig.NativeAsset, 3, 500)

	if !forward.CommitmentHash().IsEqual(backward.CommitmentHash()) {
		t.Errorf("insertion order changed the commitment: %s != %s",
			forward.CommitmentHash(), backward.CommitmentHash())
	}
}

func TestStateMultisetRemoveUndoesAdd(t *testing.T) {
	owner := [32]byte{7}
	empty := newStateMultiset().CommitmentHash()

	ms := newStateMultiset()
	ms.AddBalance(&owner, dagconfig.NativeAsset, 9, 1000)
	ms.AddNonce(&owner, 9, 4)
	if ms.CommitmentHash().IsEqual(empty) {
		t.Fatalf("adding elements did not change the commitment")
	}

	ms.RemoveNonce(&owner, 9, 4)
	ms.RemoveBalance(&owner, dagconfig.NativeAsset, 9, 1000)
	if !ms.CommitmentHash().IsEqual(empty) {
		t.Errorf("removing every element did not restore the empty commitment")
	}
}

func TestStateMultisetCloneIsIndependent(t *testing.T) {
	owner := [32]byte{3}

	ms := newStateMultiset()
	ms.AddBalance(&owner, dagconfig.NativeAsset, 1, 42)
	clone := ms.Clone()
	if !clone.CommitmentHash().IsEqual(ms.CommitmentHash()) {
		t.Fatalf("clone commitment differs from the original")
	}

	clone.AddNonce(&owner, 1, 1)
	if clone.CommitmentHash().IsEqual(ms.CommitmentHash()) {
		t.Errorf("mutating the clone changed the original")
	}
}

func TestStateMultisetSerializeRoundTrip(t *testing.T) {
	owner := [32]byte{9}

	ms := newStateMultiset()
	ms.AddBalance(&owner, dagconfig.NativeAsset, 2, 123)
	ms.AddNonce(&owner, 2, 1)

	deserialized, err := deserializeStateMultiset(ms.Serialize())
	if err != nil {
		t.Fatalf("deserializeStateMultiset: %s", err)
	}
	if !deserialized.CommitmentHash().IsEqual(ms.CommitmentHash()) {
		t.Errorf("round trip changed the commitment")
	}

	_, err = deserializeStateMultiset([]byte{1, 2, 3})
	if err == nil {
		t.Errorf("deserializing a truncated multiset must fail")
	}
}
