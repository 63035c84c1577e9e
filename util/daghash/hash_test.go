// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package daghash

import (
	"testing"
)

func TestHashSetBytes(t *testing.T) {
	buf := make([]byte, HashSize)
	buf[0] = 0x2a

	hash := &Hash{}
	err := hash.SetBytes(buf)
	if err != nil {
		t.Fatalf("SetBytes: %s", err)
	}
	if hash[0] != 0x2a {
		t.Errorf("SetBytes did not copy the bytes")
	}

	err = hash.SetBytes(buf[:HashSize-1])
	if err == nil {
		t.Errorf("SetBytes accepted a short slice")
	}
	err = hash.SetBytes(append(buf, 0x00))
	if err == nil {
		t.Errorf("SetBytes accepted a long slice")
	}
}

func TestNewHashFromStr(t *testing.T) {
	hash := &Hash{}
	hash[HashSize-1] = 0x01

	decoded, err := NewHashFromStr(hash.String())
	if err != nil {
		t.Fatalf("NewHashFromStr: %s", err)
	}
	if !decoded.IsEqual(hash) {
		t.Errorf("string round trip changed the hash")
	}

	// Short strings are zero padded on the left.
	decoded, err = NewHashFromStr("1")
	if err != nil {
		t.Fatalf("NewHashFromStr: %s", err)
	}
	want := &Hash{}
	want[HashSize-1] = 0x01
	if !decoded.IsEqual(want) {
		t.Errorf("short string: got %s, want %s", decoded, want)
	}

	_, err = NewHashFromStr("banana")
	if err == nil {
		t.Errorf("NewHashFromStr accepted non-hex input")
	}
	_, err = NewHashFromStr(hash.String() + "00")
	if err == nil {
		t.Errorf("NewHashFromStr accepted an over-long string")
	}
}

func TestHashOrdering(t *testing.T) {
	small := &Hash{}
	big := &Hash{}
	big[0] = 0x01 // the leading byte is the most significant in the order

	if !Less(small, big) || Less(big, small) {
		t.Errorf("Less must order by leading byte first")
	}
	if Less(small, small) {
		t.Errorf("Less must be irreflexive")
	}
	if small.Cmp(big) != -1 || big.Cmp(small) != 1 || small.Cmp(small) != 0 {
		t.Errorf("Cmp disagrees with Less")
	}

	hashes := []*Hash{big, small}
	Sort(hashes)
	if hashes[0] != small || hashes[1] != big {
		t.Errorf("Sort must order ascending")
	}
	if !AreEqual(hashes, []*Hash{small, big}) {
		t.Errorf("AreEqual rejected equal slices")
	}
	if AreEqual(hashes, []*Hash{big, small}) {
		t.Errorf("AreEqual accepted differently ordered slices")
	}
}

func TestIsEqualNil(t *testing.T) {
	var a, b *Hash
	if !a.IsEqual(b) {
		t.Errorf("two nil hashes must compare equal")
	}
	if a.IsEqual(&ZeroHash) || (&ZeroHash).IsEqual(b) {
		t.Errorf("nil and non-nil hashes must compare unequal")
	}
}
