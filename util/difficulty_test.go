// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"math/big"
	"testing"

	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
)

func TestCompactRoundTrip(t *testing.T) {
	tests := []uint32{
		0x207fffff, // simnet pow limit
		0x1e7fffff,
		0x1d00ffff, // bitcoin's original limit
		0x1a2b3c4d,
		0x03123456,
	}
	for _, compact := range tests {
		n := util.CompactToBig(compact)
		if got := util.BigToCompact(n); got != compact {
			t.Errorf("compact 0x%08x round trips to 0x%08x", compact, got)
		}
	}
}

func TestBigToCompactPrecisionLoss(t *testing.T) {
	// Values that need more than 23 mantissa bits only keep their most
	// significant digits.
	n := big.NewInt(0x01ffffff)
	compact := util.BigToCompact(n)
	back := util.CompactToBig(compact)
	if back.Cmp(n) > 0 {
		t.Errorf("lossy encoding must round down: %s became %s", n, back)
	}
	diff := new(big.Int).Sub(n, back)
	if diff.Cmp(big.NewInt(0x100)) >= 0 {
		t.Errorf("lost more than a byte of precision: %s", diff)
	}
}

func TestHashToBig(t *testing.T) {
	hash := &daghash.Hash{}
	hash[0] = 0x01 // little-endian, so this is the lowest byte
	if util.HashToBig(hash).Cmp(big.NewInt(1)) != 0 {
		t.Errorf("HashToBig misplaced the low byte")
	}

	hash = &daghash.Hash{}
	hash[daghash.HashSize-1] = 0x01
	want := new(big.Int).Lsh(big.NewInt(1), 8*(daghash.HashSize-1))
	if util.HashToBig(hash).Cmp(want) != 0 {
		t.Errorf("HashToBig misplaced the high byte")
	}
}

func TestCalcWork(t *testing.T) {
	// Halving the target doubles the expected work.
	easy := util.BigToCompact(new(big.Int).Lsh(big.NewInt(1), 240))
	hard := util.BigToCompact(new(big.Int).Lsh(big.NewInt(1), 239))

	easyWork := util.CalcWork(easy)
	hardWork := util.CalcWork(hard)
	if easyWork.Sign() <= 0 || hardWork.Sign() <= 0 {
		t.Fatalf("work must be positive for positive targets")
	}
	ratio := new(big.Int).Div(hardWork, easyWork)
	if ratio.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("halving the target must double the work, got ratio %s", ratio)
	}

	if util.CalcWork(0).Sign() != 0 {
		t.Errorf("a zero target must carry zero work")
	}
	if util.CalcWork(0x03800001).Sign() != 0 {
		t.Errorf("a negative target must carry zero work")
	}
}
