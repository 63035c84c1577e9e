// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"math/big"
	"testing"
	"time"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/util"
)

// buildTestChain links windowSize+1 synthetic chain blocks with the given
// spacing between consecutive timestamps, all carrying the same bits, and
// returns the newest one.
func buildTestChain(params *dagconfig.Params, bits uint32, spacing int64) *blockNode {
	var tip *blockNode
	height := uint64(0)
	timestamp := int64(1_000_000)
	for i := uint64(0); i <= params.DifficultyAdjustmentWindowSize+1; i++ {
		node := &blockNode{
			selectedParent: tip,
			height:         height,
			timestamp:      timestamp,
			bits:           bits,
		}
		tip = node
		height++
		timestamp += spacing
	}
	return tip
}

func TestRequiredDifficulty(t *testing.T) {
	params := dagconfig.MainnetParams
	dag := &BlockDAG{params: &params}

	// Normalize through the compact encoding so expectations are computed
	// from the same value the retarget reads out of the parent bits.
	target := util.CompactToBig(util.BigToCompact(new(big.Int).Rsh(params.PowLimit, 8)))
	bits := util.BigToCompact(target)
	targetSpacing := int64(params.TargetTimePerBlock / time.Second)

	t.Run("short chains use the limit", func(t *testing.T) {
		if got := dag.requiredDifficulty(nil); got != params.PowLimitBits {
			t.Errorf("no parent: got %08x, want %08x", got, params.PowLimitBits)
		}
		young := &blockNode{height: params.DifficultyAdjustmentWindowSize - 1, bits: bits}
		if got := dag.requiredDifficulty(young); got != params.PowLimitBits {
			t.Errorf("young parent: got %08x, want %08x", got, params.PowLimitBits)
		}
	})

	t.Run("on-pace blocks keep the difficulty", func(t *testing.T) {
		tip := buildTestChain(&params, bits, targetSpacing)
		if got := dag.requiredDifficulty(tip); got != bits {
			t.Errorf("got %08x, want %08x", got, bits)
		}
	})

	t.Run("fast blocks raise the difficulty", func(t *testing.T) {
		tip := buildTestChain(&params, bits, targetSpacing/3)
		got := util.CompactToBig(dag.requiredDifficulty(tip))
		if got.Cmp(target) >= 0 {
			t.Errorf("fast blocks must shrink the target: got %064x", got)
		}
		lowBound := new(big.Int).Div(target, big.NewInt(params.MaxDifficultyAdjustmentFactor))
		if got.Cmp(lowBound) < 0 {
			t.Errorf("retarget moved below the clamp: got %064x, clamp %064x", got, lowBound)
		}
	})

	t.Run("slow blocks lower the difficulty within the clamp", func(t *testing.T) {
		// Ten times the target spacing asks for a 10x easier target, but
		// the retarget may move at most MaxDifficultyAdjustmentFactor per
		// block.
		tip := buildTestChain(&params, bits, targetSpacing*10)
		clamped := new(big.Int).Mul(target, big.NewInt(params.MaxDifficultyAdjustmentFactor))
		want := util.BigToCompact(clamped)
		if got := dag.requiredDifficulty(tip); got != want {
			t.Errorf("got %08x, want %08x", got, want)
		}
	})

	t.Run("identical timestamps clamp downward", func(t *testing.T) {
		tip := buildTestChain(&params, bits, 0)
		clamped := new(big.Int).Div(target, big.NewInt(params.MaxDifficultyAdjustmentFactor))
		want := util.BigToCompact(clamped)
		if got := dag.requiredDifficulty(tip); got != want {
			t.Errorf("got %08x, want %08x", got, want)
		}
	})

	t.Run("the target never leaves the proof of work limit", func(t *testing.T) {
		tip := buildTestChain(&params, params.PowLimitBits, targetSpacing*10)
		if got := dag.requiredDifficulty(tip); got != params.PowLimitBits {
			t.Errorf("got %08x, want the limit %08x", got, params.PowLimitBits)
		}
	})
}
