// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"math/big"
	"time"

	"github.com/quasarnet/quasard/util"
)

// chainWindow returns up to windowSize consecutive blocks of the selected
// parent chain starting at startNode, newest first.
func chainWindow(startNode *blockNode, windowSize uint64) []*blockNode {
	window := make([]*blockNode, 0, windowSize)
	for node := startNode; node != nil && uint64(len(window)) < windowSize; node = node.selectedParent {
		window = append(window, node)
	}
	return window
}

// windowMinMaxTimestamps returns the lowest and highest timestamps of a
// window of blocks.
func windowMinMaxTimestamps(window []*blockNode) (min, max int64) {
	min = window[0].timestamp
	max = window[0].timestamp
	for _, node := range window[1:] {
		if node.timestamp < min {
			min = node.timestamp
		}
		if node.timestamp > max {
			max = node.timestamp
		}
	}
	return min, max
}

// averageTarget returns the arithmetic mean of the targets of a window of
// blocks.
func averageTarget(window []*blockNode) *big.Int {
	averageTarget := new(big.Int)
	for _, node := range window {
		averageTarget.Add(averageTarget, util.CompactToBig(node.bits))
	}
	return averageTarget.Div(averageTarget, big.NewInt(int64(len(window))))
}

// requiredDifficulty calculates the difficulty bits required of a block
// whose selected parent is parent.
//
// The retarget scales the average target of the last
// DifficultyAdjustmentWindowSize chain blocks by the ratio of the window's
// actual timespan to its expected timespan. The resulting target is clamped
// to within MaxDifficultyAdjustmentFactor of the parent's target, so a run
// of hostile timestamps moves the difficulty by a bounded ratio per block.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) requiredDifficulty(parent *blockNode) uint32 {
	windowSize := dag.params.DifficultyAdjustmentWindowSize

	// Not enough chain history to retarget over.
	if parent == nil || parent.height < windowSize {
		return dag.params.PowLimitBits
	}

	window := chainWindow(parent, windowSize+1)
	windowMinTimestamp, windowMaxTimestamp := windowMinMaxTimestamps(window)

	// Drop the oldest block so the average covers exactly windowSize
	// targets while the timespan covers windowSize block intervals.
	targetsWindow := window[:windowSize]

	actualTimespan := windowMaxTimestamp - windowMinTimestamp
	if actualTimespan < 1 {
		actualTimespan = 1
	}

	div := new(big.Int)
	newTarget := averageTarget(targetsWindow)
	newTarget.
		Mul(newTarget, div.SetInt64(actualTimespan)).
		Div(newTarget, div.SetInt64(int64(dag.params.TargetTimePerBlock/time.Second))).
		Div(newTarget, div.SetUint64(windowSize))

	parentTarget := util.CompactToBig(parent.bits)
	factor := big.NewInt(dag.params.MaxDifficultyAdjustmentFactor)
	highTarget := new(big.Int).Mul(parentTarget, factor)
	lowTarget := new(big.Int).Div(parentTarget, factor)
	if newTarget.Cmp(highTarget) > 0 {
		newTarget.Set(highTarget)
	}
	if newTarget.Cmp(lowTarget) < 0 {
		newTarget.Set(lowTarget)
	}

	if newTarget.Cmp(dag.params.PowLimit) > 0 {
		return dag.params.PowLimitBits
	}
	return util.BigToCompact(newTarget)
}

// requiredDifficultyForParents returns the difficulty bits required of a
// block extending the given parents.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) requiredDifficultyForParents(parents blockSet) uint32 {
	return dag.requiredDifficulty(parents.heaviest())
}

// NextRequiredDifficulty returns the difficulty bits required of a block
// extending the current tips. It is what block templates carry.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) NextRequiredDifficulty() uint32 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.requiredDifficultyForParents(dag.tips)
}
