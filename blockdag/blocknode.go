// Copyright (c) 2015-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"math/big"

	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// blockNode represents a block within the block DAG. The DAG is stored into
// the block database.
type blockNode struct {
	// NOTE: Additions, deletions, or modifications to the order of the
	// definitions in this struct should not be changed without considering
	// how it affects alignment on 64-bit platforms. The current order is
	// specifically crafted to result in minimal padding.

	// parents is the set of blocks this block points to.
	parents blockSet

	// children is the set of blocks that point to this block. It is
	// updated as child nodes are attached.
	children blockSet

	// selectedParent is the parent with the greatest cumulative work,
	// ties broken by the greater hash.
	selectedParent *blockNode

	// workSum is the amount of work represented by this block alone,
	// derived from its difficulty bits.
	workSum *big.Int

	// cumulativeWork is workSum plus the cumulativeWork of the selected
	// parent. It never changes once the node is created.
	cumulativeWork *big.Int

	// hash is the blake2b hash of the serialized block and serves as its
	// unique ID.
	hash *daghash.Hash

	// Some fields from the block to reconstruct it from memory. These
	// must be treated as immutable and are intentionally ordered to avoid
	// padding on 64-bit platforms.
	height    uint64
	timestamp int64
	bits      uint32

	// topoHeight is the position of this block within the current
	// linear order. It is only meaningful while isOrdered is true and is
	// owned by the orderer under the DAG lock.
	topoHeight uint64

	// isOrdered denotes whether the block is part of the current linear
	// order, i.e. it is inside the past cone of the selected tip.
	isOrdered bool

	// isChainBlock denotes whether the block lies on the selected parent
	// chain of the selected tip.
	isChainBlock bool
}

// newBlockNode returns a new block node for the given block using the
// provided parent nodes. The parents set must already contain a node for
// every parent hash the block references.
func newBlockNode(block *wire.MsgBlock, parents blockSet) *blockNode {
	node := &blockNode{
		parents:   parents,
		children:  newBlockSet(),
		hash:      block.BlockHash(),
		height:    block.Height,
		timestamp: block.Timestamp,
		bits:      block.Bits,
		workSum:   util.CalcWork(block.Bits),
	}

	node.selectedParent = parents.heaviest()
	if node.selectedParent != nil {
		node.cumulativeWork = new(big.Int).Add(node.selectedParent.cumulativeWork, node.workSum)
	} else {
		node.cumulativeWork = new(big.Int).Set(node.workSum)
	}

	for parent := range parents {
		parent.children.add(node)
	}
	return node
}

// less reports whether node sorts before other by cumulative work, ties
// broken by ascending hash. It imposes the deterministic ordering used both
// for tip selection and for parent traversal.
func (node *blockNode) less(other *blockNode) bool {
	cmp := node.cumulativeWork.Cmp(other.cumulativeWork)
	if cmp != 0 {
		return cmp < 0
	}
	return daghash.Less(node.hash, other.hash)
}

// selectedAncestor walks the selected parent chain from node until it
// reaches a chain block, and returns it. It returns node itself when node is
// a chain block.
func (node *blockNode) selectedAncestor() *blockNode {
	n := node
	for n != nil && !n.isChainBlock {
		n = n.selectedParent
	}
	return n
}

func (node *blockNode) String() string {
	return node.hash.String()
}
