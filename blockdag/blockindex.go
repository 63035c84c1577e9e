// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"github.com/quasarnet/quasard/util/daghash"
)

// blockIndex provides facilities for keeping track of an in-memory index of
// the block DAG. It is not safe for concurrent access on its own; access is
// serialized by the DAG lock of its owner.
type blockIndex struct {
	index map[daghash.Hash]*blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index: make(map[daghash.Hash]*blockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided
// hash.
func (bi *blockIndex) HaveBlock(hash *daghash.Hash) bool {
	_, hasBlock := bi.index[*hash]
	return hasBlock
}

// LookupNode returns the block node identified by the provided hash. It will
// return nil if there is no entry for the hash.
func (bi *blockIndex) LookupNode(hash *daghash.Hash) *blockNode {
	return bi.index[*hash]
}

// AddNode adds the provided node to the block index.
func (bi *blockIndex) AddNode(node *blockNode) {
	bi.index[*node.hash] = node
}

// RemoveNode removes the provided node from the block index and detaches it
// from its parents.
func (bi *blockIndex) RemoveNode(node *blockNode) {
	for parent := range node.parents {
		parent.children.remove(node)
	}
	delete(bi.index, *node.hash)
}

// Count returns the number of blocks in the index.
func (bi *blockIndex) Count() uint64 {
	return uint64(len(bi.index))
}
