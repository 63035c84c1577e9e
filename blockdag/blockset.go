package blockdag

import (
	"sort"
	"strings"

	"github.com/quasarnet/quasard/util/daghash"
)

// blockSet implements a basic unsorted set of blocks.
type blockSet map[*blockNode]struct{}

// newBlockSet creates a new, empty BlockSet.
func newBlockSet() blockSet {
	return blockSet{}
}

// blockSetFromSlice converts a slice of block nodes into an unordered set
// represented as map.
func blockSetFromSlice(nodes ...*blockNode) blockSet {
	set := newBlockSet()
	for _, node := range nodes {
		set.add(node)
	}
	return set
}

// add adds a block to this BlockSet.
func (bs blockSet) add(node *blockNode) {
	bs[node] = struct{}{}
}

// remove removes a block from this BlockSet, if exists.
func (bs blockSet) remove(node *blockNode) {
	delete(bs, node)
}

// clone clones this block set.
func (bs blockSet) clone() blockSet {
	clone := newBlockSet()
	for node := range bs {
		clone.add(node)
	}
	return clone
}

// contains returns true iff this set contains node.
func (bs blockSet) contains(node *blockNode) bool {
	_, ok := bs[node]
	return ok
}

// hashes returns the hashes of the blocks in this set, sorted by ascending
// hash order.
func (bs blockSet) hashes() []*daghash.Hash {
	hashes := make([]*daghash.Hash, 0, len(bs))
	for node := range bs {
		hashes = append(hashes, node.hash)
	}
	daghash.Sort(hashes)
	return hashes
}

// heaviest returns the block in this set with the greatest cumulative work,
// ties broken by the greater hash, or nil if the set is empty.
func (bs blockSet) heaviest() *blockNode {
	var heaviest *blockNode
	for node := range bs {
		if heaviest == nil || heaviest.less(node) {
			heaviest = node
		}
	}
	return heaviest
}

// maxHeight returns the greatest height among the blocks in this set.
func (bs blockSet) maxHeight() uint64 {
	var max uint64
	for node := range bs {
		if node.height > max {
			max = node.height
		}
	}
	return max
}

// sorted returns the blocks in this set as a slice sorted in ascending
// (cumulative work, hash) order.
func (bs blockSet) sorted() []*blockNode {
	nodes := make([]*blockNode, 0, len(bs))
	for node := range bs {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].less(nodes[j])
	})
	return nodes
}

func (bs blockSet) String() string {
	nodeStrs := make([]string, 0, len(bs))
	for _, hash := range bs.hashes() {
		nodeStrs = append(nodeStrs, hash.String())
	}
	return strings.Join(nodeStrs, ",")
}
