package blockdag

import (
	"github.com/quasarnet/quasard/dbaccess"
)

// orderChanges describes how one reorganization moved the linear order.
type orderChanges struct {
	// divergence is the first topoheight whose block assignment changed.
	// Everything below it kept both its block and its ledger state.
	divergence uint64

	// detached holds the blocks that lost their position in the order,
	// i.e. fell outside the past cone of the new selected tip.
	detached []*blockNode
}

// computeBlockOrder linearizes the past cone of the selected tip.
//
// The order is a post-order depth-first traversal from the selected tip,
// visiting the parents of every block in ascending (cumulative work, hash)
// order. It is a topological sort (a block always follows all of its
// parents) and it is fully determined by the DAG structure, so every node
// that agrees on the block set agrees on the order.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) computeBlockOrder() []*blockNode {
	type frame struct {
		node    *blockNode
		parents []*blockNode
		next    int
	}

	tip := dag.selectedTip()
	order := make([]*blockNode, 0, len(dag.order)+1)
	visited := newBlockSet()
	visited.add(tip)
	stack := []frame{{node: tip, parents: tip.parents.sorted()}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.parents) {
			parent := top.parents[top.next]
			top.next++
			if !visited.contains(parent) {
				visited.add(parent)
				stack = append(stack, frame{node: parent, parents: parent.parents.sorted()})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// findDivergence returns the first index at which two orders assign
// different blocks.
func findDivergence(oldOrder, newOrder []*blockNode) uint64 {
	divergence := 0
	for divergence < len(oldOrder) && divergence < len(newOrder) &&
		oldOrder[divergence] == newOrder[divergence] {
		divergence++
	}
	return uint64(divergence)
}

// reorganize recomputes the linear order for the current tips and moves the
// ledger state to match it. Positions below the first divergence are left
// untouched; everything at or above it is rolled back and reassigned. The
// database mutation is a single atomic transaction; the in-memory DAG is
// only updated after it commits.
//
// This function MUST be called with the DAG lock held (for writes).
func (dag *BlockDAG) reorganize() (*orderChanges, error) {
	dbTx, err := dag.databaseContext.NewTx()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	newOrder := dag.computeBlockOrder()
	divergence := findDivergence(dag.order, newOrder)

	commitment := dag.stateCommitment.Clone()
	overlay := newLedgerOverlay(dbTx)

	// Roll back every assignment above the divergence, newest first, so
	// each removal peels the latest version of the keys it touches.
	for topoHeight := uint64(len(dag.order)); topoHeight > divergence; topoHeight-- {
		err := dag.rollbackTopoHeight(dbTx, overlay, commitment, topoHeight-1)
		if err != nil {
			return nil, err
		}
	}

	// Seed the supply counter from the highest surviving block.
	if divergence > 0 {
		overlay.supply, err = dbaccess.FetchSupply(dbTx, dag.order[divergence-1].hash)
		if err != nil {
			return nil, err
		}
	}

	for topoHeight := divergence; topoHeight < uint64(len(newOrder)); topoHeight++ {
		node := newOrder[topoHeight]
		err := dbaccess.StoreTopoHeight(dbTx, topoHeight, node.hash)
		if err != nil {
			return nil, err
		}
		err = dag.applyBlockEffects(dbTx, overlay, commitment, topoHeight, node)
		if err != nil {
			return nil, err
		}
	}

	err = dbaccess.StoreCurrentTopoHeight(dbTx, uint64(len(newOrder)-1))
	if err != nil {
		return nil, err
	}
	err = dbaccess.StoreTips(dbTx, dag.tips.hashes())
	if err != nil {
		return nil, err
	}
	err = dbaccess.StoreStateCommitment(dbTx, commitment.Serialize())
	if err != nil {
		return nil, err
	}

	err = dbTx.Commit()
	if err != nil {
		return nil, err
	}

	// The database now reflects the new order; move the in-memory DAG to
	// match it.
	newOrderSet := blockSetFromSlice(newOrder...)
	changes := &orderChanges{divergence: divergence}
	for topoHeight := uint64(len(dag.order)); topoHeight > divergence; topoHeight-- {
		node := dag.order[topoHeight-1]
		if !newOrderSet.contains(node) {
			node.isOrdered = false
			changes.detached = append(changes.detached, node)
		}
	}
	for topoHeight := divergence; topoHeight < uint64(len(newOrder)); topoHeight++ {
		node := newOrder[topoHeight]
		node.topoHeight = topoHeight
		node.isOrdered = true
	}
	dag.order = newOrder
	dag.updateChainFlags(changes.detached)
	dag.stateCommitment = commitment

	if len(changes.detached) > 0 || divergence < uint64(len(newOrder)-1) {
		log.Debugf("Reorganized order from topoheight %d (%d blocks detached, new topoheight %d)",
			divergence, len(changes.detached), len(newOrder)-1)
	}
	return changes, nil
}

// updateChainFlags recomputes which ordered blocks lie on the selected
// parent chain of the selected tip.
//
// This function MUST be called with the DAG lock held (for writes).
func (dag *BlockDAG) updateChainFlags(detached []*blockNode) {
	for _, node := range dag.order {
		node.isChainBlock = false
	}
	for _, node := range detached {
		node.isChainBlock = false
	}
	for node := dag.selectedTip(); node != nil; node = node.selectedParent {
		node.isChainBlock = true
	}
}
