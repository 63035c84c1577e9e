// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
)

// initDAGState loads the DAG from the database, or bootstraps a fresh DAG
// from the genesis block when the database holds none.
func (dag *BlockDAG) initDAGState() error {
	_, err := dbaccess.FetchTips(dag.databaseContext.NoTx())
	if database.IsNotFoundError(err) {
		return dag.createDAGState()
	}
	if err != nil {
		return err
	}
	return dag.loadDAGState()
}

// createDAGState initializes a fresh database with the genesis block and the
// ledger state its ordering produces.
func (dag *BlockDAG) createDAGState() error {
	genesis := dag.params.GenesisBlock
	log.Infof("Creating DAG state from genesis block %s", dag.params.GenesisHash)

	err := dbaccess.RegisterAsset(dag.databaseContext.NoTx(), dagconfig.NativeAsset,
		dag.params.CoinPrecision)
	if err != nil && !dbaccess.IsAlreadyExistsError(err) {
		return err
	}
	err = dbaccess.StoreBlock(dag.databaseContext.NoTx(), genesis)
	if err != nil && !dbaccess.IsAlreadyExistsError(err) {
		return err
	}

	node := newBlockNode(genesis, newBlockSet())
	dag.index.AddNode(node)
	dag.tips = blockSetFromSlice(node)

	_, err = dag.reorganize()
	return err
}

// loadDAGState reconstructs the in-memory DAG from the database: the block
// index, the tips, the linear order and the state commitment.
func (dag *BlockDAG) loadDAGState() error {
	log.Infof("Loading DAG state...")

	hashes, err := dbaccess.BlockHashesSortedByHeight(dag.databaseContext.NoTx())
	if err != nil {
		return err
	}
	for _, hash := range hashes {
		block, err := dbaccess.FetchBlock(dag.databaseContext.NoTx(), hash)
		if err != nil {
			return err
		}
		parents := newBlockSet()
		for _, parentHash := range block.ParentHashes {
			parent := dag.index.LookupNode(parentHash)
			if parent == nil {
				return errors.Errorf("stored block %s references missing parent %s",
					hash, parentHash)
			}
			parents.add(parent)
		}
		dag.index.AddNode(newBlockNode(block, parents))
	}

	tipHashes, err := dbaccess.FetchTips(dag.databaseContext.NoTx())
	if err != nil {
		return err
	}
	tips := newBlockSet()
	for _, tipHash := range tipHashes {
		tip := dag.index.LookupNode(tipHash)
		if tip == nil {
			return errors.Errorf("stored tip %s is not a stored block", tipHash)
		}
		tips.add(tip)
	}
	dag.tips = tips

	currentTopoHeight, err := dbaccess.FetchCurrentTopoHeight(dag.databaseContext.NoTx())
	if err != nil {
		return err
	}
	order := make([]*blockNode, 0, currentTopoHeight+1)
	for topoHeight := uint64(0); topoHeight <= currentTopoHeight; topoHeight++ {
		hash, err := dbaccess.HashAtTopoHeight(dag.databaseContext.NoTx(), topoHeight)
		if err != nil {
			return err
		}
		node := dag.index.LookupNode(hash)
		if node == nil {
			return errors.Errorf("ordered block %s at topoheight %d is not a stored block",
				hash, topoHeight)
		}
		node.topoHeight = topoHeight
		node.isOrdered = true
		order = append(order, node)
	}
	dag.order = order
	dag.updateChainFlags(nil)

	serializedCommitment, err := dbaccess.FetchStateCommitment(dag.databaseContext.NoTx())
	if err != nil {
		return err
	}
	dag.stateCommitment, err = deserializeStateMultiset(serializedCommitment)
	if err != nil {
		return err
	}

	log.Infof("Loaded %d blocks (topoheight %d, %d tips)",
		dag.index.Count(), currentTopoHeight, len(dag.tips))
	return nil
}
