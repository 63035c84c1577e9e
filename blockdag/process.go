// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"fmt"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// ProcessBlock is the main workhorse for handling insertion of new blocks
// into the block DAG: it validates the block, persists it, attaches it as a
// tip and moves the linear order and the ledger to account for it. The DAG
// lock is held for the whole admission, so concurrent submissions of the
// same block serialize and the loser fails with ErrDuplicateBlock.
//
// When broadcast is set the accepted block is announced through the relay.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) ProcessBlock(block *wire.MsgBlock, broadcast bool) error {
	dag.dagLock.Lock()
	defer dag.dagLock.Unlock()
	return dag.processBlock(block, broadcast)
}

func (dag *BlockDAG) processBlock(block *wire.MsgBlock, broadcast bool) error {
	blockHash := block.BlockHash()
	log.Tracef("Processing block %s", blockHash)

	if dag.index.HaveBlock(blockHash) {
		return ruleError(ErrDuplicateBlock,
			fmt.Sprintf("already have block %s", blockHash))
	}

	err := dag.checkBlockSanity(block)
	if err != nil {
		return err
	}

	parents := newBlockSet()
	for _, parentHash := range block.ParentHashes {
		parent := dag.index.LookupNode(parentHash)
		if parent == nil {
			return ruleError(ErrParentBlockUnknown,
				fmt.Sprintf("parent block %s is unknown", parentHash))
		}
		parents.add(parent)
	}

	err = dag.checkBlockContext(block, parents)
	if err != nil {
		return err
	}
	err = dag.checkProofOfWork(block)
	if err != nil {
		return err
	}

	txs, err := dag.resolveBlockTransactions(block)
	if err != nil {
		return err
	}
	err = dag.checkBlockTransactions(block, txs)
	if err != nil {
		return err
	}

	err = dbaccess.StoreBlock(dag.databaseContext.NoTx(), block)
	if err != nil && !dbaccess.IsAlreadyExistsError(err) {
		return err
	}
	for _, tx := range txs {
		err = dbaccess.StoreTransaction(dag.databaseContext.NoTx(), tx)
		if err != nil {
			return err
		}
	}

	node := newBlockNode(block, parents)
	dag.index.AddNode(node)
	oldTips := dag.tips
	newTips := dag.tips.clone()
	for parent := range parents {
		newTips.remove(parent)
	}
	newTips.add(node)
	dag.tips = newTips

	changes, err := dag.reorganize()
	if err != nil {
		// The database transaction was rolled back; detach the block
		// so the in-memory DAG matches it again.
		dag.tips = oldTips
		dag.index.RemoveNode(node)
		return err
	}

	dag.notifyTxPool(node, txs, changes)
	if broadcast && dag.relay != nil {
		dag.relay.RelayBlock(block)
	}

	log.Debugf("Accepted block %s (height %d, %d transactions, ordered %t)",
		blockHash, block.Height, len(txs), node.isOrdered)
	return nil
}

// resolveBlockTransactions resolves the transaction hashes a block carries
// into bodies, preferring the pool and falling back to the store.
func (dag *BlockDAG) resolveBlockTransactions(block *wire.MsgBlock) ([]*wire.MsgTx, error) {
	txs := make([]*wire.MsgTx, 0, len(block.TxHashes))
	size := uint64(block.SerializeSize())
	for _, txHash := range block.TxHashes {
		tx, err := dag.fetchTransactionAnywhere(txHash)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		size += uint64(tx.SerializeSize())
	}
	if size > dag.params.MaxBlockSize {
		return nil, ruleError(ErrBlockTooBig,
			fmt.Sprintf("block size %d exceeds the limit of %d", size, dag.params.MaxBlockSize))
	}
	return txs, nil
}

func (dag *BlockDAG) fetchTransactionAnywhere(txHash *daghash.Hash) (*wire.MsgTx, error) {
	if dag.txPool != nil {
		if tx, ok := dag.txPool.FetchTransaction(txHash); ok {
			return tx, nil
		}
	}
	tx, err := dbaccess.FetchTransaction(dag.databaseContext.NoTx(), txHash)
	if database.IsNotFoundError(err) {
		return nil, ruleError(ErrMissingTxData,
			fmt.Sprintf("transaction %s could not be resolved", txHash))
	}
	return tx, err
}

// notifyTxPool keeps the transaction pool consistent with an order change:
// transactions of the newly ordered block leave the pool, transactions of
// blocks that dropped out of the order are offered back to it.
func (dag *BlockDAG) notifyTxPool(node *blockNode, txs []*wire.MsgTx, changes *orderChanges) {
	if dag.txPool == nil {
		return
	}

	if node.isOrdered && len(txs) > 0 {
		dag.txPool.HandleConnectedBlock(txs)
	}

	for _, detached := range changes.detached {
		block, err := dbaccess.FetchBlock(dag.databaseContext.NoTx(), detached.hash)
		if err != nil {
			log.Warnf("Failed to fetch detached block %s: %s", detached.hash, err)
			continue
		}
		orphanedTxs := make([]*wire.MsgTx, 0, len(block.TxHashes))
		for _, txHash := range block.TxHashes {
			tx, err := dbaccess.FetchTransaction(dag.databaseContext.NoTx(), txHash)
			if err != nil {
				log.Warnf("Failed to fetch transaction %s of detached block %s: %s",
					txHash, detached.hash, err)
				continue
			}
			orphanedTxs = append(orphanedTxs, tx)
		}
		if len(orphanedTxs) > 0 {
			dag.txPool.HandleOrphanedTransactions(orphanedTxs)
		}
	}
}
