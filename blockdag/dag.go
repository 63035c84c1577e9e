// Copyright (c) 2013-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// TxPool is the interface the DAG uses to resolve transaction bodies for
// incoming blocks and to keep the pool consistent across reorganizations.
// The mempool implements it.
type TxPool interface {
	// FetchTransaction returns the transaction with the given hash if it
	// is currently in the pool.
	FetchTransaction(txHash *daghash.Hash) (*wire.MsgTx, bool)

	// HandleConnectedBlock is invoked after a block and its transactions
	// became part of the linear order, so the pool can drop them.
	HandleConnectedBlock(txs []*wire.MsgTx)

	// HandleOrphanedTransactions is invoked with the transactions of
	// blocks that dropped out of the linear order, so the pool can try to
	// readmit them.
	HandleOrphanedTransactions(txs []*wire.MsgTx)
}

// Relay is the interface the node uses to announce locally accepted blocks
// and transactions to its networking collaborator.
type Relay interface {
	RelayBlock(block *wire.MsgBlock)
	RelayTransaction(tx *wire.MsgTx)
}

// Config is a descriptor which specifies the BlockDAG instance configuration.
type Config struct {
	// DAGParams identifies which network the DAG is associated with.
	//
	// This field is required.
	DAGParams *dagconfig.Params

	// DatabaseContext is the database the DAG persists blocks and ledger
	// state to.
	//
	// This field is required.
	DatabaseContext *dbaccess.DatabaseContext

	// TimeSource returns the current time and is used to bound block
	// timestamps. It defaults to time.Now.
	TimeSource func() time.Time
}

// BlockDAG provides functions for working with the block DAG: accepting
// blocks, keeping the deterministic linear order over them, and exposing the
// versioned ledger state the order produces.
//
// The zero value is unusable; use New.
type BlockDAG struct {
	params          *dagconfig.Params
	databaseContext *dbaccess.DatabaseContext
	timeSource      func() time.Time

	txPool TxPool
	relay  Relay

	// dagLock protects everything below it. Block admission takes the
	// write lock for its whole span, so readers always observe the DAG
	// and the ledger at a single consistent order.
	dagLock sync.RWMutex

	index *blockIndex
	tips  blockSet

	// order is the current linearization of the past cone of the
	// selected tip. order[i] has topoheight i; order[0] is genesis.
	order []*blockNode

	// stateCommitment is an incremental multiset hash over every live
	// state version. Applying a block adds its versions, rolling one back
	// removes them, so two nodes agreeing on the order agree on the
	// commitment without comparing state.
	stateCommitment *stateMultiset
}

// New returns a BlockDAG instance using the provided configuration. It loads
// the DAG from the database, or bootstraps a fresh one from the genesis
// block when the database is empty.
func New(config *Config) (*BlockDAG, error) {
	params := config.DAGParams
	if params == nil {
		return nil, errors.New("blockdag.New requires DAG parameters")
	}
	if config.DatabaseContext == nil {
		return nil, errors.New("blockdag.New requires a database context")
	}

	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = time.Now
	}

	dag := &BlockDAG{
		params:          params,
		databaseContext: config.DatabaseContext,
		timeSource:      timeSource,
		index:           newBlockIndex(),
		tips:            newBlockSet(),
		stateCommitment: newStateMultiset(),
	}

	err := dag.initDAGState()
	if err != nil {
		return nil, err
	}

	log.Infof("DAG state (height %d, topoheight %d, tips %s)",
		dag.selectedTip().height, dag.currentTopoHeight(), dag.tips)
	return dag, nil
}

// SetTxPool attaches the transaction pool the DAG resolves transaction
// bodies from. It must be called before the first ProcessBlock.
func (dag *BlockDAG) SetTxPool(txPool TxPool) {
	dag.txPool = txPool
}

// SetRelay attaches the relay used to announce accepted blocks. A nil relay
// disables announcements.
func (dag *BlockDAG) SetRelay(relay Relay) {
	dag.relay = relay
}

// Params returns the network parameters the DAG runs under.
func (dag *BlockDAG) Params() *dagconfig.Params {
	return dag.params
}

// selectedTip returns the tip with the greatest cumulative work. The order
// is always the linearization of this tip's past cone.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) selectedTip() *blockNode {
	return dag.tips.heaviest()
}

// currentTopoHeight returns the topoheight of the selected tip.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) currentTopoHeight() uint64 {
	return uint64(len(dag.order) - 1)
}

// stableTopoHeight returns the topoheight at or below which the order can no
// longer change.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) stableTopoHeight() uint64 {
	current := dag.currentTopoHeight()
	if current < dag.params.StableDepth {
		return 0
	}
	return current - dag.params.StableDepth
}

// stableHeight returns the height of the block at the stable topoheight.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) stableHeight() uint64 {
	return dag.order[dag.stableTopoHeight()].height
}

// blockType classifies a block relative to the current order.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) blockType(node *blockNode) BlockType {
	if !node.isOrdered {
		return BlockTypeOrphaned
	}
	if node.isChainBlock {
		if node.topoHeight <= dag.stableTopoHeight() {
			return BlockTypeSync
		}
		return BlockTypeNormal
	}
	if node.height >= dag.stableHeight() {
		return BlockTypeSide
	}
	return BlockTypeNormal
}

// Height returns the height of the selected tip.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) Height() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.selectedTip().height
}

// TopoHeight returns the topoheight of the selected tip, i.e. the number of
// ordered blocks minus one.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) TopoHeight() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.currentTopoHeight()
}

// StableHeight returns the height below which blocks can no longer be
// reorganized.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) StableHeight() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.stableHeight()
}

// StableTopoHeight returns the topoheight at or below which block positions
// are final.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) StableTopoHeight() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.stableTopoHeight()
}

// TipHashes returns the hashes of the current tips in ascending hash order.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) TipHashes() []*daghash.Hash {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.tips.hashes()
}

// SelectedTipHash returns the hash of the selected tip.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) SelectedTipHash() *daghash.Hash {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.selectedTip().hash
}

// IsKnownBlock returns whether the DAG contains a block with the given hash.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) IsKnownBlock(hash *daghash.Hash) bool {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.index.HaveBlock(hash)
}

// BlockCount returns the number of blocks in the DAG, ordered or not.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BlockCount() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.index.Count()
}

// BlockByHash returns the block with the given hash from the store.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BlockByHash(hash *daghash.Hash) (*wire.MsgBlock, error) {
	return dbaccess.FetchBlock(dag.databaseContext.NoTx(), hash)
}

// HashAtTopoHeight returns the hash of the block at the given position of
// the current order. Returns database.ErrNotFound when the position is
// beyond the current topoheight.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) HashAtTopoHeight(topoHeight uint64) (*daghash.Hash, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	if topoHeight >= uint64(len(dag.order)) {
		return nil, errors.Wrapf(database.ErrNotFound,
			"no block at topoheight %d", topoHeight)
	}
	return dag.order[topoHeight].hash, nil
}

// BlockHashesAtHeight returns the hashes of all blocks at the given height,
// ordered or not.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BlockHashesAtHeight(height uint64) ([]*daghash.Hash, error) {
	return dbaccess.BlockHashesAtHeight(dag.databaseContext.NoTx(), height)
}

// BlockInfo describes a block along with everything the order knows about
// it. TopoHeight, Supply and Reward are only meaningful while IsOrdered is
// true.
type BlockInfo struct {
	Block          *wire.MsgBlock
	Hash           *daghash.Hash
	Type           BlockType
	IsOrdered      bool
	TopoHeight     uint64
	Difficulty     *big.Int
	CumulativeWork *big.Int
	Supply         uint64
	Reward         uint64
}

// BlockInfoByHash returns the BlockInfo of the block with the given hash, or
// database.ErrNotFound if the DAG does not contain it.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BlockInfoByHash(hash *daghash.Hash) (*BlockInfo, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.blockInfo(hash)
}

// BlockInfoAtTopoHeight returns the BlockInfo of the block at the given
// position of the current order.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BlockInfoAtTopoHeight(topoHeight uint64) (*BlockInfo, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	if topoHeight >= uint64(len(dag.order)) {
		return nil, errors.Wrapf(database.ErrNotFound,
			"no block at topoheight %d", topoHeight)
	}
	return dag.blockInfo(dag.order[topoHeight].hash)
}

// blockInfo builds the BlockInfo for a block already known to the index.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) blockInfo(hash *daghash.Hash) (*BlockInfo, error) {
	node := dag.index.LookupNode(hash)
	if node == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "block %s is not known", hash)
	}
	block, err := dbaccess.FetchBlock(dag.databaseContext.NoTx(), hash)
	if err != nil {
		return nil, err
	}

	info := &BlockInfo{
		Block:          block,
		Hash:           node.hash,
		Type:           dag.blockType(node),
		IsOrdered:      node.isOrdered,
		TopoHeight:     node.topoHeight,
		Difficulty:     util.CompactToBig(node.bits),
		CumulativeWork: new(big.Int).Set(node.cumulativeWork),
	}
	if node.isOrdered {
		info.Supply, err = dbaccess.FetchSupply(dag.databaseContext.NoTx(), hash)
		if err != nil {
			return nil, err
		}
		info.Reward, err = dbaccess.FetchReward(dag.databaseContext.NoTx(), hash)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

// BalanceByOwner returns the latest balance of (owner, asset) and the
// topoheight at which it was last changed. Returns database.ErrNotFound for
// an account the ledger never touched.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BalanceByOwner(owner *[32]byte, asset *daghash.Hash) (uint64, uint64, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	version, topoHeight, err := dbaccess.FetchLastBalance(dag.databaseContext.NoTx(), owner, asset)
	if err != nil {
		return 0, 0, err
	}
	return version.Balance, topoHeight, nil
}

// BalanceAtTopoHeight returns the balance version of (owner, asset) exactly
// at the given topoheight, or database.ErrNotFound when the account did not
// change there.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) BalanceAtTopoHeight(owner *[32]byte, asset *daghash.Hash,
	topoHeight uint64) (*dbaccess.BalanceVersion, error) {

	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dbaccess.FetchBalanceAtExactTopoHeight(dag.databaseContext.NoTx(), owner, asset, topoHeight)
}

// NonceByOwner returns the number of transactions the owner has had applied,
// which is also the nonce its next transaction must carry. Accounts the
// ledger never saw a transaction from have nonce zero.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) NonceByOwner(owner *[32]byte) (uint64, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.nonceByOwnerNoLock(owner)
}

// balanceByOwnerNoLock returns the latest balance of (owner, asset),
// treating an account the ledger never touched as zero.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) balanceByOwnerNoLock(owner *[32]byte, asset *daghash.Hash) (uint64, error) {
	version, _, err := dbaccess.FetchLastBalance(dag.databaseContext.NoTx(), owner, asset)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version.Balance, nil
}

func (dag *BlockDAG) nonceByOwnerNoLock(owner *[32]byte) (uint64, error) {
	version, _, err := dbaccess.FetchLastNonce(dag.databaseContext.NoTx(), owner)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version.Nonce, nil
}

// TransactionByHash returns the stored transaction with the given hash.
// Returns database.ErrNotFound if no block ever carried it.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) TransactionByHash(txHash *daghash.Hash) (*wire.MsgTx, error) {
	return dbaccess.FetchTransaction(dag.databaseContext.NoTx(), txHash)
}

// TransactionCount returns the number of distinct transactions blocks have
// carried.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) TransactionCount() (uint64, error) {
	return dbaccess.TransactionCount(dag.databaseContext.NoTx())
}

// Assets returns the identifiers of every asset registered in the ledger.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) Assets() ([]*daghash.Hash, error) {
	return dbaccess.FetchAssets(dag.databaseContext.NoTx())
}

// StateCommitment returns the current multiset commitment over the ledger
// state.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) StateCommitment() *daghash.Hash {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.stateCommitment.CommitmentHash()
}

// CirculatingSupply returns the amount of native coin minted by the blocks
// of the current order.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) CirculatingSupply() (uint64, error) {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dbaccess.FetchSupply(dag.databaseContext.NoTx(), dag.order[len(dag.order)-1].hash)
}

// NextBlockHeight returns the height a block extending all current tips
// must declare.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) NextBlockHeight() uint64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.tips.maxHeight() + 1
}

// NextBlockTime returns the earliest timestamp a block extending all
// current tips may carry without being rejected as too old, or the current
// time if that is later.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) NextBlockTime() int64 {
	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.nextBlockTime()
}

// NextBlockInfo returns the parent hashes, height, earliest timestamp and
// required difficulty for a block extending the current tips. All four are
// read under one lock, so together they describe a single DAG state; a
// template assembled from them stays internally consistent even when a
// block lands concurrently.
//
// This function is safe for concurrent access.
func (dag *BlockDAG) NextBlockInfo() (parentHashes []*daghash.Hash, height uint64,
	timestamp int64, bits uint32) {

	dag.dagLock.RLock()
	defer dag.dagLock.RUnlock()
	return dag.tips.hashes(), dag.tips.maxHeight() + 1, dag.nextBlockTime(),
		dag.requiredDifficultyForParents(dag.tips)
}

// nextBlockTime is NextBlockTime without locking.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) nextBlockTime() int64 {
	timestamp := dag.timeSource().Unix()
	if minimum := medianTimestamp(dag.tips) + 1; timestamp < minimum {
		timestamp = minimum
	}
	return timestamp
}

// Now returns the DAG's view of the current time.
func (dag *BlockDAG) Now() time.Time {
	return dag.timeSource()
}
