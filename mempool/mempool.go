// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// Policy houses the configurable policy options related to which
// transactions are accepted to the pool.
type Policy struct {
	// MaxTxSize is the maximum allowed serialized size of a transaction.
	MaxTxSize uint64

	// MinRelayFeePerKilobyte is the minimum fee per kilobyte of
	// serialized size a transaction must pay to be accepted.
	MinRelayFeePerKilobyte uint64
}

// Config is a descriptor containing the mempool configuration.
type Config struct {
	// Policy defines the various mempool configuration options related
	// to policy.
	Policy Policy

	// DatabaseContext is the ledger the pool validates transactions
	// against. The pool reads the latest nonce and balance versions
	// directly; the DAG revalidates everything again at block admission.
	DatabaseContext *dbaccess.DatabaseContext
}

// TxDesc is a descriptor about a transaction in the transaction pool.
type TxDesc struct {
	// Tx is the transaction associated with the entry.
	Tx *wire.MsgTx

	// Hash is the transaction's hash.
	Hash *daghash.Hash

	// Added is the time when the entry was added to the pool.
	Added time.Time

	// Fee is the total fee the transaction pays, in base units.
	Fee uint64

	// FeePerKilobyte is the fee the transaction pays per kilobyte of
	// serialized size. It is what template packing sorts by.
	FeePerKilobyte uint64

	// sequence is a monotone admission counter used to break fee ties in
	// favor of older transactions.
	sequence uint64
}

// TxPool is used as a source of transactions that need to be mined into
// blocks. It is safe for concurrent access.
type TxPool struct {
	mtx sync.RWMutex
	cfg Config

	relay blockdag.Relay

	pool map[daghash.Hash]*TxDesc

	// owners holds, per owner, its pending transactions sorted by
	// ascending nonce. The list is always nonce-consecutive and starts
	// at the owner's current ledger nonce, so no gap ever enters the
	// pool.
	owners map[[32]byte][]*TxDesc

	lastSequence uint64
}

// New returns a new memory pool for validating and storing standalone
// transactions until they are mined into a block.
func New(cfg *Config) *TxPool {
	return &TxPool{
		cfg:    *cfg,
		pool:   make(map[daghash.Hash]*TxDesc),
		owners: make(map[[32]byte][]*TxDesc),
	}
}

// Count returns the number of transactions in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return len(mp.pool)
}

// FetchTransaction returns the transaction with the given hash if it is in
// the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) FetchTransaction(txHash *daghash.Hash) (*wire.MsgTx, bool) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	if desc, exists := mp.pool[*txHash]; exists {
		return desc.Tx, true
	}
	return nil, false
}

// TxHashes returns the hashes of all transactions in the pool, in ascending
// hash order.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxHashes() []*daghash.Hash {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	hashes := make([]*daghash.Hash, 0, len(mp.pool))
	for _, desc := range mp.pool {
		hashes = append(hashes, desc.Hash)
	}
	daghash.Sort(hashes)
	return hashes
}

// TxDescs returns descriptors of all transactions in the pool, sorted by
// descending fee rate; ties go to the transaction admitted earlier, then to
// the smaller hash. Owners with several pending transactions may appear out
// of nonce order here; template packing restores the nonce constraint.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxDescs() []*TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	descs := make([]*TxDesc, 0, len(mp.pool))
	for _, desc := range mp.pool {
		descs = append(descs, desc)
	}
	sort.Slice(descs, func(i, j int) bool {
		if descs[i].FeePerKilobyte != descs[j].FeePerKilobyte {
			return descs[i].FeePerKilobyte > descs[j].FeePerKilobyte
		}
		if descs[i].sequence != descs[j].sequence {
			return descs[i].sequence < descs[j].sequence
		}
		return daghash.Less(descs[i].Hash, descs[j].Hash)
	})
	return descs
}

// SetRelay attaches the relay used to announce accepted transactions. A nil
// relay disables announcements.
func (mp *TxPool) SetRelay(relay blockdag.Relay) {
	mp.relay = relay
}

// ProcessTransaction validates a transaction against the pool's policy and
// the current ledger, and admits it to the pool. When broadcast is set the
// accepted transaction is announced through the relay.
//
// This function is safe for concurrent access.
func (mp *TxPool) ProcessTransaction(tx *wire.MsgTx, broadcast bool) (*TxDesc, error) {
	mp.mtx.Lock()
	desc, err := mp.maybeAcceptTransaction(tx)
	mp.mtx.Unlock()
	if err != nil {
		return nil, err
	}
	if broadcast && mp.relay != nil {
		mp.relay.RelayTransaction(tx)
	}
	return desc, nil
}

// HandleConnectedBlock removes the given transactions from the pool after
// their block entered the linear order, then drops any pending transaction
// rendered stale by the owners' advanced nonces.
//
// This function is safe for concurrent access.
func (mp *TxPool) HandleConnectedBlock(txs []*wire.MsgTx) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	touchedOwners := make(map[[32]byte]struct{})
	for _, tx := range txs {
		hash := tx.TxHash()
		if _, exists := mp.pool[*hash]; exists {
			mp.removeTransaction(hash)
		}
		touchedOwners[tx.Owner] = struct{}{}
	}
	for owner := range touchedOwners {
		mp.realignOwner(owner)
	}
}

// HandleOrphanedTransactions offers transactions of blocks that dropped out
// of the linear order back to the pool. Each is validated from scratch;
// those that no longer apply are dropped silently.
//
// This function is safe for concurrent access.
func (mp *TxPool) HandleOrphanedTransactions(txs []*wire.MsgTx) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range txs {
		_, err := mp.maybeAcceptTransaction(tx)
		if err != nil {
			log.Debugf("Orphaned transaction %s was not readmitted: %s", tx.TxHash(), err)
		}
	}
}

// maybeAcceptTransaction is the internal admission path.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) maybeAcceptTransaction(tx *wire.MsgTx) (*TxDesc, error) {
	txHash := tx.TxHash()
	if _, exists := mp.pool[*txHash]; exists {
		return nil, txRuleError(ErrDuplicate,
			fmt.Sprintf("transaction %s is already in the pool", txHash))
	}
	stored, err := dbaccess.HasTransaction(mp.cfg.DatabaseContext.NoTx(), txHash)
	if err != nil {
		return nil, err
	}
	if stored {
		return nil, txRuleError(ErrDuplicate,
			fmt.Sprintf("transaction %s was already carried by a block", txHash))
	}

	err = blockdag.CheckTransactionSanity(tx)
	if err != nil {
		return nil, txRuleError(ErrInvalid, err.Error())
	}
	err = blockdag.CheckTransactionSignature(tx)
	if err != nil {
		return nil, txRuleError(ErrInvalid, err.Error())
	}

	size := uint64(tx.SerializeSize())
	if size > mp.cfg.Policy.MaxTxSize {
		return nil, txRuleError(ErrTxTooBig,
			fmt.Sprintf("transaction size %d exceeds the limit of %d",
				size, mp.cfg.Policy.MaxTxSize))
	}
	feeRate := tx.Fee * 1000 / size
	if feeRate < mp.cfg.Policy.MinRelayFeePerKilobyte {
		return nil, txRuleError(ErrInsufficientFee,
			fmt.Sprintf("transaction fee rate of %d per kilobyte is below the minimum of %d",
				feeRate, mp.cfg.Policy.MinRelayFeePerKilobyte))
	}

	ledgerNonce, err := mp.ledgerNonce(&tx.Owner)
	if err != nil {
		return nil, err
	}
	pending := mp.owners[tx.Owner]
	expectedNonce := ledgerNonce + uint64(len(pending))
	if tx.Nonce < expectedNonce {
		return nil, txRuleError(ErrBadNonce,
			fmt.Sprintf("transaction nonce %d was already used, expected %d",
				tx.Nonce, expectedNonce))
	}
	if tx.Nonce > expectedNonce {
		return nil, txRuleError(ErrBadNonce,
			fmt.Sprintf("transaction nonce %d leaves a gap, expected %d",
				tx.Nonce, expectedNonce))
	}

	spends, err := tx.TotalSpend()
	if err != nil {
		return nil, txRuleError(ErrInvalid, err.Error())
	}
	nativeSpend := spends[*dagconfig.NativeAsset]
	if nativeSpend+tx.Fee < nativeSpend {
		return nil, txRuleError(ErrInvalid, "transaction spend overflows with fee")
	}
	spends[*dagconfig.NativeAsset] = nativeSpend + tx.Fee

	for asset, amount := range spends {
		available, err := mp.spendableBalance(&tx.Owner, asset)
		if err != nil {
			return nil, err
		}
		if available < amount {
			return nil, txRuleError(ErrInsufficientBalance,
				fmt.Sprintf("transaction spends %d of asset %s, owner has %d unspent",
					amount, asset, available))
		}
	}

	mp.lastSequence++
	desc := &TxDesc{
		Tx:             tx,
		Hash:           txHash,
		Added:          time.Now(),
		Fee:            tx.Fee,
		FeePerKilobyte: feeRate,
		sequence:       mp.lastSequence,
	}
	mp.pool[*txHash] = desc
	mp.owners[tx.Owner] = append(pending, desc)

	log.Debugf("Accepted transaction %s (pool size: %d)", txHash, len(mp.pool))
	return desc, nil
}

// removeTransaction removes a single transaction from the pool and from its
// owner's pending list.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeTransaction(txHash *daghash.Hash) {
	desc, exists := mp.pool[*txHash]
	if !exists {
		return
	}
	delete(mp.pool, *txHash)

	pending := mp.owners[desc.Tx.Owner]
	for i, pendingDesc := range pending {
		if pendingDesc == desc {
			pending = append(pending[:i], pending[i+1:]...)
			break
		}
	}
	if len(pending) == 0 {
		delete(mp.owners, desc.Tx.Owner)
	} else {
		mp.owners[desc.Tx.Owner] = pending
	}
}

// realignOwner drops the owner's pending transactions that no longer form a
// consecutive nonce run starting at the owner's current ledger nonce.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) realignOwner(owner [32]byte) {
	pending := mp.owners[owner]
	if len(pending) == 0 {
		return
	}
	ledgerNonce, err := mp.ledgerNonce(&owner)
	if err != nil {
		log.Warnf("Failed to read nonce of account %x: %s", owner[:4], err)
		return
	}

	expected := ledgerNonce
	kept := pending[:0]
	for _, desc := range pending {
		if desc.Tx.Nonce != expected {
			delete(mp.pool, *desc.Hash)
			log.Debugf("Dropped stale transaction %s (nonce %d, expected %d)",
				desc.Hash, desc.Tx.Nonce, expected)
			continue
		}
		kept = append(kept, desc)
		expected++
	}
	if len(kept) == 0 {
		delete(mp.owners, owner)
	} else {
		mp.owners[owner] = kept
	}
}

// ledgerNonce returns the owner's current ledger nonce, treating an unknown
// account as zero.
func (mp *TxPool) ledgerNonce(owner *[32]byte) (uint64, error) {
	version, _, err := dbaccess.FetchLastNonce(mp.cfg.DatabaseContext.NoTx(), owner)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version.Nonce, nil
}

// spendableBalance returns the owner's ledger balance of an asset minus
// what its pending pool transactions already spend of it.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) spendableBalance(owner *[32]byte, asset daghash.Hash) (uint64, error) {
	version, _, err := dbaccess.FetchLastBalance(mp.cfg.DatabaseContext.NoTx(), owner, &asset)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	balance := version.Balance

	for _, desc := range mp.owners[*owner] {
		spends, err := desc.Tx.TotalSpend()
		if err != nil {
			return 0, err
		}
		spent := spends[asset]
		if asset.IsEqual(dagconfig.NativeAsset) {
			spent += desc.Fee
		}
		if balance < spent {
			return 0, nil
		}
		balance -= spent
	}
	return balance, nil
}
