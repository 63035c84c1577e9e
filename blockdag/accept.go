// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// ledgerOverlay tracks the latest balance and nonce of every account a
// reorganization has touched so far. Database reads inside a database
// transaction observe the snapshot taken when the transaction began, so the
// rollbacks and writes the reorganization itself batched are not visible to
// them; the overlay carries exactly that delta. An account absent from the
// overlay is untouched and its snapshot read is authoritative.
type ledgerOverlay struct {
	dbContext dbaccess.Context
	balances  map[dbaccess.BalanceKey]overlayVersion
	nonces    map[[32]byte]overlayVersion

	// supply is the coin supply after the most recently applied block.
	supply uint64
}

type overlayVersion struct {
	exists     bool
	value      uint64
	topoHeight uint64
}

func newLedgerOverlay(dbContext dbaccess.Context) *ledgerOverlay {
	return &ledgerOverlay{
		dbContext: dbContext,
		balances:  make(map[dbaccess.BalanceKey]overlayVersion),
		nonces:    make(map[[32]byte]overlayVersion),
	}
}

// lastBalance returns the latest balance version of key as the
// reorganization currently sees it.
func (o *ledgerOverlay) lastBalance(key dbaccess.BalanceKey) (overlayVersion, error) {
	if entry, ok := o.balances[key]; ok {
		return entry, nil
	}
	version, topoHeight, err := dbaccess.FetchLastBalance(o.dbContext, &key.Owner, &key.Asset)
	if database.IsNotFoundError(err) {
		return overlayVersion{}, nil
	}
	if err != nil {
		return overlayVersion{}, err
	}
	return overlayVersion{exists: true, value: version.Balance, topoHeight: topoHeight}, nil
}

// lastNonce returns the latest nonce version of owner as the reorganization
// currently sees it.
func (o *ledgerOverlay) lastNonce(owner [32]byte) (overlayVersion, error) {
	if entry, ok := o.nonces[owner]; ok {
		return entry, nil
	}
	version, topoHeight, err := dbaccess.FetchLastNonce(o.dbContext, &owner)
	if database.IsNotFoundError(err) {
		return overlayVersion{}, nil
	}
	if err != nil {
		return overlayVersion{}, err
	}
	return overlayVersion{exists: true, value: version.Nonce, topoHeight: topoHeight}, nil
}

// rollbackTopoHeight discards the state versions written at one topoheight.
// The change record names every key that gained a version there, so the
// rollback touches nothing else. Rollbacks must proceed from the highest
// assigned topoheight downward.
func (dag *BlockDAG) rollbackTopoHeight(dbTx *dbaccess.TxContext, overlay *ledgerOverlay,
	commitment *stateMultiset, topoHeight uint64) error {

	record, err := dbaccess.FetchChangeRecord(dbTx, topoHeight)
	if err != nil {
		return err
	}

	for i := range record.BalanceKeys {
		key := record.BalanceKeys[i]
		version, err := dbaccess.FetchBalanceAtExactTopoHeight(dbTx, &key.Owner, &key.Asset, topoHeight)
		if err != nil {
			return err
		}
		commitment.RemoveBalance(&key.Owner, &key.Asset, topoHeight, version.Balance)
		err = dbaccess.RemoveBalance(dbTx, &key.Owner, &key.Asset, topoHeight)
		if err != nil {
			return err
		}
		if !version.HasPrevious {
			overlay.balances[key] = overlayVersion{}
			continue
		}
		previous, err := dbaccess.FetchBalanceAtExactTopoHeight(
			dbTx, &key.Owner, &key.Asset, version.PreviousTopoHeight)
		if err != nil {
			return err
		}
		overlay.balances[key] = overlayVersion{
			exists:     true,
			value:      previous.Balance,
			topoHeight: version.PreviousTopoHeight,
		}
	}

	for i := range record.NonceOwners {
		owner := record.NonceOwners[i]
		version, err := dbaccess.FetchNonceAtExactTopoHeight(dbTx, &owner, topoHeight)
		if err != nil {
			return err
		}
		commitment.RemoveNonce(&owner, topoHeight, version.Nonce)
		err = dbaccess.RemoveNonce(dbTx, &owner, topoHeight)
		if err != nil {
			return err
		}
		if !version.HasPrevious {
			overlay.nonces[owner] = overlayVersion{}
			continue
		}
		previous, err := dbaccess.FetchNonceAtExactTopoHeight(dbTx, &owner, version.PreviousTopoHeight)
		if err != nil {
			return err
		}
		overlay.nonces[owner] = overlayVersion{
			exists:     true,
			value:      previous.Nonce,
			topoHeight: version.PreviousTopoHeight,
		}
	}

	err = dbaccess.RemoveChangeRecord(dbTx, topoHeight)
	if err != nil {
		return err
	}
	return dbaccess.RemoveTopoHeight(dbTx, topoHeight, record.BlockHash)
}

// blockStage accumulates the net ledger effect of one block before it is
// flushed as one version per touched key.
type blockStage struct {
	overlay  *ledgerOverlay
	balances map[dbaccess.BalanceKey]uint64
	nonces   map[[32]byte]uint64
}

func newBlockStage(overlay *ledgerOverlay) *blockStage {
	return &blockStage{
		overlay:  overlay,
		balances: make(map[dbaccess.BalanceKey]uint64),
		nonces:   make(map[[32]byte]uint64),
	}
}

func (stage *blockStage) balance(key dbaccess.BalanceKey) (uint64, error) {
	if balance, ok := stage.balances[key]; ok {
		return balance, nil
	}
	entry, err := stage.overlay.lastBalance(key)
	if err != nil {
		return 0, err
	}
	return entry.value, nil
}

func (stage *blockStage) nonce(owner [32]byte) (uint64, error) {
	if nonce, ok := stage.nonces[owner]; ok {
		return nonce, nil
	}
	entry, err := stage.overlay.lastNonce(owner)
	if err != nil {
		return 0, err
	}
	return entry.value, nil
}

func (stage *blockStage) credit(key dbaccess.BalanceKey, amount uint64) error {
	balance, err := stage.balance(key)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return errors.Errorf("balance of account %x overflows", key.Owner[:4])
	}
	stage.balances[key] = balance + amount
	return nil
}

// stageTransaction applies one transaction to the stage. It returns false
// without mutating the stage when the transaction does not fit the staged
// state, which happens when a reorganization merges a side block whose
// transactions were already applied, or conflict with what was.
func (stage *blockStage) stageTransaction(tx *wire.MsgTx,
	minerKey dbaccess.BalanceKey) (bool, error) {

	nonce, err := stage.nonce(tx.Owner)
	if err != nil {
		return false, err
	}
	if tx.Nonce != nonce {
		return false, nil
	}

	spends, err := tx.TotalSpend()
	if err != nil {
		return false, err
	}
	nativeSpend := spends[*dagconfig.NativeAsset]
	if nativeSpend+tx.Fee < nativeSpend {
		return false, nil
	}
	spends[*dagconfig.NativeAsset] = nativeSpend + tx.Fee
	for asset, amount := range spends {
		key := dbaccess.BalanceKey{Owner: tx.Owner, Asset: asset}
		balance, err := stage.balance(key)
		if err != nil {
			return false, err
		}
		if balance < amount {
			return false, nil
		}
	}

	for asset, amount := range spends {
		key := dbaccess.BalanceKey{Owner: tx.Owner, Asset: asset}
		balance, err := stage.balance(key)
		if err != nil {
			return false, err
		}
		stage.balances[key] = balance - amount
	}
	for _, transfer := range tx.Transfers {
		err := stage.credit(dbaccess.BalanceKey{
			Owner: transfer.Destination,
			Asset: *transfer.Asset,
		}, transfer.Amount)
		if err != nil {
			return false, err
		}
	}
	err = stage.credit(minerKey, tx.Fee)
	if err != nil {
		return false, err
	}
	stage.nonces[tx.Owner] = nonce + 1
	return true, nil
}

// applyBlockEffects executes the block assigned to topoHeight against the
// ledger: it mints the reward, applies the block's transactions, and flushes
// one state version per touched key, together with the change record that
// makes the topoheight cheap to roll back.
func (dag *BlockDAG) applyBlockEffects(dbTx *dbaccess.TxContext, overlay *ledgerOverlay,
	commitment *stateMultiset, topoHeight uint64, node *blockNode) error {

	block, err := dbaccess.FetchBlock(dbTx, node.hash)
	if err != nil {
		return err
	}

	reward := dag.params.BlockReward(overlay.supply)
	overlay.supply += reward
	err = dbaccess.StoreSupply(dbTx, node.hash, overlay.supply, reward)
	if err != nil {
		return err
	}

	minerKey := dbaccess.BalanceKey{Owner: block.MinerPublicKey, Asset: *dagconfig.NativeAsset}
	stage := newBlockStage(overlay)
	err = stage.credit(minerKey, reward)
	if err != nil {
		return err
	}

	for _, txHash := range block.TxHashes {
		tx, err := dbaccess.FetchTransaction(dbTx, txHash)
		if err != nil {
			return err
		}
		applied, err := stage.stageTransaction(tx, minerKey)
		if err != nil {
			return err
		}
		if !applied {
			log.Debugf("Transaction %s of block %s does not apply at topoheight %d, skipping",
				txHash, node.hash, topoHeight)
		}
	}

	return dag.flushBlockStage(dbTx, overlay, commitment, topoHeight, node.hash, stage)
}

// flushBlockStage writes the staged effect of one block as state versions at
// topoHeight and records them in the changelog.
func (dag *BlockDAG) flushBlockStage(dbTx *dbaccess.TxContext, overlay *ledgerOverlay,
	commitment *stateMultiset, topoHeight uint64, blockHash *daghash.Hash,
	stage *blockStage) error {

	record := &dbaccess.ChangeRecord{BlockHash: blockHash}

	balanceKeys := make([]dbaccess.BalanceKey, 0, len(stage.balances))
	for key := range stage.balances {
		balanceKeys = append(balanceKeys, key)
	}
	sort.Slice(balanceKeys, func(i, j int) bool {
		cmp := bytes.Compare(balanceKeys[i].Owner[:], balanceKeys[j].Owner[:])
		if cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(balanceKeys[i].Asset[:], balanceKeys[j].Asset[:]) < 0
	})

	for _, key := range balanceKeys {
		balance := stage.balances[key]
		previous, err := overlay.lastBalance(key)
		if err != nil {
			return err
		}
		version := &dbaccess.BalanceVersion{
			Balance:            balance,
			HasPrevious:        previous.exists,
			PreviousTopoHeight: previous.topoHeight,
		}
		err = dbaccess.StoreBalance(dbTx, &key.Owner, &key.Asset, topoHeight, version)
		if err != nil {
			return err
		}
		commitment.AddBalance(&key.Owner, &key.Asset, topoHeight, balance)
		overlay.balances[key] = overlayVersion{exists: true, value: balance, topoHeight: topoHeight}
		record.BalanceKeys = append(record.BalanceKeys, key)
	}

	nonceOwners := make([][32]byte, 0, len(stage.nonces))
	for owner := range stage.nonces {
		nonceOwners = append(nonceOwners, owner)
	}
	sort.Slice(nonceOwners, func(i, j int) bool {
		return bytes.Compare(nonceOwners[i][:], nonceOwners[j][:]) < 0
	})

	for _, owner := range nonceOwners {
		nonce := stage.nonces[owner]
		previous, err := overlay.lastNonce(owner)
		if err != nil {
			return err
		}
		version := &dbaccess.NonceVersion{
			Nonce:              nonce,
			HasPrevious:        previous.exists,
			PreviousTopoHeight: previous.topoHeight,
		}
		err = dbaccess.StoreNonce(dbTx, &owner, topoHeight, version)
		if err != nil {
			return err
		}
		commitment.AddNonce(&owner, topoHeight, nonce)
		overlay.nonces[owner] = overlayVersion{exists: true, value: nonce, topoHeight: topoHeight}
		record.NonceOwners = append(record.NonceOwners, owner)
	}

	return dbaccess.StoreChangeRecord(dbTx, topoHeight, record)
}
