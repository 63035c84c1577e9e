// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"fmt"
	"sort"

	"github.com/kaspanet/go-secp256k1"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// checkBlockSanity performs the context-free validity checks of a block.
func (dag *BlockDAG) checkBlockSanity(block *wire.MsgBlock) error {
	if len(block.ParentHashes) == 0 {
		return ruleError(ErrNoParents, "block has no parents")
	}
	if len(block.ParentHashes) > wire.MaxBlockParents {
		return ruleError(ErrTooManyParents,
			fmt.Sprintf("block references %d parents, limit is %d",
				len(block.ParentHashes), wire.MaxBlockParents))
	}
	seenParents := make(map[daghash.Hash]struct{}, len(block.ParentHashes))
	for _, parentHash := range block.ParentHashes {
		if _, seen := seenParents[*parentHash]; seen {
			return ruleError(ErrDuplicateParents,
				fmt.Sprintf("block references parent %s more than once", parentHash))
		}
		seenParents[*parentHash] = struct{}{}
	}

	if len(block.TxHashes) > wire.MaxTxsPerBlock {
		return ruleError(ErrTooManyTransactions,
			fmt.Sprintf("block carries %d transactions, limit is %d",
				len(block.TxHashes), wire.MaxTxsPerBlock))
	}
	seenTxs := make(map[daghash.Hash]struct{}, len(block.TxHashes))
	for _, txHash := range block.TxHashes {
		if _, seen := seenTxs[*txHash]; seen {
			return ruleError(ErrDuplicateTx,
				fmt.Sprintf("block includes transaction %s more than once", txHash))
		}
		seenTxs[*txHash] = struct{}{}
	}

	futureLimit := dag.timeSource().Add(dag.params.FutureTimeLimit).Unix()
	if block.Timestamp > futureLimit {
		return ruleError(ErrTimeTooNew,
			fmt.Sprintf("block timestamp %d is too far in the future", block.Timestamp))
	}
	return nil
}

// medianTimestamp returns the median of the timestamps of a set of blocks.
func medianTimestamp(nodes blockSet) int64 {
	timestamps := make([]int64, 0, len(nodes))
	for node := range nodes {
		timestamps = append(timestamps, node.timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps[len(timestamps)/2]
}

// checkBlockContext performs the validity checks that depend on the block's
// position within the DAG: its declared height, its timestamp relative to
// its parents, and the difficulty the retargeting rules demand of it.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) checkBlockContext(block *wire.MsgBlock, parents blockSet) error {
	expectedHeight := parents.maxHeight() + 1
	if block.Height != expectedHeight {
		return ruleError(ErrInvalidBlockHeight,
			fmt.Sprintf("block declares height %d, expected %d", block.Height, expectedHeight))
	}

	if median := medianTimestamp(parents); block.Timestamp <= median {
		return ruleError(ErrTimeTooOld,
			fmt.Sprintf("block timestamp %d is not after the median parent timestamp %d",
				block.Timestamp, median))
	}

	expectedBits := dag.requiredDifficultyForParents(parents)
	if block.Bits != expectedBits {
		return ruleError(ErrUnexpectedDifficulty,
			fmt.Sprintf("block difficulty of %08x is not the expected value of %08x",
				block.Bits, expectedBits))
	}
	return nil
}

// checkProofOfWork ensures the block hash is less than or equal to the
// target encoded in the block's difficulty bits. The bits themselves are
// validated against the retargeting rules by checkBlockContext.
func (dag *BlockDAG) checkProofOfWork(block *wire.MsgBlock) error {
	target := util.CompactToBig(block.Bits)
	if target.Sign() <= 0 || target.Cmp(dag.params.PowLimit) > 0 {
		return ruleError(ErrUnexpectedDifficulty,
			fmt.Sprintf("block target difficulty of %064x is out of range", target))
	}

	hashNum := util.HashToBig(block.BlockHash())
	if hashNum.Cmp(target) > 0 {
		return ruleError(ErrInsufficientDifficulty,
			fmt.Sprintf("block hash of %064x is higher than expected max of %064x",
				hashNum, target))
	}
	return nil
}

// CheckTransactionSanity performs the context-free validity checks of a
// transaction. A transaction must carry at least one transfer, and its
// per-asset totals must not overflow.
func CheckTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.Transfers) == 0 {
		return ruleError(ErrInvalidTransaction, "transaction has no transfers")
	}
	if len(tx.Transfers) > wire.MaxTransfersPerTx {
		return ruleError(ErrInvalidTransaction,
			fmt.Sprintf("transaction carries %d transfers, limit is %d",
				len(tx.Transfers), wire.MaxTransfersPerTx))
	}
	for _, transfer := range tx.Transfers {
		if transfer.Amount == 0 {
			return ruleError(ErrInvalidTransaction, "transaction transfers a zero amount")
		}
	}
	if _, err := tx.TotalSpend(); err != nil {
		return ruleError(ErrInvalidTransaction, err.Error())
	}
	return nil
}

// CheckTransactionSignature verifies the Schnorr signature of a transaction
// against the owner's public key over the transaction's signing hash.
func CheckTransactionSignature(tx *wire.MsgTx) error {
	pubKey, err := secp256k1.DeserializeSchnorrPubKey(tx.Owner[:])
	if err != nil {
		return ruleError(ErrInvalidTransaction,
			fmt.Sprintf("transaction owner key is not a valid public key: %s", err))
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(tx.Signature[:])
	if err != nil {
		return ruleError(ErrInvalidTransaction,
			fmt.Sprintf("transaction carries a malformed signature: %s", err))
	}
	secpHash := secp256k1.Hash(*tx.SigHash())
	if !pubKey.SchnorrVerify(&secpHash, signature) {
		return ruleError(ErrInvalidTransaction, "transaction signature is invalid")
	}
	return nil
}

// checkBlockTransactions validates the transactions of an incoming block
// against the current ledger: signatures, per-owner nonce continuity and
// balance sufficiency, all evaluated cumulatively in block order.
//
// This function MUST be called with the DAG lock held (for reads).
func (dag *BlockDAG) checkBlockTransactions(block *wire.MsgBlock, txs []*wire.MsgTx) error {
	balances := make(map[dbaccess.BalanceKey]uint64)
	nonces := make(map[[32]byte]uint64)

	balance := func(key dbaccess.BalanceKey) (uint64, error) {
		if b, ok := balances[key]; ok {
			return b, nil
		}
		b, err := dag.balanceByOwnerNoLock(&key.Owner, &key.Asset)
		if err != nil {
			return 0, err
		}
		return b, nil
	}

	for i, tx := range txs {
		err := CheckTransactionSanity(tx)
		if err != nil {
			return err
		}
		err = CheckTransactionSignature(tx)
		if err != nil {
			return err
		}

		expectedNonce, ok := nonces[tx.Owner]
		if !ok {
			expectedNonce, err = dag.nonceByOwnerNoLock(&tx.Owner)
			if err != nil {
				return err
			}
		}
		if tx.Nonce != expectedNonce {
			return ruleError(ErrInvalidTransaction,
				fmt.Sprintf("transaction %d carries nonce %d, expected %d",
					i, tx.Nonce, expectedNonce))
		}
		nonces[tx.Owner] = expectedNonce + 1

		spends, err := tx.TotalSpend()
		if err != nil {
			return ruleError(ErrInvalidTransaction, err.Error())
		}
		nativeSpend := spends[*dagconfig.NativeAsset]
		if nativeSpend+tx.Fee < nativeSpend {
			return ruleError(ErrInvalidTransaction, "transaction spend overflows with fee")
		}
		spends[*dagconfig.NativeAsset] = nativeSpend + tx.Fee

		for asset, amount := range spends {
			key := dbaccess.BalanceKey{Owner: tx.Owner, Asset: asset}
			available, err := balance(key)
			if err != nil {
				return err
			}
			if available < amount {
				return ruleError(ErrInvalidTransaction,
					fmt.Sprintf("transaction %d spends %d of asset %s, account has %d",
						i, amount, asset, available))
			}
			balances[key] = available - amount
		}
		for _, transfer := range tx.Transfers {
			key := dbaccess.BalanceKey{Owner: transfer.Destination, Asset: *transfer.Asset}
			available, err := balance(key)
			if err != nil {
				return err
			}
			balances[key] = available + transfer.Amount
		}
	}
	return nil
}
