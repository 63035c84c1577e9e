// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// testTxSource implements TxPool. It hands transaction bodies to the DAG and
// records the callbacks the DAG makes, so tests can assert on them.
type testTxSource struct {
	txs       map[daghash.Hash]*wire.MsgTx
	connected [][]*wire.MsgTx
	orphaned  [][]*wire.MsgTx
}

func newTestTxSource() *testTxSource {
	return &testTxSource{txs: make(map[daghash.Hash]*wire.MsgTx)}
}

func (s *testTxSource) add(tx *wire.MsgTx) {
	s.txs[*tx.TxHash()] = tx
}

func (s *testTxSource) FetchTransaction(txHash *daghash.Hash) (*wire.MsgTx, bool) {
	tx, ok := s.txs[*txHash]
	return tx, ok
}

func (s *testTxSource) HandleConnectedBlock(txs []*wire.MsgTx) {
	s.connected = append(s.connected, txs)
}

func (s *testTxSource) HandleOrphanedTransactions(txs []*wire.MsgTx) {
	s.orphaned = append(s.orphaned, txs)
}

// testHarness bundles a DAG over a throwaway database with helpers for
// building and submitting blocks.
type testHarness struct {
	t        *testing.T
	dag      *BlockDAG
	txSource *testTxSource
}

func newTestHarness(t *testing.T) (*testHarness, func()) {
	return newTestHarnessWithPath(t, t.TempDir())
}

func newTestHarnessWithPath(t *testing.T, databasePath string) (*testHarness, func()) {
	databaseContext, err := dbaccess.New(databasePath)
	if err != nil {
		t.Fatalf("Failed to open database: %s", err)
	}
	dag, err := New(&Config{
		DAGParams:       &dagconfig.SimnetParams,
		DatabaseContext: databaseContext,
	})
	if err != nil {
		databaseContext.Close()
		t.Fatalf("Failed to create DAG: %s", err)
	}
	txSource := newTestTxSource()
	dag.SetTxPool(txSource)

	teardown := func() {
		err := databaseContext.Close()
		if err != nil {
			t.Errorf("Failed to close database: %s", err)
		}
	}
	return &testHarness{t: t, dag: dag, txSource: txSource}, teardown
}

// solveBlock grinds the block nonce until the block hash satisfies its own
// declared target. On simnet roughly every second attempt succeeds.
func solveBlock(t *testing.T, block *wire.MsgBlock) {
	target := util.CompactToBig(block.Bits)
	for attempt := uint64(0); attempt < 1<<20; attempt++ {
		block.Nonce = attempt
		if util.HashToBig(block.BlockHash()).Cmp(target) <= 0 {
			return
		}
	}
	t.Fatalf("Failed to solve block at height %d", block.Height)
}

// unsolveBlock grinds the block nonce until the block hash misses its own
// declared target, for exercising the proof of work check.
func unsolveBlock(t *testing.T, block *wire.MsgBlock) {
	target := util.CompactToBig(block.Bits)
	for attempt := uint64(0); attempt < 1<<20; attempt++ {
		block.Nonce = attempt
		if util.HashToBig(block.BlockHash()).Cmp(target) > 0 {
			return
		}
	}
	t.Fatalf("Failed to unsolve block at height %d", block.Height)
}

// buildBlock assembles a solved block extending the given parents. The
// transactions are registered with the harness transaction source so the DAG
// can resolve their bodies.
func (h *testHarness) buildBlock(parentHashes []*daghash.Hash, minerKey [32]byte,
	txs []*wire.MsgTx) *wire.MsgBlock {

	h.dag.dagLock.RLock()
	parents := newBlockSet()
	for _, parentHash := range parentHashes {
		node := h.dag.index.LookupNode(parentHash)
		if node == nil {
			h.dag.dagLock.RUnlock()
			h.t.Fatalf("buildBlock: parent %s is not in the DAG", parentHash)
		}
		parents.add(node)
	}
	height := parents.maxHeight() + 1
	timestamp := h.dag.timeSource().Unix()
	if minimum := medianTimestamp(parents) + 1; timestamp < minimum {
		timestamp = minimum
	}
	bits := h.dag.requiredDifficultyForParents(parents)
	h.dag.dagLock.RUnlock()

	block := &wire.MsgBlock{
		Version:        1,
		Height:         height,
		Timestamp:      timestamp,
		Bits:           bits,
		MinerPublicKey: minerKey,
		ParentHashes:   parentHashes,
	}
	for _, tx := range txs {
		h.txSource.add(tx)
		block.TxHashes = append(block.TxHashes, tx.TxHash())
	}
	solveBlock(h.t, block)
	return block
}

// addBlock builds a block extending the given parents, submits it and fails
// the test if the DAG rejects it.
func (h *testHarness) addBlock(parentHashes []*daghash.Hash, minerKey [32]byte,
	txs []*wire.MsgTx) *daghash.Hash {

	block := h.buildBlock(parentHashes, minerKey, txs)
	err := h.dag.ProcessBlock(block, false)
	if err != nil {
		h.t.Fatalf("ProcessBlock rejected block at height %d: %s", block.Height, err)
	}
	return block.BlockHash()
}

// balance returns the owner's native balance, treating an untouched account
// as zero.
func (h *testHarness) balance(owner [32]byte) uint64 {
	balance, _, err := h.dag.BalanceByOwner(&owner, dagconfig.NativeAsset)
	if database.IsNotFoundError(err) {
		return 0
	}
	if err != nil {
		h.t.Fatalf("BalanceByOwner: %s", err)
	}
	return balance
}

// reward returns the reward the ordered block with the given hash minted.
func (h *testHarness) reward(blockHash *daghash.Hash) uint64 {
	info, err := h.dag.BlockInfoByHash(blockHash)
	if err != nil {
		h.t.Fatalf("BlockInfoByHash(%s): %s", blockHash, err)
	}
	if !info.IsOrdered {
		h.t.Fatalf("block %s is not ordered, it minted nothing", blockHash)
	}
	return info.Reward
}

// testKeyPair generates a fresh account key pair and the owner key derived
// from it.
func testKeyPair(t *testing.T) (*secp256k1.SchnorrKeyPair, [32]byte) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("Failed to generate a private key: %s", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		t.Fatalf("Failed to derive the public key: %s", err)
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("Failed to serialize the public key: %s", err)
	}
	return keyPair, *serialized
}

// signTx signs the transaction with the owner's key pair.
func signTx(t *testing.T, keyPair *secp256k1.SchnorrKeyPair, tx *wire.MsgTx) {
	secpHash := secp256k1.Hash(*tx.SigHash())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		t.Fatalf("Failed to sign transaction: %s", err)
	}
	tx.Signature = *signature.Serialize()
}

// createTx builds a signed native-asset transfer.
func createTx(t *testing.T, keyPair *secp256k1.SchnorrKeyPair, owner [32]byte,
	nonce, fee uint64, destination [32]byte, amount uint64) *wire.MsgTx {

	tx := &wire.MsgTx{
		Version: 1,
		Owner:   owner,
		Nonce:   nonce,
		Fee:     fee,
		Transfers: []*wire.TxTransfer{{
			Asset:       dagconfig.NativeAsset,
			Destination: destination,
			Amount:      amount,
		}},
	}
	signTx(t, keyPair, tx)
	return tx
}
