// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"

	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/mempool"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

type miningHarness struct {
	t         *testing.T
	dag       *blockdag.BlockDAG
	pool      *mempool.TxPool
	generator *BlkTmplGenerator
}

func newMiningHarness(t *testing.T) (*miningHarness, func()) {
	databaseContext, err := dbaccess.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %s", err)
	}
	dag, err := blockdag.New(&blockdag.Config{
		DAGParams:       &dagconfig.SimnetParams,
		DatabaseContext: databaseContext,
	})
	if err != nil {
		databaseContext.Close()
		t.Fatalf("Failed to create DAG: %s", err)
	}
	pool := mempool.New(&mempool.Config{
		Policy: mempool.Policy{
			MaxTxSize:              1 << 17,
			MinRelayFeePerKilobyte: 100,
		},
		DatabaseContext: databaseContext,
	})
	dag.SetTxPool(pool)

	teardown := func() {
		err := databaseContext.Close()
		if err != nil {
			t.Errorf("Failed to close database: %s", err)
		}
	}
	return &miningHarness{
		t:         t,
		dag:       dag,
		pool:      pool,
		generator: NewBlkTmplGenerator(dag, pool),
	}, teardown
}

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

func createTx(t *testing.T, keyPair *secp256k1.SchnorrKeyPair, owner [32]byte,
	nonce, fee, amount uint64) *wire.MsgTx {

	tx := &wire.MsgTx{
		Version: 1,
		Owner:   owner,
		Nonce:   nonce,
		Fee:     fee,
		Transfers: []*wire.TxTransfer{{
			Asset:       dagconfig.NativeAsset,
			Destination: [32]byte{0xd5},
			Amount:      amount,
		}},
	}
	secpHash := secp256k1.Hash(*tx.SigHash())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		t.Fatalf("Failed to sign transaction: %s", err)
	}
	tx.Signature = *signature.Serialize()
	return tx
}

// mineTemplate builds a template paying minerKey, solves it and submits it.
func (h *miningHarness) mineTemplate(minerKey [32]byte) *BlockTemplate {
	template, err := h.generator.NewBlockTemplate(minerKey)
	if err != nil {
		h.t.Fatalf("NewBlockTemplate: %s", err)
	}
	err = SolveBlock(template.Block, 1<<20)
	if err != nil {
		h.t.Fatalf("SolveBlock: %s", err)
	}
	err = h.dag.ProcessBlock(template.Block, false)
	if err != nil {
		h.t.Fatalf("ProcessBlock rejected the solved template: %s", err)
	}
	return template
}

func TestNewBlockTemplate(t *testing.T) {
	harness, teardown := newMiningHarness(t)
	defer teardown()

	ownerKeyPair, owner := testKeyPair(t)
	_, miner := testKeyPair(t)

	// Fund the owner with a block reward.
	harness.mineTemplate(owner)

	// Admit three spends; the highest fee sits on the highest nonce, so
	// fee-greedy packing alone would break the nonce order.
	fees := []uint64{1000, 2000, 4000}
	var wantFees uint64
	for nonce, fee := range fees {
		tx := createTx(t, ownerKeyPair, owner, uint64(nonce), fee, 100)
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction(nonce %d): %s", nonce, err)
		}
		wantFees += fee
	}

	template, err := harness.generator.NewBlockTemplate(miner)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %s", err)
	}
	if len(template.Txs) != 3 {
		t.Fatalf("template transactions: got %d, want 3", len(template.Txs))
	}
	for i, tx := range template.Txs {
		if tx.Nonce != uint64(i) {
			t.Errorf("template transaction %d carries nonce %d, the owner's "+
				"spends must be packed in nonce order", i, tx.Nonce)
		}
	}
	if template.Fees != wantFees {
		t.Errorf("template fees: got %d, want %d", template.Fees, wantFees)
	}
	if template.Block.Height != harness.dag.NextBlockHeight() {
		t.Errorf("template height: got %d, want %d",
			template.Block.Height, harness.dag.NextBlockHeight())
	}

	// The template must be acceptable once solved, and mining it drains
	// the pool.
	err = SolveBlock(template.Block, 1<<20)
	if err != nil {
		t.Fatalf("SolveBlock: %s", err)
	}
	err = harness.dag.ProcessBlock(template.Block, false)
	if err != nil {
		t.Fatalf("ProcessBlock rejected the solved template: %s", err)
	}
	if harness.pool.Count() != 0 {
		t.Errorf("pool count after mining the template: got %d, want 0", harness.pool.Count())
	}
}

func TestNewBlockTemplateOrdersAcrossOwners(t *testing.T) {
	harness, teardown := newMiningHarness(t)
	defer teardown()

	cheapKeyPair, cheapOwner := testKeyPair(t)
	richKeyPair, richOwner := testKeyPair(t)
	_, miner := testKeyPair(t)
	harness.mineTemplate(cheapOwner)
	harness.mineTemplate(richOwner)

	cheapTx := createTx(t, cheapKeyPair, cheapOwner, 0, 500, 100)
	richTx := createTx(t, richKeyPair, richOwner, 0, 5000, 100)
	for _, tx := range []*wire.MsgTx{cheapTx, richTx} {
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction: %s", err)
		}
	}

	template, err := harness.generator.NewBlockTemplate(miner)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %s", err)
	}
	if len(template.Txs) != 2 {
		t.Fatalf("template transactions: got %d, want 2", len(template.Txs))
	}
	if template.Txs[0].Owner != richOwner {
		t.Errorf("the higher paying owner's spend must pack first")
	}
	if template.Fees != 5500 {
		t.Errorf("template fees: got %d, want 5500", template.Fees)
	}
}

func TestSolveBlock(t *testing.T) {
	block := &wire.MsgBlock{
		Version:      1,
		Height:       1,
		Timestamp:    1_700_000_000,
		Bits:         dagconfig.SimnetParams.PowLimitBits,
		ParentHashes: []*daghash.Hash{dagconfig.SimnetParams.GenesisHash},
	}

	err := SolveBlock(block, 1<<20)
	if err != nil {
		t.Fatalf("SolveBlock: %s", err)
	}
	target := util.CompactToBig(block.Bits)
	if util.HashToBig(block.BlockHash()).Cmp(target) > 0 {
		t.Errorf("the solved block does not satisfy its own target")
	}

	err = SolveBlock(block, 0)
	if err == nil {
		t.Errorf("SolveBlock with no attempts must fail")
	}
}
