// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

const testMaxTxSize = 1 << 17

// poolHarness bundles a pool over a throwaway ledger with helpers for
// creating funded accounts and signed spends.
type poolHarness struct {
	t               *testing.T
	pool            *TxPool
	databaseContext *dbaccess.DatabaseContext
}

func newPoolHarness(t *testing.T) (*poolHarness, func()) {
	databaseContext, err := dbaccess.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %s", err)
	}
	pool := New(&Config{
		Policy: Policy{
			MaxTxSize:              testMaxTxSize,
			MinRelayFeePerKilobyte: 100,
		},
		DatabaseContext: databaseContext,
	})
	teardown := func() {
		err := databaseContext.Close()
		if err != nil {
			t.Errorf("Failed to close database: %s", err)
		}
	}
	return &poolHarness{t: t, pool: pool, databaseContext: databaseContext}, teardown
}

// fundedAccount creates a key pair and writes a ledger balance for it.
func (h *poolHarness) fundedAccount(balance uint64) (*secp256k1.SchnorrKeyPair, [32]byte) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		h.t.Fatalf("Failed to generate a private key: %s", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		h.t.Fatalf("Failed to derive the public key: %s", err)
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		h.t.Fatalf("Failed to serialize the public key: %s", err)
	}
	var owner [32]byte = *serialized

	err = dbaccess.StoreBalance(h.databaseContext.NoTx(), &owner, dagconfig.NativeAsset,
		0, &dbaccess.BalanceVersion{Balance: balance})
	if err != nil {
		h.t.Fatalf("Failed to fund account: %s", err)
	}
	return keyPair, owner
}

// createTx builds a signed native transfer to a fixed destination.
func (h *poolHarness) createTx(keyPair *secp256k1.SchnorrKeyPair, owner [32]byte,
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
		h.t.Fatalf("Failed to sign transaction: %s", err)
	}
	tx.Signature = *signature.Serialize()
	return tx
}

func assertPoolRejection(t *testing.T, err error, wantCode ErrorCode) {
	t.Helper()
	code, ok := ErrorCodeOf(err)
	if !ok {
		t.Fatalf("got %v, want a pool rule error with code %s", err, wantCode)
	}
	if code != wantCode {
		t.Errorf("got code %s, want %s", code, wantCode)
	}
}

func TestProcessTransaction(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(100_000)

	tx := harness.createTx(keyPair, owner, 0, 1000, 5000)
	desc, err := harness.pool.ProcessTransaction(tx, false)
	if err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}
	if desc.Fee != 1000 {
		t.Errorf("descriptor fee: got %d, want 1000", desc.Fee)
	}
	if harness.pool.Count() != 1 {
		t.Errorf("pool count: got %d, want 1", harness.pool.Count())
	}
	fetched, ok := harness.pool.FetchTransaction(tx.TxHash())
	if !ok || !fetched.TxHash().IsEqual(tx.TxHash()) {
		t.Errorf("FetchTransaction did not return the admitted transaction")
	}

	_, err = harness.pool.ProcessTransaction(tx, false)
	assertPoolRejection(t, err, ErrDuplicate)
}

func TestProcessTransactionRejections(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(100_000)

	t.Run("nonce gap", func(t *testing.T) {
		tx := harness.createTx(keyPair, owner, 2, 1000, 5000)
		_, err := harness.pool.ProcessTransaction(tx, false)
		assertPoolRejection(t, err, ErrBadNonce)
	})

	t.Run("insufficient fee rate", func(t *testing.T) {
		tx := harness.createTx(keyPair, owner, 0, 1, 5000)
		_, err := harness.pool.ProcessTransaction(tx, false)
		assertPoolRejection(t, err, ErrInsufficientFee)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		tx := harness.createTx(keyPair, owner, 0, 1000, 200_000)
		_, err := harness.pool.ProcessTransaction(tx, false)
		assertPoolRejection(t, err, ErrInsufficientBalance)
	})

	t.Run("tampered signature", func(t *testing.T) {
		tx := harness.createTx(keyPair, owner, 0, 1000, 5000)
		tx.Transfers[0].Amount = 6000
		_, err := harness.pool.ProcessTransaction(tx, false)
		assertPoolRejection(t, err, ErrInvalid)
	})

	t.Run("no transfers", func(t *testing.T) {
		tx := harness.createTx(keyPair, owner, 0, 1000, 5000)
		tx.Transfers = nil
		_, err := harness.pool.ProcessTransaction(tx, false)
		assertPoolRejection(t, err, ErrInvalid)
	})
}

func TestPendingSpendsReduceSpendableBalance(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(10_000)

	first := harness.createTx(keyPair, owner, 0, 1000, 5000)
	_, err := harness.pool.ProcessTransaction(first, false)
	if err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}

	// 4000 remains spendable; a second transaction needing 5000 must not
	// be admitted even though the ledger balance alone would cover it.
	second := harness.createTx(keyPair, owner, 1, 1000, 4000)
	_, err = harness.pool.ProcessTransaction(second, false)
	assertPoolRejection(t, err, ErrInsufficientBalance)

	third := harness.createTx(keyPair, owner, 1, 1000, 3000)
	_, err = harness.pool.ProcessTransaction(third, false)
	if err != nil {
		t.Fatalf("ProcessTransaction within the remaining balance: %s", err)
	}
}

func TestConsecutiveNonces(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(100_000)

	for nonce := uint64(0); nonce < 3; nonce++ {
		tx := harness.createTx(keyPair, owner, nonce, 1000, 100)
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction(nonce %d): %s", nonce, err)
		}
	}

	// Reusing a pending nonce and leaving a gap both fail.
	reused := harness.createTx(keyPair, owner, 1, 1000, 100)
	_, err := harness.pool.ProcessTransaction(reused, false)
	assertPoolRejection(t, err, ErrBadNonce)

	gap := harness.createTx(keyPair, owner, 5, 1000, 100)
	_, err = harness.pool.ProcessTransaction(gap, false)
	assertPoolRejection(t, err, ErrBadNonce)
}

func TestTxDescsOrdering(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPairA, ownerA := harness.fundedAccount(100_000)
	keyPairB, ownerB := harness.fundedAccount(100_000)
	keyPairC, ownerC := harness.fundedAccount(100_000)

	low := harness.createTx(keyPairA, ownerA, 0, 500, 100)
	high := harness.createTx(keyPairB, ownerB, 0, 5000, 100)
	medium := harness.createTx(keyPairC, ownerC, 0, 2000, 100)
	for _, tx := range []*wire.MsgTx{low, high, medium} {
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction: %s", err)
		}
	}

	descs := harness.pool.TxDescs()
	if len(descs) != 3 {
		t.Fatalf("TxDescs: got %d descriptors, want 3", len(descs))
	}
	for i := 1; i < len(descs); i++ {
		if descs[i].FeePerKilobyte > descs[i-1].FeePerKilobyte {
			t.Errorf("descriptors are not sorted by descending fee rate")
		}
	}
	if !descs[0].Hash.IsEqual(high.TxHash()) {
		t.Errorf("the highest fee transaction must sort first")
	}
}

func TestHandleConnectedBlock(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(100_000)

	first := harness.createTx(keyPair, owner, 0, 1000, 100)
	second := harness.createTx(keyPair, owner, 1, 1000, 100)
	for _, tx := range []*wire.MsgTx{first, second} {
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction: %s", err)
		}
	}

	// A block carried the first transaction: the ledger nonce advances and
	// the pool drops it. The second still follows the ledger nonce, so it
	// stays.
	err := dbaccess.StoreNonce(harness.databaseContext.NoTx(), &owner, 1,
		&dbaccess.NonceVersion{Nonce: 1})
	if err != nil {
		t.Fatalf("StoreNonce: %s", err)
	}
	harness.pool.HandleConnectedBlock([]*wire.MsgTx{first})

	if harness.pool.Count() != 1 {
		t.Fatalf("pool count after connect: got %d, want 1", harness.pool.Count())
	}
	if _, ok := harness.pool.FetchTransaction(first.TxHash()); ok {
		t.Errorf("the mined transaction must leave the pool")
	}
	if _, ok := harness.pool.FetchTransaction(second.TxHash()); !ok {
		t.Errorf("the still-valid follow-up transaction must stay in the pool")
	}

	// The ledger advanced past the second transaction too, through a block
	// the pool never saw. Realignment drops it.
	err = dbaccess.StoreNonce(harness.databaseContext.NoTx(), &owner, 2,
		&dbaccess.NonceVersion{Nonce: 5, HasPrevious: true, PreviousTopoHeight: 1})
	if err != nil {
		t.Fatalf("StoreNonce: %s", err)
	}
	harness.pool.HandleConnectedBlock([]*wire.MsgTx{first})
	if harness.pool.Count() != 0 {
		t.Errorf("pool count after the owner advanced: got %d, want 0", harness.pool.Count())
	}
}

func TestHandleOrphanedTransactions(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPair, owner := harness.fundedAccount(100_000)

	valid := harness.createTx(keyPair, owner, 0, 1000, 100)
	stale := harness.createTx(keyPair, owner, 7, 1000, 100)
	harness.pool.HandleOrphanedTransactions([]*wire.MsgTx{valid, stale})

	if harness.pool.Count() != 1 {
		t.Fatalf("pool count: got %d, want 1", harness.pool.Count())
	}
	if _, ok := harness.pool.FetchTransaction(valid.TxHash()); !ok {
		t.Errorf("the applicable orphaned transaction must be readmitted")
	}
	if _, ok := harness.pool.FetchTransaction(stale.TxHash()); ok {
		t.Errorf("the stale orphaned transaction must be dropped")
	}
}

func TestTxHashesSorted(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	keyPairA, ownerA := harness.fundedAccount(100_000)
	keyPairB, ownerB := harness.fundedAccount(100_000)

	for _, tx := range []*wire.MsgTx{
		harness.createTx(keyPairA, ownerA, 0, 1000, 100),
		harness.createTx(keyPairB, ownerB, 0, 1000, 100),
	} {
		_, err := harness.pool.ProcessTransaction(tx, false)
		if err != nil {
			t.Fatalf("ProcessTransaction: %s", err)
		}
	}

	hashes := harness.pool.TxHashes()
	if len(hashes) != 2 {
		t.Fatalf("TxHashes: got %d hashes, want 2", len(hashes))
	}
	if !daghash.Less(hashes[0], hashes[1]) {
		t.Errorf("TxHashes must be sorted ascending")
	}
}

type recordingRelay struct {
	blocks []*wire.MsgBlock
	txs    []*wire.MsgTx
}

func (r *recordingRelay) RelayBlock(block *wire.MsgBlock) {
	r.blocks = append(r.blocks, block)
}

func (r *recordingRelay) RelayTransaction(tx *wire.MsgTx) {
	r.txs = append(r.txs, tx)
}

func TestTransactionRelay(t *testing.T) {
	harness, teardown := newPoolHarness(t)
	defer teardown()

	relay := &recordingRelay{}
	harness.pool.SetRelay(relay)
	keyPair, owner := harness.fundedAccount(100_000)

	tx := harness.createTx(keyPair, owner, 0, 1000, 5000)
	_, err := harness.pool.ProcessTransaction(tx, true)
	if err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}
	if len(relay.txs) != 1 || !relay.txs[0].TxHash().IsEqual(tx.TxHash()) {
		t.Fatalf("the accepted broadcast transaction must be relayed once, got %d", len(relay.txs))
	}

	// Not flagged for broadcast, so admitted silently.
	quiet := harness.createTx(keyPair, owner, 1, 1000, 5000)
	_, err = harness.pool.ProcessTransaction(quiet, false)
	if err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}
	if len(relay.txs) != 1 {
		t.Errorf("a non-broadcast transaction must not be relayed")
	}

	// Rejected, so never relayed even when flagged.
	gap := harness.createTx(keyPair, owner, 9, 1000, 5000)
	_, err = harness.pool.ProcessTransaction(gap, true)
	assertPoolRejection(t, err, ErrBadNonce)
	if len(relay.txs) != 1 {
		t.Errorf("a rejected transaction must not be relayed")
	}
}
