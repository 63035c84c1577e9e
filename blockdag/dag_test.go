// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"testing"

	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

func TestNewDAGBootstrapsFromGenesis(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag

	if dag.Height() != 0 {
		t.Errorf("fresh DAG height: got %d, want 0", dag.Height())
	}
	if dag.TopoHeight() != 0 {
		t.Errorf("fresh DAG topoheight: got %d, want 0", dag.TopoHeight())
	}
	tips := dag.TipHashes()
	if len(tips) != 1 || !tips[0].IsEqual(dagconfig.SimnetParams.GenesisHash) {
		t.Errorf("fresh DAG tips: got %v, want only the genesis hash", tips)
	}

	supply, err := dag.CirculatingSupply()
	if err != nil {
		t.Fatalf("CirculatingSupply: %s", err)
	}
	genesisReward := dagconfig.SimnetParams.BlockReward(0)
	if supply != genesisReward {
		t.Errorf("genesis supply: got %d, want %d", supply, genesisReward)
	}

	info, err := dag.BlockInfoByHash(dagconfig.SimnetParams.GenesisHash)
	if err != nil {
		t.Fatalf("BlockInfoByHash(genesis): %s", err)
	}
	if !info.IsOrdered || info.TopoHeight != 0 {
		t.Errorf("genesis must be ordered at topoheight 0, got ordered=%t topoheight=%d",
			info.IsOrdered, info.TopoHeight)
	}
}

func TestLinearGrowth(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag

	_, miner := testKeyPair(t)

	const blockCount = 5
	hashes := []*daghash.Hash{dagconfig.SimnetParams.GenesisHash}
	for i := 0; i < blockCount; i++ {
		tip := hashes[len(hashes)-1]
		hashes = append(hashes, harness.addBlock([]*daghash.Hash{tip}, miner, nil))
	}

	if dag.Height() != blockCount {
		t.Errorf("height: got %d, want %d", dag.Height(), blockCount)
	}
	if dag.TopoHeight() != blockCount {
		t.Errorf("topoheight: got %d, want %d", dag.TopoHeight(), blockCount)
	}
	for topoHeight, want := range hashes {
		got, err := dag.HashAtTopoHeight(uint64(topoHeight))
		if err != nil {
			t.Fatalf("HashAtTopoHeight(%d): %s", topoHeight, err)
		}
		if !got.IsEqual(want) {
			t.Errorf("HashAtTopoHeight(%d): got %s, want %s", topoHeight, got, want)
		}
	}

	// The miner's balance is exactly the rewards of its blocks; every block
	// must mint less than the one before it.
	var minted uint64
	previousReward := dagconfig.SimnetParams.MaxSupply
	for _, hash := range hashes[1:] {
		reward := harness.reward(hash)
		if reward >= previousReward {
			t.Errorf("block %s minted %d, not below the preceding %d", hash, reward, previousReward)
		}
		previousReward = reward
		minted += reward
	}
	if balance := harness.balance(miner); balance != minted {
		t.Errorf("miner balance: got %d, want %d", balance, minted)
	}

	_, err := dag.HashAtTopoHeight(blockCount + 1)
	if err == nil {
		t.Errorf("HashAtTopoHeight beyond the tip must fail")
	}
}

func TestReorganization(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag
	genesisHash := dagconfig.SimnetParams.GenesisHash

	_, minerA := testKeyPair(t)
	_, minerB := testKeyPair(t)

	a1 := harness.addBlock([]*daghash.Hash{genesisHash}, minerA, nil)
	a2 := harness.addBlock([]*daghash.Hash{a1}, minerA, nil)

	if dag.TopoHeight() != 2 {
		t.Fatalf("topoheight after branch A: got %d, want 2", dag.TopoHeight())
	}
	wantBalanceA := harness.reward(a1) + harness.reward(a2)
	if balance := harness.balance(minerA); balance != wantBalanceA {
		t.Errorf("miner A balance before reorg: got %d, want %d", balance, wantBalanceA)
	}

	// A competing branch of three blocks from genesis accumulates more work
	// than branch A and must take over the order.
	b1 := harness.addBlock([]*daghash.Hash{genesisHash}, minerB, nil)
	b2 := harness.addBlock([]*daghash.Hash{b1}, minerB, nil)
	b3 := harness.addBlock([]*daghash.Hash{b2}, minerB, nil)

	if dag.TopoHeight() != 3 {
		t.Fatalf("topoheight after reorg: got %d, want 3", dag.TopoHeight())
	}
	if !dag.SelectedTipHash().IsEqual(b3) {
		t.Fatalf("selected tip after reorg: got %s, want %s", dag.SelectedTipHash(), b3)
	}
	for topoHeight, want := range []*daghash.Hash{genesisHash, b1, b2, b3} {
		got, err := dag.HashAtTopoHeight(uint64(topoHeight))
		if err != nil {
			t.Fatalf("HashAtTopoHeight(%d): %s", topoHeight, err)
		}
		if !got.IsEqual(want) {
			t.Errorf("HashAtTopoHeight(%d): got %s, want %s", topoHeight, got, want)
		}
	}

	// Branch A dropped out of the order; its rewards were rolled back.
	for _, hash := range []*daghash.Hash{a1, a2} {
		info, err := dag.BlockInfoByHash(hash)
		if err != nil {
			t.Fatalf("BlockInfoByHash(%s): %s", hash, err)
		}
		if info.IsOrdered || info.Type != BlockTypeOrphaned {
			t.Errorf("block %s after reorg: got ordered=%t type=%s, want an orphaned block",
				hash, info.IsOrdered, info.Type)
		}
	}
	if balance := harness.balance(minerA); balance != 0 {
		t.Errorf("miner A balance after reorg: got %d, want 0", balance)
	}
	wantBalanceB := harness.reward(b1) + harness.reward(b2) + harness.reward(b3)
	if balance := harness.balance(minerB); balance != wantBalanceB {
		t.Errorf("miner B balance after reorg: got %d, want %d", balance, wantBalanceB)
	}

	supply, err := dag.CirculatingSupply()
	if err != nil {
		t.Fatalf("CirculatingSupply: %s", err)
	}
	genesisReward := dagconfig.SimnetParams.BlockReward(0)
	if supply != genesisReward+wantBalanceB {
		t.Errorf("supply after reorg: got %d, want %d", supply, genesisReward+wantBalanceB)
	}
}

func TestSideBlockMerge(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag
	genesisHash := dagconfig.SimnetParams.GenesisHash

	_, minerA := testKeyPair(t)
	_, minerS := testKeyPair(t)

	a1 := harness.addBlock([]*daghash.Hash{genesisHash}, minerA, nil)
	a2 := harness.addBlock([]*daghash.Hash{a1}, minerA, nil)
	s1 := harness.addBlock([]*daghash.Hash{genesisHash}, minerS, nil)

	// s1 is outside the past cone of the selected tip a2.
	info, err := dag.BlockInfoByHash(s1)
	if err != nil {
		t.Fatalf("BlockInfoByHash(%s): %s", s1, err)
	}
	if info.IsOrdered {
		t.Fatalf("block %s must not be ordered before being merged", s1)
	}

	// A block extending both tips pulls s1 into the order as a side block.
	merge := harness.addBlock([]*daghash.Hash{a2, s1}, minerS, nil)

	if dag.TopoHeight() != 4 {
		t.Fatalf("topoheight after merge: got %d, want 4", dag.TopoHeight())
	}
	if tips := dag.TipHashes(); len(tips) != 1 || !tips[0].IsEqual(merge) {
		t.Fatalf("tips after merge: got %v, want only %s", tips, merge)
	}

	// The merging block's parents enter the order lighter cone first, so s1
	// sits between genesis and branch A.
	wantOrder := []*daghash.Hash{genesisHash, s1, a1, a2, merge}
	for topoHeight, want := range wantOrder {
		got, err := dag.HashAtTopoHeight(uint64(topoHeight))
		if err != nil {
			t.Fatalf("HashAtTopoHeight(%d): %s", topoHeight, err)
		}
		if !got.IsEqual(want) {
			t.Errorf("HashAtTopoHeight(%d): got %s, want %s", topoHeight, got, want)
		}
	}

	wantTypes := map[daghash.Hash]BlockType{
		*s1:    BlockTypeSide,
		*a1:    BlockTypeNormal,
		*a2:    BlockTypeNormal,
		*merge: BlockTypeNormal,
	}
	for hash, wantType := range wantTypes {
		info, err := dag.BlockInfoByHash(&hash)
		if err != nil {
			t.Fatalf("BlockInfoByHash(%s): %s", &hash, err)
		}
		if !info.IsOrdered {
			t.Errorf("block %s must be ordered after the merge", &hash)
		}
		if info.Type != wantType {
			t.Errorf("block %s type: got %s, want %s", &hash, info.Type, wantType)
		}
	}

	// Everyone keeps their rewards: both branches are in the order now.
	if balance := harness.balance(minerA); balance != harness.reward(a1)+harness.reward(a2) {
		t.Errorf("miner A balance after merge: got %d", balance)
	}
	if balance := harness.balance(minerS); balance != harness.reward(s1)+harness.reward(merge) {
		t.Errorf("miner S balance after merge: got %d", balance)
	}
}

func TestStableDepthClassification(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag

	_, miner := testKeyPair(t)

	tip := dagconfig.SimnetParams.GenesisHash
	blockCount := dagconfig.SimnetParams.StableDepth + 2
	for i := uint64(0); i < blockCount; i++ {
		tip = harness.addBlock([]*daghash.Hash{tip}, miner, nil)
	}

	wantStable := blockCount - dagconfig.SimnetParams.StableDepth
	if dag.StableTopoHeight() != wantStable {
		t.Errorf("stable topoheight: got %d, want %d", dag.StableTopoHeight(), wantStable)
	}

	genesisInfo, err := dag.BlockInfoByHash(dagconfig.SimnetParams.GenesisHash)
	if err != nil {
		t.Fatalf("BlockInfoByHash(genesis): %s", err)
	}
	if genesisInfo.Type != BlockTypeSync {
		t.Errorf("genesis type below the stable topoheight: got %s, want %s",
			genesisInfo.Type, BlockTypeSync)
	}
	tipInfo, err := dag.BlockInfoByHash(tip)
	if err != nil {
		t.Fatalf("BlockInfoByHash(tip): %s", err)
	}
	if tipInfo.Type != BlockTypeNormal {
		t.Errorf("tip type: got %s, want %s", tipInfo.Type, BlockTypeNormal)
	}
}

func TestTransactionsMoveBalances(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag
	genesisHash := dagconfig.SimnetParams.GenesisHash

	ownerKeyPair, owner := testKeyPair(t)
	_, recipient := testKeyPair(t)
	_, miner := testKeyPair(t)

	funding := harness.addBlock([]*daghash.Hash{genesisHash}, owner, nil)
	fundingReward := harness.reward(funding)

	const amount, fee = 1000, 50
	tx := createTx(t, ownerKeyPair, owner, 0, fee, recipient, amount)
	spendBlock := harness.addBlock([]*daghash.Hash{funding}, miner, []*wire.MsgTx{tx})

	if balance := harness.balance(owner); balance != fundingReward-amount-fee {
		t.Errorf("owner balance: got %d, want %d", balance, fundingReward-amount-fee)
	}
	if balance := harness.balance(recipient); balance != amount {
		t.Errorf("recipient balance: got %d, want %d", balance, amount)
	}
	// The miner collects the fee on top of the reward.
	wantMiner := harness.reward(spendBlock) + fee
	if balance := harness.balance(miner); balance != wantMiner {
		t.Errorf("miner balance: got %d, want %d", balance, wantMiner)
	}

	nonce, err := dag.NonceByOwner(&owner)
	if err != nil {
		t.Fatalf("NonceByOwner: %s", err)
	}
	if nonce != 1 {
		t.Errorf("owner nonce: got %d, want 1", nonce)
	}

	stored, err := dag.TransactionByHash(tx.TxHash())
	if err != nil {
		t.Fatalf("TransactionByHash: %s", err)
	}
	if !stored.TxHash().IsEqual(tx.TxHash()) {
		t.Errorf("stored transaction hash mismatch")
	}
	count, err := dag.TransactionCount()
	if err != nil {
		t.Fatalf("TransactionCount: %s", err)
	}
	if count != 1 {
		t.Errorf("transaction count: got %d, want 1", count)
	}

	// The pool was told the transaction is now in the order.
	if len(harness.txSource.connected) != 1 || len(harness.txSource.connected[0]) != 1 {
		t.Errorf("connected callbacks: got %v, want one call with one transaction",
			harness.txSource.connected)
	}
}

func TestBlockRejection(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	dag := harness.dag
	genesisHash := dagconfig.SimnetParams.GenesisHash

	_, miner := testKeyPair(t)
	_, otherMiner := testKeyPair(t)
	tip := harness.addBlock([]*daghash.Hash{genesisHash}, miner, nil)

	assertRejected := func(name string, block *wire.MsgBlock, wantCode ErrorCode) {
		topoBefore := dag.TopoHeight()
		tipsBefore := dag.TipHashes()

		err := dag.ProcessBlock(block, false)
		code, ok := ErrorCodeOf(err)
		if !ok {
			t.Fatalf("%s: got %v, want a rule error with code %s", name, err, wantCode)
		}
		if code != wantCode {
			t.Errorf("%s: got code %s, want %s", name, code, wantCode)
		}

		if dag.TopoHeight() != topoBefore {
			t.Errorf("%s: rejection changed the topoheight", name)
		}
		tipsAfter := dag.TipHashes()
		if len(tipsAfter) != len(tipsBefore) {
			t.Errorf("%s: rejection changed the tips", name)
		}
	}

	duplicate := harness.buildBlock([]*daghash.Hash{genesisHash}, otherMiner, nil)
	if err := dag.ProcessBlock(duplicate, false); err != nil {
		t.Fatalf("setup block was rejected: %s", err)
	}
	assertRejected("duplicate block", duplicate, ErrDuplicateBlock)

	noParents := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	noParents.ParentHashes = nil
	assertRejected("no parents", noParents, ErrNoParents)

	unknownParent := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	unknownParent.ParentHashes = []*daghash.Hash{{0xde, 0xad, 0xbe, 0xef}}
	solveBlock(t, unknownParent)
	assertRejected("unknown parent", unknownParent, ErrParentBlockUnknown)

	badHeight := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	badHeight.Height += 7
	solveBlock(t, badHeight)
	assertRejected("wrong height", badHeight, ErrInvalidBlockHeight)

	tooOld := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	tooOld.Timestamp = dagconfig.SimnetParams.GenesisBlock.Timestamp
	solveBlock(t, tooOld)
	assertRejected("timestamp too old", tooOld, ErrTimeTooOld)

	tooNew := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	tooNew.Timestamp = dag.Now().Add(dagconfig.SimnetParams.FutureTimeLimit).Unix() + 60
	solveBlock(t, tooNew)
	assertRejected("timestamp too new", tooNew, ErrTimeTooNew)

	badBits := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	badBits.Bits = dagconfig.SimnetParams.PowLimitBits - 1
	solveBlock(t, badBits)
	assertRejected("unexpected difficulty", badBits, ErrUnexpectedDifficulty)

	unsolved := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	unsolveBlock(t, unsolved)
	assertRejected("insufficient proof of work", unsolved, ErrInsufficientDifficulty)

	missingTx := harness.buildBlock([]*daghash.Hash{tip}, miner, nil)
	missingTx.TxHashes = []*daghash.Hash{{0x01}}
	solveBlock(t, missingTx)
	assertRejected("unresolvable transaction", missingTx, ErrMissingTxData)
}

func TestBlockRejectsInvalidTransactions(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	genesisHash := dagconfig.SimnetParams.GenesisHash

	ownerKeyPair, owner := testKeyPair(t)
	_, recipient := testKeyPair(t)
	_, miner := testKeyPair(t)

	funding := harness.addBlock([]*daghash.Hash{genesisHash}, owner, nil)
	fundingReward := harness.reward(funding)

	assertRejected := func(name string, tx *wire.MsgTx) {
		block := harness.buildBlock([]*daghash.Hash{funding}, miner, []*wire.MsgTx{tx})
		err := harness.dag.ProcessBlock(block, false)
		if code, ok := ErrorCodeOf(err); !ok || code != ErrInvalidTransaction {
			t.Errorf("%s: got %v, want code %s", name, err, ErrInvalidTransaction)
		}
	}

	assertRejected("wrong nonce",
		createTx(t, ownerKeyPair, owner, 3, 50, recipient, 1000))
	assertRejected("insufficient balance",
		createTx(t, ownerKeyPair, owner, 0, 50, recipient, fundingReward))

	tampered := createTx(t, ownerKeyPair, owner, 0, 50, recipient, 1000)
	tampered.Transfers[0].Amount = 2000
	assertRejected("tampered signature", tampered)
}

func TestOrphanedBlockTransactionsReturnToPool(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()
	genesisHash := dagconfig.SimnetParams.GenesisHash

	ownerKeyPair, owner := testKeyPair(t)
	_, recipient := testKeyPair(t)
	_, minerB := testKeyPair(t)

	funding := harness.addBlock([]*daghash.Hash{genesisHash}, owner, nil)
	tx := createTx(t, ownerKeyPair, owner, 0, 50, recipient, 1000)
	harness.addBlock([]*daghash.Hash{funding}, owner, []*wire.MsgTx{tx})

	// A heavier competing branch orphans the two blocks above; the DAG must
	// offer the spend back to the pool.
	b1 := harness.addBlock([]*daghash.Hash{genesisHash}, minerB, nil)
	b2 := harness.addBlock([]*daghash.Hash{b1}, minerB, nil)
	b3 := harness.addBlock([]*daghash.Hash{b2}, minerB, nil)
	if !harness.dag.SelectedTipHash().IsEqual(b3) {
		t.Fatalf("branch B did not take over the order")
	}

	found := false
	for _, txs := range harness.txSource.orphaned {
		for _, orphanedTx := range txs {
			if orphanedTx.TxHash().IsEqual(tx.TxHash()) {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("the orphaned spend was not offered back to the pool")
	}
	if balance := harness.balance(recipient); balance != 0 {
		t.Errorf("recipient balance after reorg: got %d, want 0", balance)
	}
}

func TestDAGReload(t *testing.T) {
	databasePath := t.TempDir()

	harness, teardown := newTestHarnessWithPath(t, databasePath)
	_, miner := testKeyPair(t)
	_, sideMiner := testKeyPair(t)
	genesisHash := dagconfig.SimnetParams.GenesisHash

	a1 := harness.addBlock([]*daghash.Hash{genesisHash}, miner, nil)
	a2 := harness.addBlock([]*daghash.Hash{a1}, miner, nil)
	s1 := harness.addBlock([]*daghash.Hash{genesisHash}, sideMiner, nil)
	merge := harness.addBlock([]*daghash.Hash{a2, s1}, miner, nil)

	wantTopoHeight := harness.dag.TopoHeight()
	wantTips := harness.dag.TipHashes()
	wantCommitment := harness.dag.StateCommitment()
	wantBalance := harness.balance(miner)
	teardown()

	reloaded, teardown := newTestHarnessWithPath(t, databasePath)
	defer teardown()
	dag := reloaded.dag

	if dag.TopoHeight() != wantTopoHeight {
		t.Errorf("reloaded topoheight: got %d, want %d", dag.TopoHeight(), wantTopoHeight)
	}
	gotTips := dag.TipHashes()
	if len(gotTips) != len(wantTips) {
		t.Fatalf("reloaded tips: got %v, want %v", gotTips, wantTips)
	}
	for i, tip := range wantTips {
		if !gotTips[i].IsEqual(tip) {
			t.Errorf("reloaded tip %d: got %s, want %s", i, gotTips[i], tip)
		}
	}
	if !dag.StateCommitment().IsEqual(wantCommitment) {
		t.Errorf("reloaded state commitment: got %s, want %s",
			dag.StateCommitment(), wantCommitment)
	}
	if balance := reloaded.balance(miner); balance != wantBalance {
		t.Errorf("reloaded miner balance: got %d, want %d", balance, wantBalance)
	}
	for topoHeight, want := range []*daghash.Hash{genesisHash, s1, a1, a2, merge} {
		got, err := dag.HashAtTopoHeight(uint64(topoHeight))
		if err != nil {
			t.Fatalf("HashAtTopoHeight(%d) after reload: %s", topoHeight, err)
		}
		if !got.IsEqual(want) {
			t.Errorf("HashAtTopoHeight(%d) after reload: got %s, want %s", topoHeight, got, want)
		}
	}

	// The reloaded DAG keeps accepting blocks.
	reloaded.addBlock([]*daghash.Hash{merge}, miner, nil)
	if dag.TopoHeight() != wantTopoHeight+1 {
		t.Errorf("topoheight after post-reload block: got %d, want %d",
			dag.TopoHeight(), wantTopoHeight+1)
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

func TestBlockRelay(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()

	relay := &recordingRelay{}
	harness.dag.SetRelay(relay)
	_, miner := testKeyPair(t)

	// A broadcast admission announces the block.
	block := harness.buildBlock([]*daghash.Hash{harness.dag.Params().GenesisHash}, miner, nil)
	err := harness.dag.ProcessBlock(block, true)
	if err != nil {
		t.Fatalf("ProcessBlock: %s", err)
	}
	if len(relay.blocks) != 1 || !relay.blocks[0].BlockHash().IsEqual(block.BlockHash()) {
		t.Fatalf("the accepted broadcast block must be relayed once, got %d", len(relay.blocks))
	}

	// A non-broadcast admission stays quiet.
	_, otherMiner := testKeyPair(t)
	quiet := harness.buildBlock([]*daghash.Hash{block.BlockHash()}, otherMiner, nil)
	err = harness.dag.ProcessBlock(quiet, false)
	if err != nil {
		t.Fatalf("ProcessBlock: %s", err)
	}
	if len(relay.blocks) != 1 {
		t.Errorf("a non-broadcast block must not be relayed")
	}

	// A rejected block is never announced.
	err = harness.dag.ProcessBlock(quiet, true)
	if err == nil {
		t.Fatalf("ProcessBlock accepted a duplicate block")
	}
	if len(relay.blocks) != 1 {
		t.Errorf("a rejected block must not be relayed")
	}
}

func TestNextBlockInfoMatchesAccessors(t *testing.T) {
	harness, teardown := newTestHarness(t)
	defer teardown()

	// Two tips, so the parent set and height derivation are non-trivial.
	_, miner := testKeyPair(t)
	_, sideMiner := testKeyPair(t)
	genesisHash := harness.dag.Params().GenesisHash
	chainTip := harness.addBlock([]*daghash.Hash{genesisHash}, miner, nil)
	harness.addBlock([]*daghash.Hash{chainTip}, miner, nil)
	harness.addBlock([]*daghash.Hash{genesisHash}, sideMiner, nil)

	parents, height, timestamp, bits := harness.dag.NextBlockInfo()
	if !daghash.AreEqual(parents, harness.dag.TipHashes()) {
		t.Errorf("snapshot parents: got %v, want the current tips", daghash.Strings(parents))
	}
	if height != harness.dag.NextBlockHeight() {
		t.Errorf("snapshot height: got %d, want %d", height, harness.dag.NextBlockHeight())
	}
	if bits != harness.dag.NextRequiredDifficulty() {
		t.Errorf("snapshot bits: got %08x, want %08x", bits, harness.dag.NextRequiredDifficulty())
	}
	if delta := harness.dag.NextBlockTime() - timestamp; delta < 0 || delta > 1 {
		t.Errorf("snapshot timestamp %d disagrees with NextBlockTime by %d", timestamp, delta)
	}
}
