// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/mempool"
	"github.com/quasarnet/quasard/wire"
)

// BlockTemplate houses a block that is ready to be solved by miners along
// with the transactions it packs.
type BlockTemplate struct {
	// Block is a block that is ready to be solved by miners. The Nonce
	// field is zero; finding a nonce that satisfies Bits is the miner's
	// job.
	Block *wire.MsgBlock

	// Txs are the bodies of the transactions the block carries by hash,
	// in block order.
	Txs []*wire.MsgTx

	// Fees is the total fee the packed transactions pay the miner on top
	// of the block reward.
	Fees uint64
}

// BlkTmplGenerator provides a type that can be used to generate block
// templates extending the current tips of the DAG with transactions drawn
// from the mempool.
type BlkTmplGenerator struct {
	dag    *blockdag.BlockDAG
	txPool *mempool.TxPool
}

// NewBlkTmplGenerator returns a new block template generator for the given
// DAG and transaction pool.
func NewBlkTmplGenerator(dag *blockdag.BlockDAG, txPool *mempool.TxPool) *BlkTmplGenerator {
	return &BlkTmplGenerator{
		dag:    dag,
		txPool: txPool,
	}
}

// NewBlockTemplate builds a block paying minerKey that extends every
// current tip.
//
// Transactions are packed by descending fee rate under the block's size
// budget, while keeping each owner's transactions in nonce order: a
// transaction only becomes eligible once the owner's lower nonces are
// either on the ledger or packed before it. Selection loops until a full
// pass adds nothing.
func (g *BlkTmplGenerator) NewBlockTemplate(minerKey [32]byte) (*BlockTemplate, error) {
	// One snapshot read keeps the header fields mutually consistent if a
	// block is admitted while the template is being assembled.
	parentHashes, height, timestamp, bits := g.dag.NextBlockInfo()
	block := &wire.MsgBlock{
		Version:        1,
		Height:         height,
		Timestamp:      timestamp,
		Bits:           bits,
		MinerPublicKey: minerKey,
		ParentHashes:   parentHashes,
	}

	sizeBudget := g.dag.Params().MaxBlockSize
	size := uint64(block.SerializeSize())

	descs := g.txPool.TxDescs()
	picked := make([]bool, len(descs))
	expectedNonces := make(map[[32]byte]uint64)
	var fees uint64

	// Picks are appended in selection order, so an owner's transactions
	// end up in the block in ascending nonce order even when a later
	// nonce pays a better fee.
	var pickedDescs []*mempool.TxDesc
	for progress := true; progress; {
		progress = false
		for i, desc := range descs {
			if picked[i] {
				continue
			}

			expected, known := expectedNonces[desc.Tx.Owner]
			if !known {
				var err error
				expected, err = g.dag.NonceByOwner(&desc.Tx.Owner)
				if err != nil {
					return nil, err
				}
				expectedNonces[desc.Tx.Owner] = expected
			}
			if desc.Tx.Nonce != expected {
				continue
			}

			txSize := uint64(desc.Tx.SerializeSize()) + 32
			if size+txSize > sizeBudget {
				continue
			}

			picked[i] = true
			progress = true
			size += txSize
			fees += desc.Fee
			expectedNonces[desc.Tx.Owner] = expected + 1
			pickedDescs = append(pickedDescs, desc)
		}
	}

	template := &BlockTemplate{Block: block, Fees: fees}
	for _, desc := range pickedDescs {
		block.TxHashes = append(block.TxHashes, desc.Hash)
		template.Txs = append(template.Txs, desc.Tx)
	}

	log.Debugf("Created block template (height %d, %d transactions, fees %d)",
		block.Height, len(template.Txs), fees)
	return template, nil
}
