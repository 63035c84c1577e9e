// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpcmodel holds the wire shapes of the JSON-RPC interface: the
// request/response envelope, the per-method parameter structs and the
// per-method result structs.
package rpcmodel

import "encoding/json"

// Request is a JSON-RPC request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// GetBlockTemplateParams requests a block template paying the given
// address. The address must be a normal address.
type GetBlockTemplateParams struct {
	Address string `json:"address"`
}

// GetBlockTemplateResult carries a block ready to be solved.
type GetBlockTemplateResult struct {
	TemplateHex string `json:"template"`
	Height      uint64 `json:"height"`
	Difficulty  string `json:"difficulty"`
}

// SubmitBlockParams carries a solved block in serialized form.
type SubmitBlockParams struct {
	BlockHex string `json:"block_template"`
}

// GetBlockAtTopoHeightParams identifies a block by its position in the
// linear order.
type GetBlockAtTopoHeightParams struct {
	TopoHeight uint64 `json:"topoheight"`
}

// GetBlocksAtHeightParams identifies blocks by their DAG height.
type GetBlocksAtHeightParams struct {
	Height uint64 `json:"height"`
}

// GetBlockByHashParams identifies a block by hash.
type GetBlockByHashParams struct {
	Hash string `json:"hash"`
}

// BlockResult describes one block: its content and everything the order
// derives about it. Topoheight, supply and reward are absent for blocks
// outside the linear order.
type BlockResult struct {
	Hash                 string   `json:"hash"`
	TopoHeight           *uint64  `json:"topoheight"`
	BlockType            string   `json:"block_type"`
	Height               uint64   `json:"height"`
	Timestamp            int64    `json:"timestamp"`
	Bits                 uint32   `json:"bits"`
	Nonce                uint64   `json:"nonce"`
	Miner                string   `json:"miner"`
	Difficulty           string   `json:"difficulty"`
	CumulativeDifficulty string   `json:"cumulative_difficulty"`
	Supply               *uint64  `json:"supply"`
	Reward               *uint64  `json:"reward"`
	Tips                 []string `json:"tips"`
	TxHashes             []string `json:"txs_hashes"`
	TotalSizeInBytes     uint64   `json:"total_size_in_bytes"`
}

// GetBalanceParams requests the latest balance of an account for one asset.
type GetBalanceParams struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
}

// GetBalanceAtTopoHeightParams requests the balance version of an account
// exactly at a topoheight.
type GetBalanceAtTopoHeightParams struct {
	Address    string `json:"address"`
	Asset      string `json:"asset"`
	TopoHeight uint64 `json:"topoheight"`
}

// BalanceResult is one balance version.
type BalanceResult struct {
	Balance            uint64  `json:"balance"`
	TopoHeight         uint64  `json:"topoheight"`
	PreviousTopoHeight *uint64 `json:"previous_topoheight"`
}

// GetNonceParams requests the nonce of an account.
type GetNonceParams struct {
	Address string `json:"address"`
}

// NonceResult is an account nonce.
type NonceResult struct {
	Nonce uint64 `json:"nonce"`
}

// SubmitTransactionParams carries a serialized transaction.
type SubmitTransactionParams struct {
	TxHex string `json:"data"`
}

// GetTransactionParams identifies a transaction by hash.
type GetTransactionParams struct {
	Hash string `json:"hash"`
}

// TransferResult is one transfer of a transaction.
type TransferResult struct {
	Asset       string `json:"asset"`
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
}

// TransactionResult describes a transaction and where it currently lives.
type TransactionResult struct {
	Hash      string           `json:"hash"`
	Owner     string           `json:"owner"`
	Nonce     uint64           `json:"nonce"`
	Fee       uint64           `json:"fee"`
	Transfers []TransferResult `json:"transfers"`
	Signature string           `json:"signature"`
	InMempool bool             `json:"in_mempool"`
}

// GetMempoolResult lists the pool's pending transactions.
type GetMempoolResult struct {
	Count int                 `json:"count"`
	Txs   []TransactionResult `json:"txs"`
}

// P2pStatusResult describes the networking collaborator.
type P2pStatusResult struct {
	PeerCount  int    `json:"peer_count"`
	Tag        string `json:"tag,omitempty"`
	PeerID     uint64 `json:"peer_id"`
	OurHeight  uint64 `json:"our_height"`
	BestHeight uint64 `json:"best_height"`
	MaxPeers   int    `json:"max_peers"`
}

// GetDagOrderParams bounds a window of the linear order. Both bounds are
// optional; when neither is given the window covers the most recent
// MaxDagOrderSpan topoheights, and an absent start with an explicit end
// means from topoheight 0.
type GetDagOrderParams struct {
	StartTopoHeight *uint64 `json:"start_topoheight"`
	EndTopoHeight   *uint64 `json:"end_topoheight"`
}

// MaxDagOrderSpan is the largest distance between the bounds of one
// get_dag_order request, so a window holds at most MaxDagOrderSpan+1
// hashes.
const MaxDagOrderSpan = 64

// GetInfoResult summarizes the node state.
type GetInfoResult struct {
	Height            uint64 `json:"height"`
	TopoHeight        uint64 `json:"topoheight"`
	StableHeight      uint64 `json:"stableheight"`
	TopBlockHash      string `json:"top_block_hash"`
	CirculatingSupply uint64 `json:"circulating_supply"`
	MaximumSupply     uint64 `json:"maximum_supply"`
	Difficulty        string `json:"difficulty"`
	MempoolSize       int    `json:"mempool_size"`
	Version           string `json:"version"`
	Network           string `json:"network"`
}
