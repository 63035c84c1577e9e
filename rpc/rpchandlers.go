// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/dagconfig"
	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/mempool"
	"github.com/quasarnet/quasard/rpcmodel"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/version"
	"github.com/quasarnet/quasard/wire"
)

type commandHandler func(s *Server, params json.RawMessage) (interface{}, error)

// rpcHandlers maps RPC method names to handler functions.
var rpcHandlers = map[string]commandHandler{
	"get_info":                  handleGetInfo,
	"get_height":                handleGetHeight,
	"get_topoheight":            handleGetTopoHeight,
	"get_stableheight":          handleGetStableHeight,
	"get_block_template":        handleGetBlockTemplate,
	"submit_block":              handleSubmitBlock,
	"get_block_at_topoheight":   handleGetBlockAtTopoHeight,
	"get_blocks_at_height":      handleGetBlocksAtHeight,
	"get_block_by_hash":         handleGetBlockByHash,
	"get_top_block":             handleGetTopBlock,
	"get_last_balance":          handleGetLastBalance,
	"get_balance_at_topoheight": handleGetBalanceAtTopoHeight,
	"get_nonce":                 handleGetNonce,
	"get_assets":                handleGetAssets,
	"count_transactions":        handleCountTransactions,
	"submit_transaction":        handleSubmitTransaction,
	"get_transaction":           handleGetTransaction,
	"p2p_status":                handleP2pStatus,
	"get_mempool":               handleGetMempool,
	"get_tips":                  handleGetTips,
	"get_dag_order":             handleGetDagOrder,
}

func handleGetInfo(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}

	dagParams := s.cfg.DAG.Params()
	supply, err := s.cfg.DAG.CirculatingSupply()
	if err != nil {
		return nil, err
	}
	topHash, err := s.cfg.DAG.HashAtTopoHeight(s.cfg.DAG.TopoHeight())
	if err != nil {
		return nil, err
	}
	return &rpcmodel.GetInfoResult{
		Height:            s.cfg.DAG.Height(),
		TopoHeight:        s.cfg.DAG.TopoHeight(),
		StableHeight:      s.cfg.DAG.StableHeight(),
		TopBlockHash:      topHash.String(),
		CirculatingSupply: supply,
		MaximumSupply:     dagParams.MaxSupply,
		Difficulty:        util.CompactToBig(s.cfg.DAG.NextRequiredDifficulty()).String(),
		MempoolSize:       s.cfg.TxPool.Count(),
		Version:           version.Version(),
		Network:           dagParams.Name,
	}, nil
}

func handleGetHeight(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}
	return s.cfg.DAG.Height(), nil
}

func handleGetTopoHeight(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}
	return s.cfg.DAG.TopoHeight(), nil
}

func handleGetStableHeight(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}
	return s.cfg.DAG.StableHeight(), nil
}

func handleGetBlockTemplate(s *Server, params json.RawMessage) (interface{}, error) {
	var templateParams rpcmodel.GetBlockTemplateParams
	if rpcErr := unmarshalParams(params, &templateParams); rpcErr != nil {
		return nil, rpcErr
	}

	addressString := templateParams.Address
	if addressString == "" {
		if s.cfg.DefaultMiningAddress == "" {
			return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
				"no address given and the node has no mining address configured")
		}
		addressString = s.cfg.DefaultMiningAddress
	}
	address, err := util.DecodeAddress(addressString)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to decode address: "+err.Error())
	}
	if !address.IsNormal() {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCExpectedNormalAddress,
			"block templates only pay normal addresses")
	}

	template, err := s.cfg.TemplateGenerator.NewBlockTemplate(address.PublicKey())
	if err != nil {
		return nil, err
	}
	blockBytes, err := template.Block.Bytes()
	if err != nil {
		return nil, err
	}
	return &rpcmodel.GetBlockTemplateResult{
		TemplateHex: hex.EncodeToString(blockBytes),
		Height:      template.Block.Height,
		Difficulty:  util.CompactToBig(template.Block.Bits).String(),
	}, nil
}

func handleSubmitBlock(s *Server, params json.RawMessage) (interface{}, error) {
	var submitParams rpcmodel.SubmitBlockParams
	if rpcErr := unmarshalParams(params, &submitParams); rpcErr != nil {
		return nil, rpcErr
	}

	blockBytes, err := hex.DecodeString(submitParams.BlockHex)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"block is not valid hex: "+err.Error())
	}
	block := &wire.MsgBlock{}
	err = block.Deserialize(bytes.NewReader(blockBytes))
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to deserialize block: "+err.Error())
	}

	err = s.cfg.DAG.ProcessBlock(block, true)
	if err != nil {
		if _, ok := blockdag.ErrorCodeOf(err); ok {
			return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
				"block rejected: "+err.Error())
		}
		return nil, err
	}
	return true, nil
}

func handleGetBlockAtTopoHeight(s *Server, params json.RawMessage) (interface{}, error) {
	var topoParams rpcmodel.GetBlockAtTopoHeightParams
	if rpcErr := unmarshalParams(params, &topoParams); rpcErr != nil {
		return nil, rpcErr
	}

	info, err := s.cfg.DAG.BlockInfoAtTopoHeight(topoParams.TopoHeight)
	if database.IsNotFoundError(err) {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNotFound,
			fmt.Sprintf("no block at topoheight %d", topoParams.TopoHeight))
	}
	if err != nil {
		return nil, err
	}
	return blockResult(info), nil
}

func handleGetBlocksAtHeight(s *Server, params json.RawMessage) (interface{}, error) {
	var heightParams rpcmodel.GetBlocksAtHeightParams
	if rpcErr := unmarshalParams(params, &heightParams); rpcErr != nil {
		return nil, rpcErr
	}

	hashes, err := s.cfg.DAG.BlockHashesAtHeight(heightParams.Height)
	if err != nil {
		return nil, err
	}
	results := make([]*rpcmodel.BlockResult, 0, len(hashes))
	for _, hash := range hashes {
		info, err := s.cfg.DAG.BlockInfoByHash(hash)
		if err != nil {
			return nil, err
		}
		results = append(results, blockResult(info))
	}
	return results, nil
}

func handleGetBlockByHash(s *Server, params json.RawMessage) (interface{}, error) {
	var hashParams rpcmodel.GetBlockByHashParams
	if rpcErr := unmarshalParams(params, &hashParams); rpcErr != nil {
		return nil, rpcErr
	}

	hash, err := daghash.NewHashFromStr(hashParams.Hash)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to parse hash: "+err.Error())
	}
	info, err := s.cfg.DAG.BlockInfoByHash(hash)
	if database.IsNotFoundError(err) {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNotFound,
			fmt.Sprintf("block %s not found", hash))
	}
	if err != nil {
		return nil, err
	}
	return blockResult(info), nil
}

func handleGetTopBlock(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}

	info, err := s.cfg.DAG.BlockInfoAtTopoHeight(s.cfg.DAG.TopoHeight())
	if err != nil {
		return nil, err
	}
	return blockResult(info), nil
}

func handleGetLastBalance(s *Server, params json.RawMessage) (interface{}, error) {
	var balanceParams rpcmodel.GetBalanceParams
	if rpcErr := unmarshalParams(params, &balanceParams); rpcErr != nil {
		return nil, rpcErr
	}
	owner, asset, rpcErr := decodeAccountParams(balanceParams.Address, balanceParams.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}

	_, topoHeight, err := s.cfg.DAG.BalanceByOwner(&owner, asset)
	if database.IsNotFoundError(err) {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNotFound,
			"account has no balance for this asset")
	}
	if err != nil {
		return nil, err
	}
	version, err := s.cfg.DAG.BalanceAtTopoHeight(&owner, asset, topoHeight)
	if err != nil {
		return nil, err
	}
	return balanceResult(version, topoHeight), nil
}

func handleGetBalanceAtTopoHeight(s *Server, params json.RawMessage) (interface{}, error) {
	var balanceParams rpcmodel.GetBalanceAtTopoHeightParams
	if rpcErr := unmarshalParams(params, &balanceParams); rpcErr != nil {
		return nil, rpcErr
	}
	owner, asset, rpcErr := decodeAccountParams(balanceParams.Address, balanceParams.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if balanceParams.TopoHeight > s.cfg.DAG.TopoHeight() {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
			fmt.Sprintf("topoheight %d is above the current topoheight",
				balanceParams.TopoHeight))
	}
	version, err := s.cfg.DAG.BalanceAtTopoHeight(&owner, asset, balanceParams.TopoHeight)
	if database.IsNotFoundError(err) {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNotFound,
			fmt.Sprintf("account has no balance version at topoheight %d",
				balanceParams.TopoHeight))
	}
	if err != nil {
		return nil, err
	}
	return balanceResult(version, balanceParams.TopoHeight), nil
}

func handleGetNonce(s *Server, params json.RawMessage) (interface{}, error) {
	var nonceParams rpcmodel.GetNonceParams
	if rpcErr := unmarshalParams(params, &nonceParams); rpcErr != nil {
		return nil, rpcErr
	}

	address, err := util.DecodeAddress(nonceParams.Address)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to decode address: "+err.Error())
	}
	owner := address.PublicKey()
	nonce, err := s.cfg.DAG.NonceByOwner(&owner)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.NonceResult{Nonce: nonce}, nil
}

func handleGetAssets(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}

	assets, err := s.cfg.DAG.Assets()
	if err != nil {
		return nil, err
	}
	return daghash.Strings(assets), nil
}

func handleCountTransactions(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}
	count, err := s.cfg.DAG.TransactionCount()
	if err != nil {
		return nil, err
	}
	return count, nil
}

func handleSubmitTransaction(s *Server, params json.RawMessage) (interface{}, error) {
	var submitParams rpcmodel.SubmitTransactionParams
	if rpcErr := unmarshalParams(params, &submitParams); rpcErr != nil {
		return nil, rpcErr
	}

	txBytes, err := hex.DecodeString(submitParams.TxHex)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"transaction is not valid hex: "+err.Error())
	}
	tx := &wire.MsgTx{}
	err = tx.Deserialize(bytes.NewReader(txBytes))
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to deserialize transaction: "+err.Error())
	}

	_, err = s.cfg.TxPool.ProcessTransaction(tx, true)
	if err != nil {
		if _, ok := mempool.ErrorCodeOf(err); ok {
			return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
				"transaction rejected: "+err.Error())
		}
		return nil, err
	}
	return tx.TxHash().String(), nil
}

func handleGetTransaction(s *Server, params json.RawMessage) (interface{}, error) {
	var txParams rpcmodel.GetTransactionParams
	if rpcErr := unmarshalParams(params, &txParams); rpcErr != nil {
		return nil, rpcErr
	}

	hash, err := daghash.NewHashFromStr(txParams.Hash)
	if err != nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to parse hash: "+err.Error())
	}

	if tx, ok := s.cfg.TxPool.FetchTransaction(hash); ok {
		return transactionResult(tx, true), nil
	}
	tx, err := s.cfg.DAG.TransactionByHash(hash)
	if database.IsNotFoundError(err) {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNotFound,
			fmt.Sprintf("transaction %s not found", hash))
	}
	if err != nil {
		return nil, err
	}
	return transactionResult(tx, false), nil
}

func handleP2pStatus(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}

	if s.cfg.P2P == nil {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCNoP2p,
			"node is running without p2p")
	}
	return &rpcmodel.P2pStatusResult{
		PeerCount:  s.cfg.P2P.PeerCount(),
		Tag:        s.cfg.P2P.Tag(),
		PeerID:     s.cfg.P2P.PeerID(),
		OurHeight:  s.cfg.DAG.Height(),
		BestHeight: s.cfg.P2P.BestHeight(),
		MaxPeers:   s.cfg.P2P.MaxPeers(),
	}, nil
}

func handleGetMempool(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}

	descs := s.cfg.TxPool.TxDescs()
	result := &rpcmodel.GetMempoolResult{
		Count: len(descs),
		Txs:   make([]rpcmodel.TransactionResult, 0, len(descs)),
	}
	for _, desc := range descs {
		result.Txs = append(result.Txs, *transactionResult(desc.Tx, true))
	}
	return result, nil
}

func handleGetTips(s *Server, params json.RawMessage) (interface{}, error) {
	if rpcErr := requireNullParams(params); rpcErr != nil {
		return nil, rpcErr
	}
	return daghash.Strings(s.cfg.DAG.TipHashes()), nil
}

func handleGetDagOrder(s *Server, params json.RawMessage) (interface{}, error) {
	var orderParams rpcmodel.GetDagOrderParams
	if len(params) != 0 && !bytes.Equal(bytes.TrimSpace(params), jsonNull) {
		if rpcErr := unmarshalParams(params, &orderParams); rpcErr != nil {
			return nil, rpcErr
		}
	}

	currentTopoHeight := s.cfg.DAG.TopoHeight()
	end := currentTopoHeight
	if orderParams.EndTopoHeight != nil {
		end = *orderParams.EndTopoHeight
	}
	// Start only defaults to a trailing window when no bound at all was
	// given; an explicit end with no start means "from the beginning".
	var start uint64
	if orderParams.StartTopoHeight != nil {
		start = *orderParams.StartTopoHeight
	} else if orderParams.EndTopoHeight == nil && currentTopoHeight > rpcmodel.MaxDagOrderSpan {
		start = currentTopoHeight - rpcmodel.MaxDagOrderSpan
	}

	if end > currentTopoHeight {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
			fmt.Sprintf("end topoheight %d is above the current topoheight %d",
				end, currentTopoHeight))
	}
	if start > end {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
			fmt.Sprintf("start topoheight %d is above end topoheight %d", start, end))
	}
	if end-start > rpcmodel.MaxDagOrderSpan {
		return nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidRequest,
			fmt.Sprintf("window of %d topoheights exceeds the span limit of %d",
				end-start, rpcmodel.MaxDagOrderSpan))
	}

	hashes := make([]string, 0, end-start+1)
	for topoHeight := start; topoHeight <= end; topoHeight++ {
		hash, err := s.cfg.DAG.HashAtTopoHeight(topoHeight)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash.String())
	}
	return hashes, nil
}

// blockResult converts a BlockInfo into its RPC shape.
func blockResult(info *blockdag.BlockInfo) *rpcmodel.BlockResult {
	block := info.Block
	minerAddress, err := util.NewAddress(block.MinerPublicKey[:])
	miner := ""
	if err == nil {
		miner = minerAddress.EncodeAddress()
	}

	result := &rpcmodel.BlockResult{
		Hash:                 info.Hash.String(),
		BlockType:            info.Type.String(),
		Height:               block.Height,
		Timestamp:            block.Timestamp,
		Bits:                 block.Bits,
		Nonce:                block.Nonce,
		Miner:                miner,
		Difficulty:           info.Difficulty.String(),
		CumulativeDifficulty: info.CumulativeWork.String(),
		Tips:                 daghash.Strings(block.ParentHashes),
		TxHashes:             daghash.Strings(block.TxHashes),
		TotalSizeInBytes:     uint64(block.SerializeSize()),
	}
	if info.IsOrdered {
		topoHeight := info.TopoHeight
		supply := info.Supply
		reward := info.Reward
		result.TopoHeight = &topoHeight
		result.Supply = &supply
		result.Reward = &reward
	}
	return result
}

func balanceResult(version *dbaccess.BalanceVersion, topoHeight uint64) *rpcmodel.BalanceResult {
	result := &rpcmodel.BalanceResult{
		Balance:    version.Balance,
		TopoHeight: topoHeight,
	}
	if version.HasPrevious {
		previous := version.PreviousTopoHeight
		result.PreviousTopoHeight = &previous
	}
	return result
}

func transactionResult(tx *wire.MsgTx, inMempool bool) *rpcmodel.TransactionResult {
	ownerAddress, err := util.NewAddress(tx.Owner[:])
	owner := ""
	if err == nil {
		owner = ownerAddress.EncodeAddress()
	}

	transfers := make([]rpcmodel.TransferResult, 0, len(tx.Transfers))
	for _, transfer := range tx.Transfers {
		destAddress, err := util.NewAddress(transfer.Destination[:])
		dest := ""
		if err == nil {
			dest = destAddress.EncodeAddress()
		}
		transfers = append(transfers, rpcmodel.TransferResult{
			Asset:       transfer.Asset.String(),
			Destination: dest,
			Amount:      transfer.Amount,
		})
	}
	return &rpcmodel.TransactionResult{
		Hash:      tx.TxHash().String(),
		Owner:     owner,
		Nonce:     tx.Nonce,
		Fee:       tx.Fee,
		Transfers: transfers,
		Signature: hex.EncodeToString(tx.Signature[:]),
		InMempool: inMempool,
	}
}

// decodeAccountParams parses an address plus an optional asset identifier,
// defaulting to the native asset when the asset field is empty.
func decodeAccountParams(addressStr, assetStr string) ([32]byte, *daghash.Hash, *rpcmodel.RPCError) {
	address, err := util.DecodeAddress(addressStr)
	if err != nil {
		return [32]byte{}, nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to decode address: "+err.Error())
	}
	asset := dagconfig.NativeAsset
	if assetStr != "" {
		asset, err = daghash.NewHashFromStr(assetStr)
		if err != nil {
			return [32]byte{}, nil, rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
				"failed to parse asset: "+err.Error())
		}
	}
	return address.PublicKey(), asset, nil
}
