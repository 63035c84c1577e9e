// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// genesisBlock defines the genesis block of the block DAG for the main
// network. It has no parents and carries no transactions; its Bits field is
// filled in from the network's PowLimitBits during package init, and its
// hash is derived from the final serialized form.
var genesisBlock = wire.MsgBlock{
	Version:   1,
	Height:    0,
	Timestamp: 0x64e00000, // 2023-08-19 08:42:40 +0000 UTC
	Nonce:     0,
	MinerPublicKey: [wire.MinerPublicKeySize]byte{
		0x71, 0x75, 0x61, 0x73, 0x61, 0x72, 0x20, 0x67,
		0x65, 0x6e, 0x65, 0x73, 0x69, 0x73, 0x20, 0x62,
		0x6c, 0x6f, 0x63, 0x6b, 0x20, 0x6d, 0x61, 0x69,
		0x6e, 0x6e, 0x65, 0x74, 0x20, 0x6b, 0x65, 0x79,
	},
	ParentHashes: []*daghash.Hash{},
	TxHashes:     []*daghash.Hash{},
}

// genesisHash is derived from genesisBlock during package init.
var genesisHash *daghash.Hash

// simnetGenesisBlock defines the genesis block for the simulation test
// network. Only the miner key and timestamp differ from the main network's.
var simnetGenesisBlock = wire.MsgBlock{
	Version:   1,
	Height:    0,
	Timestamp: 0x64e00001,
	Nonce:     0,
	MinerPublicKey: [wire.MinerPublicKeySize]byte{
		0x71, 0x75, 0x61, 0x73, 0x61, 0x72, 0x20, 0x67,
		0x65, 0x6e, 0x65, 0x73, 0x69, 0x73, 0x20, 0x62,
		0x6c, 0x6f, 0x63, 0x6b, 0x20, 0x73, 0x69, 0x6d,
		0x6e, 0x65, 0x74, 0x20, 0x6b, 0x65, 0x79, 0x21,
	},
	ParentHashes: []*daghash.Hash{},
	TxHashes:     []*daghash.Hash{},
}

// simnetGenesisHash is derived from simnetGenesisBlock during package init.
var simnetGenesisHash *daghash.Hash
