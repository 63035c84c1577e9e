// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"
	"time"

	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

// bigOne is 1 represented as a big.Int. It is defined here to avoid
// the overhead of creating it multiple times.
var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof of work value a block can
// have for the main network. It is the value 2^239 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 239), bigOne)

// simnetPowLimit is the highest proof of work value a block can
// have for the simulation test network. It is the value 2^255 - 1.
var simnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// Params defines a network by its parameters. These parameters may be
// used by applications to differentiate networks as well as to enforce
// consensus rules.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// PowLimit defines the highest allowed proof of work value for a
	// block as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for
	// a block in compact form.
	PowLimitBits uint32

	// TargetTimePerBlock is the desired amount of time between blocks.
	TargetTimePerBlock time.Duration

	// DifficultyAdjustmentWindowSize is the number of most recent
	// canonical blocks the difficulty engine retargets over.
	DifficultyAdjustmentWindowSize uint64

	// MaxDifficultyAdjustmentFactor bounds the ratio by which one
	// retarget may raise or lower the target, to resist timestamp
	// manipulation.
	MaxDifficultyAdjustmentFactor int64

	// FutureTimeLimit is how far into the future a block timestamp may
	// be and still be admitted.
	FutureTimeLimit time.Duration

	// StableDepth is the number of topoheights below the current tip
	// beyond which a canonical block is classified a sync block, and
	// the height window within which non-canonical blocks are still
	// merged into the order as side blocks.
	StableDepth uint64

	// MaxBlockSize is the byte-size budget of a block template,
	// covering the serialized transactions it packs.
	MaxBlockSize uint64

	// MaxSupply is the total amount of coins that will ever be emitted,
	// in base units.
	MaxSupply uint64

	// EmissionSpeedFactor controls the per-block reward decay:
	// reward = (MaxSupply - minted) >> EmissionSpeedFactor.
	EmissionSpeedFactor uint8

	// CoinPrecision is the number of decimal places of the native asset.
	CoinPrecision uint8

	// GenesisBlock is the first block of the DAG.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the genesis block hash.
	GenesisHash *daghash.Hash
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name: "mainnet",

	PowLimit:                       mainPowLimit,
	TargetTimePerBlock:             15 * time.Second,
	DifficultyAdjustmentWindowSize: 30,
	MaxDifficultyAdjustmentFactor:  4,
	FutureTimeLimit:                2 * time.Minute,
	StableDepth:                    8,
	MaxBlockSize:                   1_000_000,
	MaxSupply:                      1_840_000_000_000_000,
	EmissionSpeedFactor:            20,
	CoinPrecision:                  8,

	GenesisBlock: &genesisBlock,
	GenesisHash:  genesisHash,
}

// SimnetParams defines the network parameters for the simulation test
// network. Its proof of work limit is high enough that essentially every
// solution satisfies it, so tests and simulations can produce blocks
// without mining.
var SimnetParams = Params{
	Name: "simnet",

	PowLimit:                       simnetPowLimit,
	TargetTimePerBlock:             time.Second,
	DifficultyAdjustmentWindowSize: 30,
	MaxDifficultyAdjustmentFactor:  4,
	FutureTimeLimit:                2 * time.Minute,
	StableDepth:                    8,
	MaxBlockSize:                   1_000_000,
	MaxSupply:                      1_840_000_000_000_000,
	EmissionSpeedFactor:            20,
	CoinPrecision:                  8,

	GenesisBlock: &simnetGenesisBlock,
	GenesisHash:  simnetGenesisHash,
}

func init() {
	MainnetParams.PowLimitBits = util.BigToCompact(mainPowLimit)
	SimnetParams.PowLimitBits = util.BigToCompact(simnetPowLimit)
	genesisBlock.Bits = MainnetParams.PowLimitBits
	simnetGenesisBlock.Bits = SimnetParams.PowLimitBits
	genesisHash = genesisBlock.BlockHash()
	simnetGenesisHash = simnetGenesisBlock.BlockHash()
	MainnetParams.GenesisHash = genesisHash
	SimnetParams.GenesisHash = simnetGenesisHash
}

// NativeAsset is the asset identifier of the network's own coin.
var NativeAsset = &daghash.ZeroHash

// BlockReward computes the reward of the next block to enter the order given
// the supply minted so far. The emission asymptotically approaches MaxSupply.
func (p *Params) BlockReward(mintedSupply uint64) uint64 {
	if mintedSupply >= p.MaxSupply {
		return 0
	}
	return (p.MaxSupply - mintedSupply) >> p.EmissionSpeedFactor
}
