package wire

import (
	"bytes"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/quasarnet/quasard/util/daghash"
)

const (
	// MaxBlockParents is the maximum number of parent (tip) references a
	// block may carry.
	MaxBlockParents = 10

	// MaxTxsPerBlock is a hard upper bound on the number of transaction
	// hashes a block may reference, independent of the byte-size budget.
	MaxTxsPerBlock = 1 << 16

	// MinerPublicKeySize is the size of the block's miner key.
	MinerPublicKeySize = 32
)

// MsgBlock implements a block in the block DAG. Unlike a single-chain block
// it references one or more parent tips; its transactions are carried by
// hash and travel separately.
type MsgBlock struct {
	// Version of the block format.
	Version int32

	// Height is 1 + the maximum height among the parents.
	Height uint64

	// Timestamp is the miner-declared creation time, in unix seconds.
	Timestamp int64

	// Bits is the compact representation of the target this block claims
	// to satisfy. It is validated against the difficulty required at the
	// block's tips.
	Bits uint32

	// Nonce is the PoW solution.
	Nonce uint64

	// MinerPublicKey receives the block reward and the fees.
	MinerPublicKey [MinerPublicKeySize]byte

	// ParentHashes are the tips this block extends. Must be non-empty for
	// any block other than genesis.
	ParentHashes []*daghash.Hash

	// TxHashes are the transactions included in this block, in the order
	// their effects apply.
	TxHashes []*daghash.Hash
}

// Serialize writes the block to w.
func (b *MsgBlock) Serialize(w io.Writer) error {
	err := writeElement(w, b.Version)
	if err != nil {
		return err
	}
	err = writeElement(w, b.Height)
	if err != nil {
		return err
	}
	err = writeElement(w, b.Timestamp)
	if err != nil {
		return err
	}
	err = writeElement(w, b.Bits)
	if err != nil {
		return err
	}
	err = writeElement(w, b.Nonce)
	if err != nil {
		return err
	}
	err = writeElement(w, b.MinerPublicKey)
	if err != nil {
		return err
	}
	err = writeHashes(w, b.ParentHashes)
	if err != nil {
		return err
	}
	return writeHashes(w, b.TxHashes)
}

// Deserialize reads the block from r.
func (b *MsgBlock) Deserialize(r io.Reader) error {
	err := readElement(r, &b.Version)
	if err != nil {
		return err
	}
	err = readElement(r, &b.Height)
	if err != nil {
		return err
	}
	err = readElement(r, &b.Timestamp)
	if err != nil {
		return err
	}
	err = readElement(r, &b.Bits)
	if err != nil {
		return err
	}
	err = readElement(r, &b.Nonce)
	if err != nil {
		return err
	}
	err = readElement(r, &b.MinerPublicKey)
	if err != nil {
		return err
	}
	b.ParentHashes, err = readHashes(r, MaxBlockParents)
	if err != nil {
		return err
	}
	b.TxHashes, err = readHashes(r, MaxTxsPerBlock)
	return err
}

// Bytes returns the serialized form of the block.
func (b *MsgBlock) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := b.Serialize(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BlockHash computes the block's identity hash, which doubles as its PoW
// hash: the blake2b digest of the full serialized block.
func (b *MsgBlock) BlockHash() *daghash.Hash {
	var buf bytes.Buffer
	// Serializing into a memory buffer cannot fail.
	_ = b.Serialize(&buf)
	hash := daghash.Hash(blake2b.Sum256(buf.Bytes()))
	return &hash
}

// SerializeSize returns the number of bytes the serialized block occupies.
func (b *MsgBlock) SerializeSize() int {
	// version + height + timestamp + bits + nonce + miner key +
	// 2 hash counts + hashes.
	return 4 + 8 + 8 + 4 + 8 + MinerPublicKeySize + 4 + 4 +
		daghash.HashSize*(len(b.ParentHashes)+len(b.TxHashes))
}
