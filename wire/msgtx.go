package wire

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/quasarnet/quasard/util/daghash"
)

const (
	// OwnerPublicKeySize is the size of a transaction owner key.
	OwnerPublicKeySize = 32

	// SignatureSize is the size of a schnorr transaction signature.
	SignatureSize = 64

	// MaxTransfersPerTx bounds the number of transfers a single transaction
	// may carry.
	MaxTransfersPerTx = 255
)

// TxTransfer moves an amount of one asset from the transaction owner to a
// destination account.
type TxTransfer struct {
	Asset       *daghash.Hash
	Destination [OwnerPublicKeySize]byte
	Amount      uint64
}

// MsgTx implements an account-model transaction. The owner account pays
// Fee on top of the transferred amounts, and the transaction is only valid
// at the owner's current nonce.
type MsgTx struct {
	Version   int32
	Owner     [OwnerPublicKeySize]byte
	Nonce     uint64
	Fee       uint64
	Transfers []*TxTransfer
	Signature [SignatureSize]byte
}

func (tx *MsgTx) serialize(w io.Writer, withSignature bool) error {
	err := writeElement(w, tx.Version)
	if err != nil {
		return err
	}
	err = writeElement(w, tx.Owner)
	if err != nil {
		return err
	}
	err = writeElement(w, tx.Nonce)
	if err != nil {
		return err
	}
	err = writeElement(w, tx.Fee)
	if err != nil {
		return err
	}
	err = writeElement(w, uint8(len(tx.Transfers)))
	if err != nil {
		return err
	}
	for _, transfer := range tx.Transfers {
		err = writeHash(w, transfer.Asset)
		if err != nil {
			return err
		}
		err = writeElement(w, transfer.Destination)
		if err != nil {
			return err
		}
		err = writeElement(w, transfer.Amount)
		if err != nil {
			return err
		}
	}
	if withSignature {
		return writeElement(w, tx.Signature)
	}
	return nil
}

// Serialize writes the transaction to w.
func (tx *MsgTx) Serialize(w io.Writer) error {
	return tx.serialize(w, true)
}

// Deserialize reads the transaction from r.
func (tx *MsgTx) Deserialize(r io.Reader) error {
	err := readElement(r, &tx.Version)
	if err != nil {
		return err
	}
	err = readElement(r, &tx.Owner)
	if err != nil {
		return err
	}
	err = readElement(r, &tx.Nonce)
	if err != nil {
		return err
	}
	err = readElement(r, &tx.Fee)
	if err != nil {
		return err
	}
	var transferCount uint8
	err = readElement(r, &transferCount)
	if err != nil {
		return err
	}
	tx.Transfers = make([]*TxTransfer, transferCount)
	for i := range tx.Transfers {
		transfer := &TxTransfer{}
		transfer.Asset, err = readHash(r)
		if err != nil {
			return err
		}
		err = readElement(r, &transfer.Destination)
		if err != nil {
			return err
		}
		err = readElement(r, &transfer.Amount)
		if err != nil {
			return err
		}
		tx.Transfers[i] = transfer
	}
	return readElement(r, &tx.Signature)
}

// Bytes returns the serialized form of the transaction.
func (tx *MsgTx) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := tx.Serialize(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxHash computes the transaction's identity hash: the blake2b digest of the
// full serialized transaction, signature included.
func (tx *MsgTx) TxHash() *daghash.Hash {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf)
	hash := daghash.Hash(blake2b.Sum256(buf.Bytes()))
	return &hash
}

// SigHash computes the digest the owner signs: the blake2b digest of the
// serialized transaction without its signature.
func (tx *MsgTx) SigHash() *daghash.Hash {
	var buf bytes.Buffer
	_ = tx.serialize(&buf, false)
	hash := daghash.Hash(blake2b.Sum256(buf.Bytes()))
	return &hash
}

// SerializeSize returns the number of bytes the serialized transaction
// occupies. It is the unit against which fee rates and the block byte-size
// budget are measured.
func (tx *MsgTx) SerializeSize() int {
	// version + owner + nonce + fee + transfer count + transfers + signature.
	return 4 + OwnerPublicKeySize + 8 + 8 + 1 +
		len(tx.Transfers)*(daghash.HashSize+OwnerPublicKeySize+8) +
		SignatureSize
}

// TotalSpend sums the transferred amounts per asset. The fee is paid in the
// native asset on top of these totals. An error is returned if any per-asset
// total overflows a uint64.
func (tx *MsgTx) TotalSpend() (map[daghash.Hash]uint64, error) {
	totals := make(map[daghash.Hash]uint64)
	for _, transfer := range tx.Transfers {
		total := totals[*transfer.Asset] + transfer.Amount
		if total < totals[*transfer.Asset] {
			return nil, errors.Errorf("transaction output amounts overflow")
		}
		totals[*transfer.Asset] = total
	}
	return totals, nil
}
