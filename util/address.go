package util

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
)

// PublicKeySize is the size in bytes of the schnorr public key that backs an
// address.
const PublicKeySize = 32

// Address version bytes. The version byte is check-encoded together with the
// public key, so addresses of different kinds and networks fail to decode
// for one another.
const (
	// NormalAddressID identifies a plain account address.
	NormalAddressID = 0x51

	// IntegratedAddressID identifies an address that carries extra payload
	// (e.g. a payment id). Such addresses may receive funds but cannot be
	// used where a bare account key is required, like a mining template.
	IntegratedAddressID = 0x52
)

// ErrUnknownAddressID describes an error where an address cannot be decoded
// because its version byte identifies no known address kind.
var ErrUnknownAddressID = errors.New("unknown address id")

// Address is a check-encoded account identifier, wrapping the schnorr public
// key that owns the account's balances and nonce.
type Address struct {
	id        byte
	publicKey [PublicKeySize]byte
	payload   []byte
}

// NewAddress returns a normal address for the given public key.
func NewAddress(publicKey []byte) (*Address, error) {
	if len(publicKey) != PublicKeySize {
		return nil, errors.Errorf("invalid public key length of %d, want %d",
			len(publicKey), PublicKeySize)
	}
	addr := &Address{id: NormalAddressID}
	copy(addr.publicKey[:], publicKey)
	return addr, nil
}

// DecodeAddress decodes the check-encoded string form of an address.
func DecodeAddress(encoded string) (*Address, error) {
	decoded, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode address %q", encoded)
	}
	if version != NormalAddressID && version != IntegratedAddressID {
		return nil, errors.WithStack(ErrUnknownAddressID)
	}
	if len(decoded) < PublicKeySize {
		return nil, errors.Errorf("decoded address is %d bytes, want at least %d",
			len(decoded), PublicKeySize)
	}

	addr := &Address{id: version}
	copy(addr.publicKey[:], decoded[:PublicKeySize])
	if len(decoded) > PublicKeySize {
		addr.payload = decoded[PublicKeySize:]
	}
	return addr, nil
}

// EncodeAddress returns the check-encoded string form of the address.
func (a *Address) EncodeAddress() string {
	data := a.publicKey[:]
	if len(a.payload) > 0 {
		data = append(a.publicKey[:], a.payload...)
	}
	return base58.CheckEncode(data, a.id)
}

// PublicKey returns the schnorr public key the address wraps.
func (a *Address) PublicKey() [PublicKeySize]byte {
	return a.publicKey
}

// IsNormal returns whether this is a plain account address, without any
// attached payload.
func (a *Address) IsNormal() bool {
	return a.id == NormalAddressID
}

// String returns the encoded form of the address.
func (a *Address) String() string {
	return a.EncodeAddress()
}
