package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/util/daghash"
)

// All integers on the wire are little-endian.
var byteOrder = binary.LittleEndian

func writeElement(w io.Writer, element interface{}) error {
	err := binary.Write(w, byteOrder, element)
	return errors.WithStack(err)
}

func readElement(r io.Reader, element interface{}) error {
	err := binary.Read(r, byteOrder, element)
	return errors.WithStack(err)
}

func writeHash(w io.Writer, hash *daghash.Hash) error {
	_, err := w.Write(hash[:])
	return errors.WithStack(err)
}

func readHash(r io.Reader) (*daghash.Hash, error) {
	hash := new(daghash.Hash)
	_, err := io.ReadFull(r, hash[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return hash, nil
}

func writeHashes(w io.Writer, hashes []*daghash.Hash) error {
	err := writeElement(w, uint32(len(hashes)))
	if err != nil {
		return err
	}
	for _, hash := range hashes {
		err = writeHash(w, hash)
		if err != nil {
			return err
		}
	}
	return nil
}

func readHashes(r io.Reader, maxCount uint32) ([]*daghash.Hash, error) {
	var count uint32
	err := readElement(r, &count)
	if err != nil {
		return nil, err
	}
	if count > maxCount {
		return nil, errors.Errorf("hash count %d exceeds maximum %d", count, maxCount)
	}
	hashes := make([]*daghash.Hash, count)
	for i := range hashes {
		hashes[i], err = readHash(r)
		if err != nil {
			return nil, err
		}
	}
	return hashes, nil
}
