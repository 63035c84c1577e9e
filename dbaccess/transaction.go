package dbaccess

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/util/daghash"
	"github.com/quasarnet/quasard/wire"
)

var (
	transactionsBucket  = database.MakeBucket([]byte("transactions"))
	transactionCountKey = database.MakeBucket([]byte("meta")).Key([]byte("tx-count"))
)

func transactionKey(hash *daghash.Hash) []byte {
	return transactionsBucket.Key(hash[:])
}

// StoreTransaction stores the given transaction in the database. Storing the
// same transaction twice is a no-op.
func StoreTransaction(context Context, tx *wire.MsgTx) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	hash := tx.TxHash()
	exists, err := accessor.Has(transactionKey(hash))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	txBytes, err := tx.Bytes()
	if err != nil {
		return err
	}
	err = accessor.Put(transactionKey(hash), txBytes)
	if err != nil {
		return err
	}

	transactionCount, err := TransactionCount(context)
	if err != nil {
		return err
	}
	return storeCount(accessor, transactionCountKey, transactionCount+1)
}

// HasTransaction returns whether the transaction of the given hash has been
// previously stored in the database.
func HasTransaction(context Context, hash *daghash.Hash) (bool, error) {
	accessor, err := context.accessor()
	if err != nil {
		return false, err
	}
	return accessor.Has(transactionKey(hash))
}

// FetchTransaction returns the transaction of the given hash. Returns
// database.ErrNotFound if the transaction was not previously stored.
func FetchTransaction(context Context, hash *daghash.Hash) (*wire.MsgTx, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	txBytes, err := accessor.Get(transactionKey(hash))
	if err != nil {
		return nil, err
	}

	tx := &wire.MsgTx{}
	err = tx.Deserialize(bytes.NewReader(txBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "could not deserialize transaction %s", hash)
	}
	return tx, nil
}

// TransactionCount returns the number of transactions stored in the
// database.
func TransactionCount(context Context) (uint64, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, err
	}
	return fetchCount(accessor, transactionCountKey)
}
