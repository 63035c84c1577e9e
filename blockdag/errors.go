// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdag

import (
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists in the DAG.
	ErrDuplicateBlock ErrorCode = iota

	// ErrParentBlockUnknown indicates a parent block hash referenced by a
	// block is not present in the DAG.
	ErrParentBlockUnknown

	// ErrTooManyParents indicates the number of parent hashes in a block
	// exceeds the maximum allowed.
	ErrTooManyParents

	// ErrDuplicateParents indicates a block references the same parent
	// hash more than once.
	ErrDuplicateParents

	// ErrNoParents indicates a non-genesis block carries no parent
	// hashes.
	ErrNoParents

	// ErrInvalidBlockHeight indicates the declared height of a block is
	// not one more than the maximum height of its parents.
	ErrInvalidBlockHeight

	// ErrTimeTooNew indicates the timestamp of a block is too far in the
	// future.
	ErrTimeTooNew

	// ErrTimeTooOld indicates the timestamp of a block is not strictly
	// after the median timestamp of its parents.
	ErrTimeTooOld

	// ErrUnexpectedDifficulty indicates the difficulty bits of a block do
	// not match the value required by the retargeting rules for its
	// parents.
	ErrUnexpectedDifficulty

	// ErrInsufficientDifficulty indicates the proof-of-work hash of a
	// block does not meet the target encoded in its difficulty bits.
	ErrInsufficientDifficulty

	// ErrBlockTooBig indicates the serialized size of a block together
	// with its transactions exceeds the maximum allowed.
	ErrBlockTooBig

	// ErrTooManyTransactions indicates the number of transaction hashes
	// in a block exceeds the maximum allowed.
	ErrTooManyTransactions

	// ErrDuplicateTx indicates a block includes the same transaction hash
	// more than once.
	ErrDuplicateTx

	// ErrMissingTxData indicates a transaction hash referenced by a block
	// could not be resolved to a transaction body from either the pool or
	// the store.
	ErrMissingTxData

	// ErrInvalidTransaction indicates a transaction carried by a block
	// failed contextual validation against the ledger, such as a broken
	// nonce sequence, an invalid signature or an overspend.
	ErrInvalidTransaction
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateBlock:         "ErrDuplicateBlock",
	ErrParentBlockUnknown:     "ErrParentBlockUnknown",
	ErrTooManyParents:         "ErrTooManyParents",
	ErrDuplicateParents:       "ErrDuplicateParents",
	ErrNoParents:              "ErrNoParents",
	ErrInvalidBlockHeight:     "ErrInvalidBlockHeight",
	ErrTimeTooNew:             "ErrTimeTooNew",
	ErrTimeTooOld:             "ErrTimeTooOld",
	ErrUnexpectedDifficulty:   "ErrUnexpectedDifficulty",
	ErrInsufficientDifficulty: "ErrInsufficientDifficulty",
	ErrBlockTooBig:            "ErrBlockTooBig",
	ErrTooManyTransactions:    "ErrTooManyTransactions",
	ErrDuplicateTx:            "ErrDuplicateTx",
	ErrMissingTxData:          "ErrMissingTxData",
	ErrInvalidTransaction:     "ErrInvalidTransaction",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation rules. The
// caller can use type assertions to determine if a failure was specifically
// due to a rule violation and access the ErrorCode field to ascertain the
// specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// ErrorCodeOf returns the rule error code carried by err and true when err is
// a RuleError, and zero and false otherwise.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	ruleErr, ok := err.(RuleError)
	if !ok {
		return 0, false
	}
	return ruleErr.ErrorCode, true
}
