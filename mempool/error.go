// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
)

// ErrorCode identifies a kind of transaction rejection.
type ErrorCode int

const (
	// ErrDuplicate indicates the transaction is already in the pool or
	// already applied to the ledger.
	ErrDuplicate ErrorCode = iota

	// ErrInvalid indicates the transaction failed its context-free
	// checks: malformed transfers, overflowing amounts, or an invalid
	// signature.
	ErrInvalid

	// ErrBadNonce indicates the transaction's nonce is not the next one
	// expected of its owner, counting pending pool transactions.
	ErrBadNonce

	// ErrInsufficientBalance indicates the owner cannot cover the
	// transaction's transfers and fee on top of its pending spends.
	ErrInsufficientBalance

	// ErrInsufficientFee indicates the transaction's fee rate is below
	// the relay policy minimum.
	ErrInsufficientFee

	// ErrTxTooBig indicates the serialized transaction exceeds the
	// policy's size limit.
	ErrTxTooBig
)

var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicate:           "ErrDuplicate",
	ErrInvalid:             "ErrInvalid",
	ErrBadNonce:            "ErrBadNonce",
	ErrInsufficientBalance: "ErrInsufficientBalance",
	ErrInsufficientFee:     "ErrInsufficientFee",
	ErrTxTooBig:            "ErrTxTooBig",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a transaction rejected by mempool policy or ledger
// rules rather than by a processing failure. Callers can type-assert to it
// to distinguish a bad transaction from a failing node.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

func txRuleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// ErrorCodeOf returns the rejection code carried by err and true when err is
// a RuleError, and zero and false otherwise.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	ruleErr, ok := err.(RuleError)
	if !ok {
		return 0, false
	}
	return ruleErr.ErrorCode, true
}
