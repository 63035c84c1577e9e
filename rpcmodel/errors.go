// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcmodel

import "fmt"

// RPCErrorCode represents an error code to be used as a part of an RPCError
// which is in turn used in a JSON-RPC Response object.
type RPCErrorCode int

// Standard JSON-RPC 2.0 errors.
const (
	ErrRPCParse          RPCErrorCode = -32700
	ErrRPCInvalidRequest RPCErrorCode = -32600
	ErrRPCMethodNotFound RPCErrorCode = -32601
	ErrRPCInvalidParams  RPCErrorCode = -32602
	ErrRPCInternal       RPCErrorCode = -32603
)

// Application-specific errors.
const (
	// ErrRPCUnexpectedParams is returned by methods that take no
	// parameters when the request carries a non-null params field.
	ErrRPCUnexpectedParams RPCErrorCode = -32001

	// ErrRPCNotFound is returned when the requested block, transaction
	// or account does not exist.
	ErrRPCNotFound RPCErrorCode = -32002

	// ErrRPCExpectedNormalAddress is returned when an integrated address
	// is supplied where only a normal address is accepted.
	ErrRPCExpectedNormalAddress RPCErrorCode = -32003

	// ErrRPCNoP2p is returned by p2p_status when the node runs without a
	// networking collaborator.
	ErrRPCNoP2p RPCErrorCode = -32004
)

// RPCError represents an error that is used as a part of a JSON-RPC
// Response object.
type RPCError struct {
	Code    RPCErrorCode `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Guarantee RPCError satisfies the builtin error interface.
var _, _ error = RPCError{}, (*RPCError)(nil)

// Error returns a string describing the RPC error. This satisfies the
// builtin error interface.
func (e RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewRPCError constructs and returns a new JSON-RPC error that is suitable
// for use in a JSON-RPC Response object.
func NewRPCError(code RPCErrorCode, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}
