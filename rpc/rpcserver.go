// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/mempool"
	"github.com/quasarnet/quasard/mining"
	"github.com/quasarnet/quasard/rpcmodel"
)

const (
	// maxRequestSize is the maximum number of bytes of one request body.
	maxRequestSize = 1024 * 1024 * 4

	// rpcTimeout bounds how long one request may take end to end.
	rpcTimeout = 30 * time.Second
)

// P2P is the optional networking collaborator the p2p_status method
// reports on. A node may run without one.
type P2P interface {
	PeerCount() int
	MaxPeers() int

	// Tag is the operator-chosen node name, empty when unset.
	Tag() string

	// PeerID is the random identity this node presents to its peers.
	PeerID() uint64

	// BestHeight is the highest block height any connected peer claims.
	BestHeight() uint64
}

// Config is a descriptor containing the RPC server configuration.
type Config struct {
	// Listeners are the addresses the server accepts connections on.
	Listeners []string

	// DAG is the block DAG the methods query and submit to.
	DAG *blockdag.BlockDAG

	// TxPool is the transaction pool backing the mempool methods.
	TxPool *mempool.TxPool

	// TemplateGenerator builds the block templates get_block_template
	// hands out.
	TemplateGenerator *mining.BlkTmplGenerator

	// DefaultMiningAddress, when non-empty, is the address block templates
	// pay when a get_block_template request omits one.
	DefaultMiningAddress string

	// P2P is the optional networking collaborator. When nil, p2p_status
	// reports its absence.
	P2P P2P
}

// Server provides a JSON-RPC server over HTTP POST.
type Server struct {
	cfg Config

	started  int32
	shutdown int32

	listeners []net.Listener
	wg        sync.WaitGroup
}

// NewServer returns a new instance of the Server struct.
func NewServer(cfg *Config) *Server {
	return &Server{cfg: *cfg}
}

// Start begins accepting connections on all configured listeners.
func (s *Server) Start() error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return nil
	}

	httpServer := &http.Server{
		Handler:      http.HandlerFunc(s.handleRequest),
		ReadTimeout:  rpcTimeout,
		WriteTimeout: rpcTimeout,
	}

	for _, addr := range s.cfg.Listeners {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return errors.Wrapf(err, "RPC server failed to listen on %s", addr)
		}
		s.listeners = append(s.listeners, listener)

		s.wg.Add(1)
		go func(listener net.Listener) {
			defer s.wg.Done()
			log.Infof("RPC server listening on %s", listener.Addr())
			err := httpServer.Serve(listener)
			if err != nil && atomic.LoadInt32(&s.shutdown) == 0 {
				log.Errorf("RPC listener on %s failed: %s", listener.Addr(), err)
			}
		}(listener)
	}
	return nil
}

// Stop closes all listeners and waits for the serving goroutines to finish.
func (s *Server) Stop() error {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		return nil
	}
	for _, listener := range s.listeners {
		err := listener.Close()
		if err != nil {
			log.Warnf("Problem shutting down RPC listener: %s", err)
		}
	}
	s.wg.Wait()
	log.Infof("RPC server shutdown complete")
	return nil
}

// handleRequest reads one JSON-RPC request from an HTTP POST body,
// dispatches it, and writes the response.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "413 Request Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	var request rpcmodel.Request
	var response *rpcmodel.Response
	err = json.Unmarshal(body, &request)
	if err != nil {
		response = errorResponse(nil, rpcmodel.NewRPCError(
			rpcmodel.ErrRPCParse, "failed to parse request: "+err.Error()))
	} else {
		response = s.dispatch(&request)
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err = encoder.Encode(response)
	if err != nil {
		log.Errorf("Failed to encode RPC response: %s", err)
	}
}

// dispatch routes one request to its method handler and wraps the outcome
// into a response object.
func (s *Server) dispatch(request *rpcmodel.Request) *rpcmodel.Response {
	handler, ok := rpcHandlers[request.Method]
	if !ok {
		return errorResponse(request.ID, rpcmodel.NewRPCError(
			rpcmodel.ErrRPCMethodNotFound, "method not found: "+request.Method))
	}

	result, err := handler(s, request.Params)
	if err != nil {
		var rpcErr *rpcmodel.RPCError
		if !errors.As(err, &rpcErr) {
			log.Errorf("Method %s failed: %s", request.Method, err)
			rpcErr = rpcmodel.NewRPCError(rpcmodel.ErrRPCInternal, err.Error())
		}
		return errorResponse(request.ID, rpcErr)
	}

	marshalledResult, err := json.Marshal(result)
	if err != nil {
		log.Errorf("Failed to marshal %s result: %s", request.Method, err)
		return errorResponse(request.ID, rpcmodel.NewRPCError(
			rpcmodel.ErrRPCInternal, "failed to marshal result"))
	}
	return &rpcmodel.Response{
		JSONRPC: "2.0",
		Result:  marshalledResult,
		ID:      request.ID,
	}
}

func errorResponse(id json.RawMessage, rpcErr *rpcmodel.RPCError) *rpcmodel.Response {
	return &rpcmodel.Response{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	}
}

var jsonNull = []byte("null")

// requireNullParams enforces that a method which takes no parameters is
// called with an absent or null params field.
func requireNullParams(params json.RawMessage) *rpcmodel.RPCError {
	if len(params) == 0 || bytes.Equal(bytes.TrimSpace(params), jsonNull) {
		return nil
	}
	return rpcmodel.NewRPCError(rpcmodel.ErrRPCUnexpectedParams,
		"method expects no parameters")
}

// unmarshalParams decodes a method's params field into its typed parameter
// struct.
func unmarshalParams(params json.RawMessage, target interface{}) *rpcmodel.RPCError {
	if len(params) == 0 {
		return rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"method requires parameters")
	}
	err := json.Unmarshal(params, target)
	if err != nil {
		return rpcmodel.NewRPCError(rpcmodel.ErrRPCInvalidParams,
			"failed to parse parameters: "+err.Error())
	}
	return nil
}
