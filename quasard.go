// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/quasarnet/quasard/blockdag"
	"github.com/quasarnet/quasard/config"
	"github.com/quasarnet/quasard/dbaccess"
	"github.com/quasarnet/quasard/logger"
	"github.com/quasarnet/quasard/mempool"
	"github.com/quasarnet/quasard/mining"
	"github.com/quasarnet/quasard/rpc"
	"github.com/quasarnet/quasard/signal"
	"github.com/quasarnet/quasard/version"
)

const databaseDirname = "db"

// quasard is a wrapper for all the quasard services
type quasard struct {
	rpcServer *rpc.Server

	started, shutdown int32
}

// start launches all the quasard services.
func (s *quasard) start() {
	// Already started?
	if atomic.AddInt32(&s.started, 1) != 1 {
		return
	}

	log.Trace("Starting quasard")

	if s.rpcServer != nil {
		err := s.rpcServer.Start()
		if err != nil {
			log.Errorf("Error starting the RPC server: %s", err)
			signal.ShutdownRequestChannel <- struct{}{}
		}
	}
}

// stop gracefully shuts down all the quasard services.
func (s *quasard) stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		log.Infof("Quasard is already in the process of shutting down")
		return
	}

	log.Warnf("Quasard shutting down")

	if s.rpcServer != nil {
		err := s.rpcServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the RPC server: %s", err)
		}
	}
}

// newQuasard assembles the node services on top of the given database.
func newQuasard(cfg *config.Config, databaseContext *dbaccess.DatabaseContext) (*quasard, error) {
	dag, err := blockdag.New(&blockdag.Config{
		DAGParams:       cfg.NetParams(),
		DatabaseContext: databaseContext,
	})
	if err != nil {
		return nil, err
	}

	txPool := mempool.New(&mempool.Config{
		Policy: mempool.Policy{
			MaxTxSize:              cfg.MaxTxSize,
			MinRelayFeePerKilobyte: cfg.MinRelayTxFee,
		},
		DatabaseContext: databaseContext,
	})
	dag.SetTxPool(txPool)

	var rpcServer *rpc.Server
	if !cfg.DisableRPC {
		templateGenerator := mining.NewBlkTmplGenerator(dag, txPool)
		rpcServer = rpc.NewServer(&rpc.Config{
			Listeners:            cfg.RPCListeners,
			DAG:                  dag,
			TxPool:               txPool,
			TemplateGenerator:    templateGenerator,
			DefaultMiningAddress: cfg.MiningAddr,
		})
	}

	return &quasard{rpcServer: rpcServer}, nil
}

// quasardMain is the real main function for quasard. It is invoked from main
// so that defers run before the process exits.
func quasardMain() error {
	interrupt := signal.InterruptListener()

	err := config.LoadAndSetActiveConfig()
	if err != nil {
		// loadConfig already printed the problem to stderr.
		return err
	}
	cfg := config.ActiveConfig()
	defer logger.Close()

	log.Infof("Version %s", version.Version())

	databasePath := filepath.Join(cfg.AppDir, databaseDirname)
	err = os.MkdirAll(databasePath, 0700)
	if err != nil {
		log.Errorf("Error creating database directory: %s", err)
		return err
	}

	if signal.InterruptRequested(interrupt) {
		return nil
	}

	log.Infof("Loading database from '%s'", databasePath)
	databaseContext, err := dbaccess.New(databasePath)
	if err != nil {
		log.Errorf("Error loading database: %s", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Error closing the database: %s", err)
		}
	}()

	if signal.InterruptRequested(interrupt) {
		return nil
	}

	node, err := newQuasard(cfg, databaseContext)
	if err != nil {
		log.Errorf("Unable to start quasard: %+v", err)
		fmt.Fprintf(os.Stderr, "Unable to start quasard: %+v\n", err)
		return err
	}
	defer node.stop()
	node.start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems.
	<-interrupt
	return nil
}
