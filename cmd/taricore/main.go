// Command taricore wires up spec.md's five components into a single
// process: MempoolStore behind its single-writer Service, TemplateRepository
// with periodic TTL eviction, the miner-facing HTTP read API, and a
// BroadcastProtocol instance per accepted transaction against a remote
// full-node's gRPC endpoint.
//
// Grounded on the teacher's top-level kaspad.go: a wrapper struct
// (taricore) owning the long-lived services, a newTaricore constructor that
// wires collaborators together, and start/stop methods driven from main.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/tari-project/tari-sub013/internal/broadcast"
	"github.com/tari-project/tari-sub013/internal/config"
	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/internal/logging"
	"github.com/tari-project/tari-sub013/internal/mempool"
	"github.com/tari-project/tari-sub013/internal/rpcclient"
	"github.com/tari-project/tari-sub013/internal/storage"
	"github.com/tari-project/tari-sub013/internal/template"
	"github.com/tari-project/tari-sub013/internal/template/httpapi"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

var confLog = logging.Logger(logging.Config)

// taricore is a wrapper for all of taricore's long-lived services,
// mirroring the teacher's kaspad wrapper struct.
type taricore struct {
	cfg *config.Config

	mempoolService *mempool.Service
	persistence    *storage.Store
	rpcClient      *rpcclient.GRPCClient
	clients        rpcclient.StaticClientProvider
	broadcasts     *broadcast.MemoryStore
	bus            *events.Bus
	templates      *template.Repository
	httpServer     *http.Server

	shutdown chan struct{}
}

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		confLog.Errorf("parsing configuration: %+v", err)
		os.Exit(1)
	}

	if err := logging.InitLogRotator(cfg.LogFile); err != nil {
		confLog.Errorf("initializing log rotator: %+v", err)
		os.Exit(1)
	}
	if err := logging.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		confLog.Errorf("invalid debug level: %+v", err)
		os.Exit(1)
	}

	core, err := newTaricore(cfg)
	if err != nil {
		confLog.Errorf("starting taricore: %+v", err)
		os.Exit(1)
	}

	core.start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	core.stop()
}

// newTaricore wires the five components together: a persistence layer for
// mempool crash recovery, a MempoolStore behind its Service (validated and
// priced by RPC-backed collaborators), a TemplateRepository with its HTTP
// read API, and a gRPC client to the configured base node that
// BroadcastProtocol instances are created against as transactions are
// accepted.
func newTaricore(cfg *config.Config) (*taricore, error) {
	persistence, err := storage.Open(cfg.Mempool.StorageDir)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rpcClient, err := rpcclient.Dial(dialCtx, cfg.BaseNodeAddress)
	if err != nil {
		persistence.Close()
		return nil, err
	}
	clients := rpcclient.StaticClientProvider{Client: rpcClient}

	bus := events.NewBus()

	mempoolConfig := mempool.DefaultConfig()
	mempoolConfig.UnconfirmedPool.MinFee = cfg.Mempool.MinRelayFee

	validator := mempool.RPCValidator{Fetcher: rpcClient, MinFee: cfg.Mempool.MinRelayFee}
	consensus := mempool.StaticConsensusManager{Constants: mempool.ConsensusConstants{
		MinFee:                  cfg.Mempool.MinRelayFee,
		TransactionWeightParams: mempool.DefaultByteWeighting(),
	}}

	store := mempool.NewStore(mempoolConfig, validator, consensus, bus, mempool.WithPersistence(persistence))
	mempoolService := mempool.NewService(store, 64)

	templates := template.New(cfg.Template.TTL)
	router := mux.NewRouter()
	httpapi.AddRoutes(router, templates)

	return &taricore{
		cfg:            cfg,
		mempoolService: mempoolService,
		persistence:    persistence,
		rpcClient:      rpcClient,
		clients:        clients,
		broadcasts:     broadcast.NewMemoryStore(broadcast.WithCompletedTable(persistence.Completed)),
		bus:            bus,
		templates:      templates,
		httpServer:     &http.Server{Addr: ":8080", Handler: router},
		shutdown:       make(chan struct{}),
	}, nil
}

// start launches every long-lived service, mirroring the teacher's
// kaspad.start.
func (c *taricore) start() {
	confLog.Trace("starting taricore")

	logging.Spawn(logging.Template, c.runTemplateEviction)

	logging.Spawn(logging.Template, func() {
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			confLog.Errorf("template HTTP API stopped: %+v", err)
		}
	})
}

// runTemplateEviction periodically sweeps expired templates, since
// TemplateRepository itself performs no background work: spec.md §4.5
// describes RemoveOutdated as a method the owner calls, not a self-driven
// loop.
func (c *taricore) runTemplateEviction() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.templates.RemoveOutdated()
		case <-c.shutdown:
			return
		}
	}
}

// stop gracefully shuts down every service, mirroring the teacher's
// kaspad.stop.
func (c *taricore) stop() {
	confLog.Warnf("taricore shutting down")
	close(c.shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		confLog.Errorf("shutting down HTTP server: %+v", err)
	}

	c.mempoolService.Close()

	if err := c.rpcClient.Close(); err != nil {
		confLog.Errorf("closing base node connection: %+v", err)
	}
	if err := c.persistence.Close(); err != nil {
		confLog.Errorf("closing persistence: %+v", err)
	}
}

// submitAndBroadcast runs a wallet-submitted transaction through MempoolStore
// admission and, once accepted, seeds a CompletedTransaction and drives a
// fresh BroadcastProtocol instance to completion in the background, the
// per-transaction broadcast wiring spec.md §4.4 describes as the component
// that actually pushes an accepted transaction out to the base node.
func (c *taricore) submitAndBroadcast(ctx context.Context, t *tx.Transaction) (mempool.TxStorageResponse, error) {
	resp, err := c.mempoolService.Insert(ctx, t)
	if err != nil {
		return resp, err
	}
	if resp != mempool.UnconfirmedPoolResponse {
		return resp, nil
	}

	key, err := t.FirstKernelExcessSig()
	if err != nil {
		return resp, err
	}

	c.broadcasts.Put(key, &broadcast.CompletedTransaction{
		Transaction: t,
		Status:      broadcast.Completed,
	})

	protocol := broadcast.NewProtocol(
		key,
		c.broadcasts,
		c.clients,
		broadcast.NoopOutputManager{},
		c.bus,
		broadcast.Config{BroadcastTimeout: c.cfg.Broadcast.Timeout},
		broadcast.WithShutdown(c.shutdown),
	)

	logging.Spawn(logging.Broadcast, func() {
		if err := protocol.Execute(context.Background()); err != nil {
			confLog.Debugf("broadcast protocol for %v exited: %v", key, err)
		}
	})

	return resp, nil
}
