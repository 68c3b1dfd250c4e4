package glomers

import (
	"context"
	"fmt"
	"time"

	"github.com/mosaicnetworks/glomers/src/broadcast"
	"github.com/mosaicnetworks/glomers/src/config"
	"github.com/mosaicnetworks/glomers/src/counter"
	"github.com/mosaicnetworks/glomers/src/echo"
	"github.com/mosaicnetworks/glomers/src/kv"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/net"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/service"
	"github.com/mosaicnetworks/glomers/src/uniqueids"
	"github.com/sirupsen/logrus"
)

// Workloads run by a glomers node.
const (
	Echo      = "echo"
	UniqueIDs = "unique-ids"
	Broadcast = "broadcast"
	GCounter  = "g-counter"
	SeqKV     = "seq-kv"
)

// Workloads lists the accepted values of config.Workload.
var Workloads = []string{Echo, UniqueIDs, Broadcast, GCounter, SeqKV}

const shutdownTimeout = time.Second

// Glomers assembles the components of a node from a Config: the transport,
// the handler for the configured workload, the optional key-value store, and
// the optional HTTP service.
type Glomers struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Store     kv.Store
	Service   *service.Service

	factory node.Factory
	logger  *logrus.Entry
}

// NewGlomers ...
func NewGlomers(config *config.Config) *Glomers {
	engine := &Glomers{
		Config: config,
		logger: config.Logger(),
	}

	return engine
}

func (g *Glomers) initTransport() error {
	if g.Config.Transport != nil {
		g.Transport = g.Config.Transport
		return nil
	}

	g.Transport = net.NewStdioTransport()

	return nil
}

func (g *Glomers) initStore() error {
	if g.Config.Workload != SeqKV {
		return nil
	}

	if !g.Config.Store {
		g.Store = kv.NewInmemStore()

		g.logger.Debug("created new in-mem store")

		return nil
	}

	g.logger.WithField("path", g.Config.DatabaseDir).Debug("Attempting to load or create database")

	store, err := kv.NewBadgerStore(g.Config.DatabaseDir, g.logger)
	if err != nil {
		return err
	}

	g.Store = store

	return nil
}

func (g *Glomers) initFactory() error {
	switch g.Config.Workload {
	case Echo:
		g.factory = echo.Factory
	case UniqueIDs:
		g.factory = uniqueids.Factory
	case Broadcast:
		g.factory = broadcast.Factory
	case GCounter:
		g.factory = counter.NewFactory(g.Config.CounterKey, message.NodeID(g.Config.KVNode))
	case SeqKV:
		g.factory = kv.NewFactory(g.Store)
	default:
		return fmt.Errorf("unknown workload %q, expected one of %v", g.Config.Workload, Workloads)
	}
	return nil
}

func (g *Glomers) initNode() error {
	g.Node = node.NewNode(
		node.NewConfig(g.Config.TickInterval, g.logger),
		g.factory,
		g.Transport,
	)
	return nil
}

func (g *Glomers) initService() error {
	if g.Config.ServiceAddr != "" {
		g.Service = service.NewService(g.Config.ServiceAddr, g.Node, g.logger)
	}
	return nil
}

// Init creates every component. It must be called before Run.
func (g *Glomers) Init() error {
	g.logger.WithFields(logrus.Fields{
		"workload": g.Config.Workload,
		"tick":     g.Config.TickInterval,
	}).Debug("Init")

	if err := g.initStore(); err != nil {
		return err
	}

	if err := g.initFactory(); err != nil {
		return err
	}

	if err := g.initTransport(); err != nil {
		return err
	}

	if err := g.initNode(); err != nil {
		return err
	}

	if err := g.initService(); err != nil {
		return err
	}

	return nil
}

// Run runs the node until its input is exhausted, ctx is cancelled, or a fatal
// error occurs, and then releases every component.
func (g *Glomers) Run(ctx context.Context) error {
	if g.Service != nil {
		go g.Service.Serve()
	}

	err := g.Node.Run(ctx)

	g.close()

	return err
}

func (g *Glomers) close() {
	if g.Service != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := g.Service.Shutdown(ctx); err != nil {
			g.logger.WithError(err).Warn("Shutting down service")
		}
	}

	if g.Store != nil {
		if err := g.Store.Close(); err != nil {
			g.logger.WithError(err).Error("Closing store")
		}
	}

	if err := g.Transport.Close(); err != nil {
		g.logger.WithError(err).Warn("Closing transport")
	}
}
