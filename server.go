// Package optimus composes the window orchestration service with its
// invocation API.
package optimus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"pkt.systems/optimus/core"
	"pkt.systems/optimus/httpapi"
	"pkt.systems/optimus/internal/command"
	"pkt.systems/optimus/internal/eventbus"
	"pkt.systems/optimus/internal/registry"
	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// Server runs the orchestration service and its HTTP surface.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	Service() core.Service
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Shell schema.ShellConfig
	// Locations is the window registry table. Empty uses the built-in table.
	Locations map[string]string
	HTTP      httpapi.Config
	// EventBufferDepth bounds each window listener's backlog.
	EventBufferDepth int
	// PrimaryWindow is created or focused when the server starts, if
	// OpenPrimaryOnStart is set.
	PrimaryWindow      schema.WindowName
	OpenPrimaryOnStart bool
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	// Host owns the native windows. Required.
	Host core.Host
	// State overrides the default in-process state store.
	State core.StateStore
	// EventSink receives every emission in addition to the window channels.
	EventSink core.EventSink
	Logger    pslog.Logger
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	listener   net.Listener
}

// WithHTTP enables the HTTP invocation API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithHTTPListener enables the HTTP invocation API on an existing listener.
func WithHTTPListener(ln net.Listener) ServerOption {
	return func(o *serverOptions) {
		o.enableHTTP = true
		o.listener = ln
	}
}

type hostShutdowner interface {
	Shutdown()
}

// New constructs a composable optimus server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if deps.Host == nil {
		return nil, errors.New("host dependency is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	locations := cfg.Locations
	if len(locations) == 0 {
		locations = registry.DefaultLocations()
	}
	reg, err := registry.New(locations)
	if err != nil {
		return nil, err
	}

	bus := eventbus.NewWithDepth(logger, cfg.EventBufferDepth)
	var sink core.EventSink = bus
	if deps.EventSink != nil {
		sink = eventFanout{sinks: []core.EventSink{bus, deps.EventSink}}
	}

	service, err := core.NewService(cfg.Shell, core.ServiceDeps{
		Host:      deps.Host,
		Locations: reg,
		State:     deps.State,
		EventSink: sink,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.OpenPrimaryOnStart {
		primary, err := schema.NormalizeWindowName(string(cfg.PrimaryWindow))
		if err != nil {
			return nil, err
		}
		if !reg.Has(primary) {
			return nil, fmt.Errorf("%w: primary window %s", schema.ErrUnknownWindowName, primary)
		}
		cfg.PrimaryWindow = primary
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		cmdHandler := command.NewHandler(service, command.HandlerConfig{
			DisableAuditLogging: cfg.Shell.DisableAuditLogging,
		})
		httpSrv = httpapi.NewServer(cfg.HTTP, service, cmdHandler, bus)
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		host:    deps.Host,
		httpSrv: httpSrv,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	host    core.Host
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	waitErr error
	started bool
}

func (s *compositeServer) Service() core.Service {
	return s.service
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"primary", s.cfg.PrimaryWindow,
		"open_primary", s.cfg.OpenPrimaryOnStart,
	)

	g, gctx := errgroup.WithContext(s.ctx)
	if s.options.enableHTTP && s.httpSrv != nil {
		ln := s.options.listener
		if ln == nil {
			var err error
			ln, err = net.Listen("tcp", s.cfg.HTTP.Addr)
			if err != nil {
				log.Error("http listen failed", "err", err)
				s.cancel()
				close(s.done)
				return err
			}
		}
		handler := s.httpSrv.Handler()
		g.Go(func() error {
			if err := httpapi.Serve(gctx, ln, handler); err != nil {
				log.Error("http server failed", "err", err)
				return err
			}
			return nil
		})
	}
	go func() {
		<-gctx.Done()
		err := g.Wait()
		s.shutdownHost()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(s.done)
	}()

	if s.cfg.OpenPrimaryOnStart {
		resp, err := s.service.CreateOrFocusWindow(s.ctx, schema.CreateWindowRequest{Name: s.cfg.PrimaryWindow})
		if err != nil {
			log.Error("server primary window failed", "window", s.cfg.PrimaryWindow, "err", err)
		} else {
			log.Info("server primary window ready", "window", resp.Name, "created", resp.Created)
		}
	}
	return nil
}

func (s *compositeServer) shutdownHost() {
	closer, ok := s.host.(hostShutdowner)
	if !ok {
		return
	}
	closer.Shutdown()
	s.logger.Info("server host shut down")
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	done := s.done
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("server stopped")
		return nil
	}
}
