package core

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/optimus/internal/appstate"
	"pkt.systems/optimus/internal/logx"
	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// service implements the window orchestration behavior.
type service struct {
	cfg       schema.ShellConfig
	host      Host
	locations LocationResolver
	state     StateStore
	sink      EventSink
	targets   map[schema.WindowName]struct{}
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ShellConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeShellConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Host == nil {
		return nil, errors.New("host dependency is required")
	}
	if deps.Locations == nil {
		return nil, errors.New("location registry dependency is required")
	}
	if deps.State == nil {
		deps.State = appstate.New()
	}
	if deps.EventSink == nil {
		deps.EventSink = discardSink{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	targets := make(map[schema.WindowName]struct{}, len(cfg.CommandTargets))
	for _, target := range cfg.CommandTargets {
		targets[target] = struct{}{}
	}
	logger.Debug("service ready", "observer", cfg.ObserverWindow, "command_targets", len(targets), "debug", cfg.Debug)
	return &service{
		cfg:       cfg,
		host:      deps.Host,
		locations: deps.Locations,
		state:     deps.State,
		sink:      deps.EventSink,
		targets:   targets,
	}, nil
}

func (s *service) CreateOrFocusWindow(ctx context.Context, req schema.CreateWindowRequest) (schema.CreateWindowResponse, error) {
	if ctx == nil {
		return schema.CreateWindowResponse{}, errors.New("missing context")
	}
	name, err := schema.RequestedWindowName(string(req.Name))
	if err != nil {
		return schema.CreateWindowResponse{}, err
	}
	ctx = withRequestID(ctx)
	baseLog := logx.WithWindow(ctx, name)
	ctx = logx.ContextWithWindowLogger(ctx, baseLog, name)
	log := baseLog
	log.Info("service window request start")

	exists, err := s.host.WindowExists(ctx, name)
	if err != nil {
		log.Warn("service window lookup failed", "err", err)
		return schema.CreateWindowResponse{}, hostError("lookup", name, err)
	}

	resp := schema.CreateWindowResponse{Name: name}
	if !exists {
		handle, created, err := s.createWindow(ctx, name)
		if err != nil {
			log.Warn("service window create failed", "err", err)
			return schema.CreateWindowResponse{}, err
		}
		if created {
			resp.Created = true
			s.openDevtools(ctx, handle)
		}
		// Not created means another caller created it while we waited for
		// exclusive access; fall through to focus.
		exists = !created
	}
	if exists {
		if err := s.host.FocusWindow(ctx, name); err != nil {
			log.Warn("service window focus failed", "err", err)
			return schema.CreateWindowResponse{}, hostError("focus", name, err)
		}
		resp.Focused = true
		log.Info("service window focused")
	}

	// Observers hear about every activation, not only real creations.
	s.sink.Emit(s.cfg.ObserverWindow, schema.EventWindowCreated, string(name))
	s.sink.Emit(s.cfg.ObserverWindow, schema.EventCommandRequest, string(name))

	resp.WindowCount = s.state.Snapshot().WindowCount
	log.Info("service window request done", "created", resp.Created, "focused", resp.Focused, "window_count", resp.WindowCount)
	return resp, nil
}

// createWindow creates name under exclusive access to the app state. It
// reports created=false without error when the window appeared while the
// caller was waiting for access.
func (s *service) createWindow(ctx context.Context, name schema.WindowName) (schema.WindowHandle, bool, error) {
	log := logx.WithWindow(ctx, name)
	var handle schema.WindowHandle
	created := false
	err := s.state.WithExclusiveAccess(func(state *schema.AppState) error {
		exists, err := s.host.WindowExists(ctx, name)
		if err != nil {
			return hostError("lookup", name, err)
		}
		if exists {
			log.Debug("service window create skipped", "reason", "created concurrently")
			return nil
		}
		location, err := s.locations.Resolve(name)
		if err != nil {
			return err
		}
		spec := s.windowSpec(name, location)
		h, err := s.host.CreateWindow(ctx, spec)
		if err != nil {
			return hostError("create", name, err)
		}
		handle = h
		created = true
		count := state.IncrementWindowCount()
		logx.WithLocation(log, location).Info("service window created", "handle", h.ID, "window_count", count)
		return nil
	})
	if err != nil {
		return schema.WindowHandle{}, false, err
	}
	return handle, created, nil
}

func (s *service) windowSpec(name schema.WindowName, location schema.ContentLocation) schema.WindowSpec {
	opts := s.cfg.WindowOptions
	title := string(name)
	if opts.Title != "" {
		title = opts.Title
	}
	opts.Title = title
	return schema.WindowSpec{
		Name:     name,
		Title:    title,
		Location: location,
		Options:  opts,
	}
}

func (s *service) openDevtools(ctx context.Context, handle schema.WindowHandle) {
	if !s.cfg.Debug || !s.cfg.WindowOptions.DevtoolsOnDebug {
		return
	}
	log := logx.WithWindow(ctx, handle.Name)
	if err := s.host.OpenDevtools(ctx, handle); err != nil {
		log.Warn("service devtools open failed", "err", err)
		return
	}
	log.Debug("service devtools opened")
}

func (s *service) DispatchCommand(ctx context.Context, req schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error) {
	if ctx == nil {
		return schema.DispatchCommandResponse{}, errors.New("missing context")
	}
	ctx = withRequestID(ctx)
	target := req.Command.Target
	log := logx.WithWindow(ctx, target).With("args_len", len(req.Command.Args))
	if !s.cfg.DisableAuditLogging {
		log.Debug("audit command", "target", target, "args", req.Command.Args)
	}
	if req.Command.Args == "" {
		log.Debug("service command skipped", "reason", schema.DispatchReasonEmptyArgs)
		return schema.DispatchCommandResponse{Reason: schema.DispatchReasonEmptyArgs}, nil
	}
	if _, ok := s.targets[target]; !ok {
		log.Warn("service command skipped", "reason", schema.DispatchReasonUnrecognizedTarget, "err", schema.ErrUnrecognizedCommandTarget)
		return schema.DispatchCommandResponse{Reason: schema.DispatchReasonUnrecognizedTarget}, nil
	}
	s.sink.Emit(target, schema.EventTargetField, req.Command.Args)
	log.Info("service command dispatched", "event", schema.EventTargetField)
	return schema.DispatchCommandResponse{Emitted: true}, nil
}

func (s *service) ListWindows(ctx context.Context, _ schema.ListWindowsRequest) (schema.ListWindowsResponse, error) {
	if ctx == nil {
		return schema.ListWindowsResponse{}, errors.New("missing context")
	}
	names := s.locations.Names()
	windows := make([]schema.WindowSnapshot, 0, len(names))
	for _, name := range names {
		location, err := s.locations.Resolve(name)
		if err != nil {
			continue
		}
		open, err := s.host.WindowExists(ctx, name)
		if err != nil {
			logx.WithWindow(ctx, name).Warn("service window lookup failed", "err", err)
			open = false
		}
		windows = append(windows, schema.WindowSnapshot{Name: name, Location: location, Open: open})
	}
	return schema.ListWindowsResponse{
		Windows:     windows,
		WindowCount: s.state.Snapshot().WindowCount,
	}, nil
}

func (s *service) GetState(ctx context.Context, _ schema.GetStateRequest) (schema.GetStateResponse, error) {
	if ctx == nil {
		return schema.GetStateResponse{}, errors.New("missing context")
	}
	return schema.GetStateResponse{State: s.state.Snapshot()}, nil
}

func hostError(op string, name schema.WindowName, err error) error {
	if errors.Is(err, schema.ErrHostOperation) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %w", schema.ErrHostOperation, op, name, err)
}
