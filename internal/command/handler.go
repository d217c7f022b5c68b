package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/optimus/core"
	"pkt.systems/optimus/internal/logx"
	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// HandlerConfig configures command-line behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// Result is the text produced by a handled command.
type Result struct {
	Command string   `json:"command"`
	Lines   []string `json:"lines"`
}

// Handler routes command-line input to service operations.
type Handler struct {
	service core.Service
	cfg     HandlerConfig
}

// NewHandler constructs a command handler.
func NewHandler(service core.Service, cfg HandlerConfig) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// Handle parses input and executes it. Built-in verbs are matched
// case-insensitively; anything else is dispatched as a command to the window
// named by the first token.
func (h *Handler) Handle(ctx context.Context, input string) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("missing context")
	}
	line, ok := Parse(input)
	if !ok {
		return Result{}, fmt.Errorf("%w: empty command", schema.ErrInvalidRequest)
	}
	log := pslog.Ctx(ctx).With("command", line.Name, "args", len(line.Args))
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "line", "input", line.Raw)
	}
	log.Info("command line request")
	switch strings.ToLower(line.Name) {
	case "open", "window":
		return h.handleOpen(ctx, line)
	case "send":
		return h.handleSend(ctx, line)
	case "windows":
		return h.handleWindows(ctx)
	case "status":
		return h.handleStatus(ctx)
	case "help":
		return Result{Command: "help", Lines: helpLines()}, nil
	default:
		return h.dispatch(ctx, line.Name, line.Name, line.Args)
	}
}

func (h *Handler) handleOpen(ctx context.Context, line Line) (Result, error) {
	if len(line.Args) != 1 {
		return Result{}, fmt.Errorf("%w: usage: open <window>", schema.ErrInvalidRequest)
	}
	name := schema.WindowName(line.Args[0])
	log := logx.WithWindow(ctx, name)
	resp, err := h.service.CreateOrFocusWindow(ctx, schema.CreateWindowRequest{Name: name})
	if err != nil {
		log.Warn("command open failed", "err", err)
		return Result{}, err
	}
	verb := "focused"
	if resp.Created {
		verb = "created"
	}
	log.Info("command open completed", "created", resp.Created)
	return Result{
		Command: "open",
		Lines:   []string{fmt.Sprintf("window %s %s (windows created: %d)", resp.Name, verb, resp.WindowCount)},
	}, nil
}

func (h *Handler) handleSend(ctx context.Context, line Line) (Result, error) {
	if len(line.Args) < 1 {
		return Result{}, fmt.Errorf("%w: usage: send <window> <args...>", schema.ErrInvalidRequest)
	}
	return h.dispatch(ctx, "send", line.Args[0], line.Args[1:])
}

func (h *Handler) dispatch(ctx context.Context, command, target string, args []string) (Result, error) {
	cmd := schema.Command{Target: schema.WindowName(target), Args: strings.Join(args, " ")}
	log := logx.WithWindow(ctx, cmd.Target)
	resp, err := h.service.DispatchCommand(ctx, schema.DispatchCommandRequest{Command: cmd})
	if err != nil {
		log.Warn("command dispatch failed", "err", err)
		return Result{}, err
	}
	if !resp.Emitted {
		log.Info("command dispatch skipped", "reason", resp.Reason)
		return Result{Command: command, Lines: []string{fmt.Sprintf("nothing sent to %s: %s", cmd.Target, resp.Reason)}}, nil
	}
	return Result{Command: command, Lines: []string{fmt.Sprintf("sent to %s", cmd.Target)}}, nil
}

func (h *Handler) handleWindows(ctx context.Context) (Result, error) {
	resp, err := h.service.ListWindows(ctx, schema.ListWindowsRequest{})
	if err != nil {
		pslog.Ctx(ctx).Warn("command windows failed", "err", err)
		return Result{}, err
	}
	lines := make([]string, 0, len(resp.Windows))
	for _, win := range resp.Windows {
		state := "closed"
		if win.Open {
			state = "open"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", win.Name, state, win.Location))
	}
	if len(lines) == 0 {
		lines = append(lines, "no windows registered")
	}
	return Result{Command: "windows", Lines: lines}, nil
}

func (h *Handler) handleStatus(ctx context.Context) (Result, error) {
	resp, err := h.service.GetState(ctx, schema.GetStateRequest{})
	if err != nil {
		return Result{}, err
	}
	return Result{Command: "status", Lines: []string{fmt.Sprintf("windows created: %d", resp.State.WindowCount)}}, nil
}

func helpLines() []string {
	return []string{
		"open <window>            create or focus a window",
		"window <window>          alias for open",
		"send <window> <args...>  send args to a window",
		"windows                  list registered windows",
		"status                   show orchestration state",
		"<window> <args...>       send args to a window",
	}
}
