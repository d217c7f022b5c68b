package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/optimus/core"
	"pkt.systems/optimus/internal/command"
	"pkt.systems/optimus/internal/logx"
	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// CommandHandler routes command-line input.
type CommandHandler interface {
	Handle(ctx context.Context, input string) (command.Result, error)
}

// EventSource hands out per-window event channels.
type EventSource interface {
	Subscribe(window schema.WindowName) (<-chan schema.WindowEvent, func())
}

// Server serves the invocation API.
type Server struct {
	cfg        Config
	service    core.Service
	cmdHandler CommandHandler
	events     EventSource
	basePath   string
}

// CreateWindowPayload is the create_window response body.
type CreateWindowPayload struct {
	Name        schema.WindowName `json:"name"`
	Created     bool              `json:"created"`
	Focused     bool              `json:"focused"`
	WindowCount uint64            `json:"window_count"`
}

// CommandHandlingPayload is the command_handling response body.
type CommandHandlingPayload struct {
	Emitted bool   `json:"emitted"`
	Reason  string `json:"reason,omitempty"`
}

// WindowsPayload is the windows listing response body.
type WindowsPayload struct {
	Windows     []schema.WindowSnapshot `json:"windows"`
	WindowCount uint64                  `json:"window_count"`
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, service core.Service, handler CommandHandler, events EventSource) *Server {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	return &Server{
		cfg:        cfg,
		service:    service,
		cmdHandler: handler,
		events:     events,
		basePath:   normalizeBasePath(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/invoke/create_window", s.handleCreateWindow)
	mux.HandleFunc("/api/invoke/command_handling", s.handleCommandHandling)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/api/windows", s.handleWindows)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/events", s.handleEvents)

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	return root
}

func (s *Server) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := pslog.Ctx(r.Context())
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http create_window decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log = log.With("window", payload.Name)
	resp, err := s.service.CreateOrFocusWindow(r.Context(), schema.CreateWindowRequest{Name: schema.WindowName(payload.Name)})
	if err != nil {
		log.Warn("http create_window failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, CreateWindowPayload{
		Name:        resp.Name,
		Created:     resp.Created,
		Focused:     resp.Focused,
		WindowCount: resp.WindowCount,
	})
	log.Info("http create_window ok", "created", resp.Created)
}

func (s *Server) handleCommandHandling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := pslog.Ctx(r.Context())
	var payload struct {
		Command string `json:"command"`
		Args    string `json:"args"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http command_handling decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.DispatchCommand(r.Context(), schema.DispatchCommandRequest{
		Command: schema.Command{Target: schema.WindowName(payload.Command), Args: payload.Args},
	})
	if err != nil {
		log.Warn("http command_handling failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, CommandHandlingPayload{Emitted: resp.Emitted, Reason: resp.Reason})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := pslog.Ctx(r.Context())
	if s.cmdHandler == nil {
		writeError(w, http.StatusNotImplemented, errors.New("command line not available"))
		return
	}
	var payload struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http command decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log = log.With("input_len", len(payload.Input))
	result, err := s.cmdHandler.Handle(r.Context(), payload.Input)
	if err != nil {
		log.Warn("http command failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
	log.Info("http command ok", "command", result.Command)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.ListWindows(r.Context(), schema.ListWindowsRequest{})
	if err != nil {
		pslog.Ctx(r.Context()).Warn("http windows failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, WindowsPayload{Windows: resp.Windows, WindowCount: resp.WindowCount})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.GetState(r.Context(), schema.GetStateRequest{})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window_count": resp.State.WindowCount})
}

// handleEvents streams one window's events as Server-Sent Events. Events
// emitted while no stream is open for the window are not replayed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.events == nil {
		writeError(w, http.StatusNotImplemented, errors.New("event stream not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	name, err := schema.NormalizeWindowName(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log := logx.WithWindow(r.Context(), name)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.events.Subscribe(name)
	defer unsubscribe()
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": listening\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.cfg.KeepAlive)
	defer ticker.Stop()
	notify := r.Context().Done()
	log.Info("http stream opened")
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				log.Info("http stream ended", "reason", "unsubscribed")
				return
			}
			if err := writeSSEvent(w, event); err != nil {
				log.Warn("http stream write failed", "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrUnknownWindowName):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrHostOperation):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event schema.WindowEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event.Name)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}
