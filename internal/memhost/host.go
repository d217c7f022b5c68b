// Package memhost is an in-memory window host. It backs headless runs of
// the shell and the orchestration tests.
package memhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// Window is a live window held by the host.
type Window struct {
	Handle       schema.WindowHandle
	Spec         schema.WindowSpec
	CreatedAt    time.Time
	Focuses      int
	DevtoolsOpen bool
}

// CreateHook runs before a window is recorded. A non-nil error fails the
// creation.
type CreateHook func(ctx context.Context, spec schema.WindowSpec) error

// Host tracks windows in memory.
type Host struct {
	mu         sync.RWMutex
	windows    map[schema.WindowName]*Window
	focused    schema.WindowName
	nextID     int
	created    int
	closed     bool
	createHook CreateHook
	focusErr   error
	log        pslog.Logger
	now        func() time.Time
}

// New constructs an empty host.
func New(logger pslog.Logger) *Host {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Host{
		windows: make(map[schema.WindowName]*Window),
		nextID:  1,
		log:     logger,
		now:     time.Now,
	}
}

// SetCreateHook installs fn to run before each window creation.
func (h *Host) SetCreateHook(fn CreateHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.createHook = fn
}

// SetFocusError makes FocusWindow fail with err until cleared with nil.
func (h *Host) SetFocusError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focusErr = err
}

// WindowExists reports whether a window named name is open.
func (h *Host) WindowExists(ctx context.Context, name schema.WindowName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false, schema.ErrHostClosed
	}
	_, ok := h.windows[name]
	return ok, nil
}

// FocusWindow focuses the named window.
func (h *Host) FocusWindow(ctx context.Context, name schema.WindowName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return schema.ErrHostClosed
	}
	if h.focusErr != nil {
		return h.focusErr
	}
	win, ok := h.windows[name]
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrWindowNotFound, name)
	}
	win.Focuses++
	h.focused = name
	h.log.With("window", name).Debug("memhost window focused", "focuses", win.Focuses)
	return nil
}

// CreateWindow opens a new window. Names are unique among open windows.
func (h *Host) CreateWindow(ctx context.Context, spec schema.WindowSpec) (schema.WindowHandle, error) {
	if err := ctx.Err(); err != nil {
		return schema.WindowHandle{}, err
	}
	h.mu.RLock()
	hook := h.createHook
	h.mu.RUnlock()
	if hook != nil {
		if err := hook(ctx, spec); err != nil {
			return schema.WindowHandle{}, err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return schema.WindowHandle{}, schema.ErrHostClosed
	}
	if _, exists := h.windows[spec.Name]; exists {
		return schema.WindowHandle{}, fmt.Errorf("%w: %s", schema.ErrWindowExists, spec.Name)
	}
	handle := schema.WindowHandle{
		Name: spec.Name,
		ID:   schema.WindowID(fmt.Sprintf("win-%d", h.nextID)),
	}
	h.nextID++
	h.created++
	h.windows[spec.Name] = &Window{
		Handle:    handle,
		Spec:      spec,
		CreatedAt: h.now(),
	}
	h.focused = spec.Name
	h.log.With("window", spec.Name).Debug("memhost window created", "id", handle.ID, "location", spec.Location)
	return handle, nil
}

// OpenDevtools marks devtools open on the window.
func (h *Host) OpenDevtools(ctx context.Context, handle schema.WindowHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	win, ok := h.windows[handle.Name]
	if !ok || win.Handle.ID != handle.ID {
		return fmt.Errorf("%w: %s", schema.ErrWindowNotFound, handle.Name)
	}
	win.DevtoolsOpen = true
	return nil
}

// Close removes a window, as if the user closed it.
func (h *Host) Close(name schema.WindowName) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[name]; !ok {
		return fmt.Errorf("%w: %s", schema.ErrWindowNotFound, name)
	}
	delete(h.windows, name)
	if h.focused == name {
		h.focused = ""
	}
	h.log.With("window", name).Debug("memhost window closed")
	return nil
}

// Shutdown closes every window and rejects further calls.
func (h *Host) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows = make(map[schema.WindowName]*Window)
	h.focused = ""
	h.closed = true
}

// Window returns a copy of the named window.
func (h *Host) Window(name schema.WindowName) (Window, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	win, ok := h.windows[name]
	if !ok {
		return Window{}, false
	}
	return *win, true
}

// Open returns the number of open windows.
func (h *Host) Open() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.windows)
}

// Created returns the number of windows ever created.
func (h *Host) Created() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.created
}

// Focused returns the focused window name.
func (h *Host) Focused() schema.WindowName {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.focused
}
