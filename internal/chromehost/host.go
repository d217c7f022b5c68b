// Package chromehost hosts shell windows as Chrome targets driven over the
// DevTools protocol.
package chromehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// Config controls the browser process backing the host.
type Config struct {
	// ExecPath overrides the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string
	// BaseURL resolves relative content locations.
	BaseURL string
	// Headless runs the browser without visible windows.
	Headless bool
	// NoSandbox disables the Chrome sandbox (containers, CI).
	NoSandbox bool
	// UserDataDir keeps the browser profile. Empty uses a temporary profile.
	UserDataDir string
	// Debug opens devtools for every new target.
	Debug bool
}

type window struct {
	handle schema.WindowHandle
	target target.ID
	ctx    context.Context
	cancel context.CancelFunc
}

// Host owns one browser process and one target per logical window.
type Host struct {
	cfg  Config
	base *url.URL
	log  pslog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	windows map[schema.WindowName]*window
	closed  bool
}

// New launches the browser. The browser lives until Shutdown is called or ctx
// is cancelled.
func New(ctx context.Context, cfg Config, logger pslog.Logger) (*Host, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	var base *url.URL
	if strings.TrimSpace(cfg.BaseURL) != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !parsed.IsAbs() {
			return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
		}
		base = parsed
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	logger.Info("chromehost browser started", "headless", cfg.Headless, "debug", cfg.Debug, "base_url", cfg.BaseURL)
	return &Host{
		cfg:           cfg,
		base:          base,
		log:           logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		windows:       make(map[schema.WindowName]*window),
	}, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+5)
	for _, opt := range chromedp.DefaultExecAllocatorOptions {
		opts = append(opts, opt)
	}
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.Debug {
		opts = append(opts, chromedp.Flag("auto-open-devtools-for-tabs", true))
	}
	return opts
}

// ResolveLocation turns a registry location into the URL a target navigates
// to. Absolute URLs pass through; relative paths are resolved against base.
func ResolveLocation(base *url.URL, location schema.ContentLocation) (string, error) {
	raw := strings.TrimSpace(string(location))
	if raw == "" {
		return "", errors.New("empty location")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if base == nil {
		return "", fmt.Errorf("relative location %q needs a base url", raw)
	}
	return base.ResolveReference(ref).String(), nil
}

// WindowExists reports whether the target for name is still alive in the
// browser. Targets closed by the user are forgotten.
func (h *Host) WindowExists(ctx context.Context, name schema.WindowName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	h.mu.Lock()
	win, ok := h.windows[name]
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return false, schema.ErrHostClosed
	}
	if !ok {
		return false, nil
	}
	alive, err := h.targetAlive(win.target)
	if err != nil {
		return false, err
	}
	if !alive {
		h.forget(name, win)
		h.log.With("window", name).Info("chromehost window closed externally", "target", win.target)
	}
	return alive, nil
}

func (h *Host) targetAlive(id target.ID) (bool, error) {
	infos, err := chromedp.Targets(h.browserCtx)
	if err != nil {
		return false, fmt.Errorf("list targets: %w", err)
	}
	for _, info := range infos {
		if info.TargetID == id {
			return true, nil
		}
	}
	return false, nil
}

func (h *Host) forget(name schema.WindowName, win *window) {
	h.mu.Lock()
	if current, ok := h.windows[name]; ok && current == win {
		delete(h.windows, name)
	}
	h.mu.Unlock()
	win.cancel()
}

// FocusWindow brings the target for name to the front.
func (h *Host) FocusWindow(ctx context.Context, name schema.WindowName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	win, err := h.lookup(name)
	if err != nil {
		return err
	}
	if err := chromedp.Run(win.ctx, page.BringToFront()); err != nil {
		return fmt.Errorf("bring to front: %w", err)
	}
	h.log.With("window", name).Debug("chromehost window focused", "target", win.target)
	return nil
}

// CreateWindow opens a new browser window for spec and navigates it to the
// resolved location.
func (h *Host) CreateWindow(ctx context.Context, spec schema.WindowSpec) (schema.WindowHandle, error) {
	if err := ctx.Err(); err != nil {
		return schema.WindowHandle{}, err
	}
	dest, err := ResolveLocation(h.base, spec.Location)
	if err != nil {
		return schema.WindowHandle{}, err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return schema.WindowHandle{}, schema.ErrHostClosed
	}
	_, exists := h.windows[spec.Name]
	h.mu.Unlock()
	if exists {
		return schema.WindowHandle{}, fmt.Errorf("%w: %s", schema.ErrWindowExists, spec.Name)
	}

	browser := chromedp.FromContext(h.browserCtx).Browser
	create := target.CreateTarget("about:blank").WithNewWindow(true)
	if spec.Options.Width > 0 && spec.Options.Height > 0 {
		create = create.WithWidth(int64(spec.Options.Width)).WithHeight(int64(spec.Options.Height))
	}
	id, err := create.Do(cdp.WithExecutor(h.browserCtx, browser))
	if err != nil {
		return schema.WindowHandle{}, fmt.Errorf("create target: %w", err)
	}
	tabCtx, tabCancel := chromedp.NewContext(h.browserCtx, chromedp.WithTargetID(id))
	actions := []chromedp.Action{chromedp.Navigate(dest)}
	if spec.Title != "" {
		title, _ := json.Marshal(spec.Title)
		actions = append(actions, chromedp.Evaluate("document.title = "+string(title), nil))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		return schema.WindowHandle{}, fmt.Errorf("navigate %s: %w", dest, err)
	}
	handle := schema.WindowHandle{Name: spec.Name, ID: schema.WindowID(id)}
	h.mu.Lock()
	h.windows[spec.Name] = &window{handle: handle, target: id, ctx: tabCtx, cancel: tabCancel}
	h.mu.Unlock()
	h.log.With("window", spec.Name).Info("chromehost window created", "target", id, "url", dest)
	return handle, nil
}

// OpenDevtools succeeds when the browser was launched in debug mode, where
// devtools open with every target. DevTools cannot be opened over the
// protocol afterwards.
func (h *Host) OpenDevtools(ctx context.Context, handle schema.WindowHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	win, err := h.lookup(handle.Name)
	if err != nil {
		return err
	}
	if win.handle.ID != handle.ID {
		return fmt.Errorf("%w: %s", schema.ErrWindowNotFound, handle.ID)
	}
	if !h.cfg.Debug {
		return errors.New("devtools require a browser started in debug mode")
	}
	return nil
}

func (h *Host) lookup(name schema.WindowName) (*window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, schema.ErrHostClosed
	}
	win, ok := h.windows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrWindowNotFound, name)
	}
	return win, nil
}

// Shutdown closes every window and stops the browser process.
func (h *Host) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	windows := h.windows
	h.windows = make(map[schema.WindowName]*window)
	h.mu.Unlock()
	for _, win := range windows {
		win.cancel()
	}
	h.browserCancel()
	h.allocCancel()
	h.log.Info("chromehost browser stopped", "windows", len(windows))
}
