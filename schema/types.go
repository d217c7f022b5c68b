package schema

// WindowName identifies a logical window role (e.g. "im", "dashboard").
type WindowName string

// ContentLocation is the URL or path a window is initialized with.
type ContentLocation string

// WindowID identifies a live window inside the host.
type WindowID string

// RequestID correlates log lines for a single invocation.
type RequestID string

// WindowOptions are the creation options handed to the host.
type WindowOptions struct {
	Decorations     bool    `json:"decorations"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	DevtoolsOnDebug bool    `json:"devtools_on_debug"`
	Title           string  `json:"title,omitempty"`
}

// Default window geometry.
const (
	DefaultWindowWidth  = 1200.0
	DefaultWindowHeight = 800.0
)

// DefaultWindowOptions returns the options every orchestrated window starts with.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		Decorations:     false,
		Width:           DefaultWindowWidth,
		Height:          DefaultWindowHeight,
		DevtoolsOnDebug: true,
	}
}

// WindowSpec is a request to the host to create one window.
type WindowSpec struct {
	Name     WindowName
	Title    string
	Location ContentLocation
	Options  WindowOptions
}

// WindowHandle refers to a window owned by the host.
type WindowHandle struct {
	Name WindowName
	ID   WindowID
}

// AppState is the process-wide orchestration state.
type AppState struct {
	WindowCount uint64
}

// IncrementWindowCount records one created window.
func (s *AppState) IncrementWindowCount() uint64 {
	s.WindowCount++
	return s.WindowCount
}

// Command carries a payload for a target window.
type Command struct {
	Target WindowName
	Args   string
}
