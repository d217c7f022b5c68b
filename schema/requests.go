package schema

// CreateWindowRequest asks for a window to be created or focused.
type CreateWindowRequest struct {
	Name WindowName
}

// CreateWindowResponse reports which branch was taken.
type CreateWindowResponse struct {
	Name        WindowName
	Created     bool
	Focused     bool
	WindowCount uint64
}

// DispatchCommandRequest forwards a payload to a target window.
type DispatchCommandRequest struct {
	Command Command
}

// DispatchCommandResponse reports whether an event was emitted.
type DispatchCommandResponse struct {
	Emitted bool
	Reason  string
}

// Reasons reported when a command produced no event.
const (
	DispatchReasonEmptyArgs          = "empty args"
	DispatchReasonUnrecognizedTarget = "unrecognized target"
)

// ListWindowsRequest asks for the registry and open-window view.
type ListWindowsRequest struct{}

// ListWindowsResponse describes registered windows.
type ListWindowsResponse struct {
	Windows     []WindowSnapshot
	WindowCount uint64
}

// GetStateRequest asks for the orchestration state.
type GetStateRequest struct{}

// GetStateResponse reports the orchestration state.
type GetStateResponse struct {
	State AppState
}
