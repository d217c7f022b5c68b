package core

import (
	"context"

	"pkt.systems/optimus/schema"
)

// Service is the transport-agnostic API for orchestrating shell windows.
type Service interface {
	CreateOrFocusWindow(ctx context.Context, req schema.CreateWindowRequest) (schema.CreateWindowResponse, error)
	DispatchCommand(ctx context.Context, req schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error)
	ListWindows(ctx context.Context, req schema.ListWindowsRequest) (schema.ListWindowsResponse, error)
	GetState(ctx context.Context, req schema.GetStateRequest) (schema.GetStateResponse, error)
}

// Host is the window/webview runtime the service drives. Create and focus
// may block while the host works; everything else in the service is fast.
type Host interface {
	WindowExists(ctx context.Context, name schema.WindowName) (bool, error)
	FocusWindow(ctx context.Context, name schema.WindowName) error
	CreateWindow(ctx context.Context, spec schema.WindowSpec) (schema.WindowHandle, error)
	OpenDevtools(ctx context.Context, handle schema.WindowHandle) error
}

// LocationResolver maps window names to content locations.
type LocationResolver interface {
	Resolve(name schema.WindowName) (schema.ContentLocation, error)
	Names() []schema.WindowName
}

// StateStore guards the process-wide AppState.
type StateStore interface {
	WithExclusiveAccess(fn func(state *schema.AppState) error) error
	Snapshot() schema.AppState
}
