package schema

import "time"

// EventName identifies a window-level event.
type EventName string

const (
	// EventWindowCreated is sent to the observer window on every create-or-focus.
	EventWindowCreated EventName = "window_created"
	// EventCommandRequest is sent to the observer window after each create-or-focus.
	EventCommandRequest EventName = "cmd_request"
	// EventTargetField carries command arguments to a target window.
	EventTargetField EventName = "target_field"
)

// WindowEvent is a message delivered to a single window's channel.
type WindowEvent struct {
	Seq       uint64     `json:"seq"`
	Target    WindowName `json:"target"`
	Name      EventName  `json:"event"`
	Payload   string     `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}
