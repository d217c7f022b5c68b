package schema

// WindowSnapshot is a read-only view of one registered window.
type WindowSnapshot struct {
	Name     WindowName      `json:"name"`
	Location ContentLocation `json:"location"`
	Open     bool            `json:"open"`
}
