package core

import "pkt.systems/optimus/schema"

// EventSink receives window events from the core service. Emit is fire and
// forget: implementations must not block and report no delivery status.
type EventSink interface {
	Emit(target schema.WindowName, name schema.EventName, payload string)
}

type discardSink struct{}

func (discardSink) Emit(schema.WindowName, schema.EventName, string) {}
