package core

import "pkt.systems/pslog"

// ServiceDeps captures dependencies for the core service. Host and
// Locations are required.
type ServiceDeps struct {
	Host      Host
	Locations LocationResolver
	State     StateStore
	EventSink EventSink
	Logger    pslog.Logger
}
