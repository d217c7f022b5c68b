package optimus

import (
	"pkt.systems/optimus/core"
	"pkt.systems/optimus/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) Emit(target schema.WindowName, name schema.EventName, payload string) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.Emit(target, name, payload)
	}
}
