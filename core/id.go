package core

import (
	"context"

	"github.com/google/uuid"

	"pkt.systems/optimus/internal/logx"
	"pkt.systems/optimus/schema"
)

func newRequestID() schema.RequestID {
	return schema.RequestID(uuid.NewString())
}

// withRequestID tags ctx with a fresh request id unless one is already set.
func withRequestID(ctx context.Context) context.Context {
	if logx.RequestFromContext(ctx) != "" {
		return ctx
	}
	return logx.ContextWithRequest(ctx, newRequestID())
}
