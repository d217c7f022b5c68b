package httpapi

import "time"

// Config defines HTTP API settings.
type Config struct {
	Addr     string
	BasePath string
	// KeepAlive is the interval between SSE comment frames. Zero uses a default.
	KeepAlive time.Duration
}

const (
	defaultKeepAlive = 15 * time.Second
	shutdownTimeout  = 5 * time.Second
)
