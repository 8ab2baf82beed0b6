package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the server hosting a producer handler
// (api/server). cmd/flags builds it from the command line.
type HTTPServerConfig struct {
	// ListenAddr serves the producer endpoints and the health and drain routes.
	ListenAddr string

	// MetricsAddr serves /metrics. Empty disables the metrics listener.
	MetricsAddr string

	// EnablePprof mounts /debug/pprof on ListenAddr.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long /drain keeps reporting not ready before the
	// drain is logged as complete, so load balancers stop sending secrets
	// manager traffic first.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds how long Shutdown waits for in-flight
	// create, revoke and rotate calls.
	GracefulShutdownDuration time.Duration

	// ReadTimeout covers reading the whole request, body included.
	ReadTimeout time.Duration

	// WriteTimeout covers writing the response, so it must exceed the slowest
	// producer callable.
	WriteTimeout time.Duration
}
