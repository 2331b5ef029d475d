// Package dpp implements the validation and execution core of state
// transitions: every rule is selected through a protocol version table and
// every outcome is deterministic across nodes.
package dpp

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.DebugLevel)

// PromCollectors exposes Prometheus collectors created in the packages. The
// list is filled during package initialization and served by the daemon.
var PromCollectors []prometheus.Collector
