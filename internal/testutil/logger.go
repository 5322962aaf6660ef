package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. Registry, router, and
// session tests use it to keep suite output readable.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
