package pipeline

import (
	"log/slog"

	"github.com/gogpu/framegraph"
)

// slogger returns the shared framegraph logger.
func slogger() *slog.Logger { return framegraph.Logger() }
