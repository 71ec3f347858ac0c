package app

import (
	"os"

	"service-dispatch/internal/config"
	"service-dispatch/internal/logx"
)

// NewLogger returns the JSON process logger at the configured level.
func NewLogger(cfg *config.Config) logx.Logger {
	return logx.NewJSON(os.Stdout, cfg.LogLevel).With(logx.String("service", "service-dispatch"))
}
