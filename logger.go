package qsim

import (
	"os"

	"github.com/charmbracelet/log"
)

// newLogger returns the engine's structured logger at the configured level.
func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "qsim",
		ReportTimestamp: true,
	})

	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	return logger
}
