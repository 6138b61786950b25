// +build !logless

// Package logger provides the structured logger used by the orchestrator
// and the CLI harness to trace block/tile progress and report
// verification results.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
)

// Log is the package-level logger. A caller that wants quieter output
// raises the level via zerolog.SetGlobalLevel, as convsim's -quiet flag
// does.
var Log = logger.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
