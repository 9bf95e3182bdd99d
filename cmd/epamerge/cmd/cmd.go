// Package cmd implements the epamerge subcommands. Commands receive
// their dependencies through the App interface so they stay decoupled
// from the app package's wiring.
package cmd

import (
	"github.com/rs/zerolog"

	"github.com/cbme/epamerge/pkg/pipeline"
)

// App provides the dependencies commands need from the application.
type App interface {
	// Logger returns the application logger.
	Logger() *zerolog.Logger

	// Version information.
	Version() string
	Commit() string
	Date() string
	BuiltBy() string

	// PipelineDefaults returns the pipeline configuration from config
	// file and environment, before flag overrides.
	PipelineDefaults() pipeline.Config

	// ColorDisabled reports whether colored output is disabled.
	ColorDisabled() bool
}
