// Package main provides the entry point for the archivist CLI.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/archivable/internal/cli"
)

var Version = "dev"

func main() {
	// Setup logging; the root command reapplies it once config is loaded.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cli.Version = Version
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
