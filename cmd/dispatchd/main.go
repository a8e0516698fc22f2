// Command dispatchd serves the operation dispatcher over HTTP.
//
// Usage:
//
//	dispatchd            serve (default)
//	dispatchd serve      serve until SIGINT/SIGTERM, then shut down gracefully
//	dispatchd migrate    apply the embedded database migrations and exit
//
// Configuration comes from DISPATCH_* environment variables and an
// optional .env file.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/go-dispatch/internal/config"
	"github.com/deppfellow/go-dispatch/internal/logger"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg           *config.Config
	loggerService *logger.LoggerService
	log           zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dispatchd",
		Short:         "Serve registered operations behind a single dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.loggerService.Shutdown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(a), newMigrateCmd(a))

	return root
}

// load reads the configuration and builds the logger.
// Invalid configuration is fatal.
func (a *app) load() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		bootstrap.Fatal().Err(err).Msg("could not load config")
	}

	a.cfg = cfg
	a.loggerService = logger.NewLoggerService(cfg.Observability)
	a.log = logger.NewLoggerWithService(cfg.Observability, a.loggerService)
}
