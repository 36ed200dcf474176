// Command pdptracker-admin inspects and maintains the records database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pdptracker/internal/backend"
	"pdptracker/internal/cli"
	"pdptracker/internal/config"
	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/roster"
	"pdptracker/internal/services"
	"pdptracker/internal/state"
)

var (
	timeout time.Duration
	logger  *log.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pdptracker-admin",
	Short: "Maintenance commands for the PDP tracker",
	Long: `pdptracker-admin works directly on the configured record backend.

It reads the same environment (and .env file) as the server, so
DATA_BACKEND=sqlite and SQLITE_DB_PATH select the database to operate on.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		logger = cli.SetupLogger(log.ComponentApp)
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(seedCmd, summaryCmd, historyCmd, pendingCmd, analyzeCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is an open backend plus the services built on it.
type session struct {
	records *services.RecordService
	agg     core.Aggregator
	cleanup backend.CleanupFunc
}

// openSession connects to the configured backend. Admin writes are not
// announced on the message broker.
func openSession(ctx context.Context) (*session, error) {
	people, err := roster.Load(cfg.RosterFile)
	if err != nil {
		return nil, err
	}
	prices, err := cfg.Prices()
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.AMQPURL = ""
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend selected; nothing is read from or written to disk")
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return &session{
		records: services.NewRecordService(result.Store, nil),
		agg:     core.NewAggregator(people, prices),
		cleanup: result.Cleanup,
	}, nil
}

func (s *session) Close() {
	if err := s.cleanup(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
}

// loadState reads every collection into a state container without seeding.
func (s *session) loadState(ctx context.Context) (*state.Store, error) {
	st := state.New(s.records, s.agg, state.Options{})
	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
