// MediBook admin console server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Goutam990/medibook-console/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slog.ErrorContext(ctx, "Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg       *config.Config
	logCloser io.Closer
}

func rootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "medibook",
		Short:         "MediBook admin console",
		Long:          "Server-rendered admin console for the MediBook appointment booking API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	serve := serveCmd(a)
	root.AddCommand(serve, sessionCmd(a))

	// Running the bare binary starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func (a *app) init(ctx context.Context) error {
	if err := godotenv.Load(); err != nil {
		slog.InfoContext(ctx, "No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	logger, closer := newLogger(cfg.Log)
	slog.SetDefault(logger)
	a.logCloser = closer
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// newLogger builds the process logger: JSON records, request-scoped
// attributes pulled from the context, and a rotated file when configured.
func newLogger(lc config.LogConfig) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		w, closer = lj, lj
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lc.Level})
	return slog.New(slogctx.NewHandler(h, nil)), closer
}
