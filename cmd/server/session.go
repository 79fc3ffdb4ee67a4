package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Goutam990/medibook-console/internal/session"
	"github.com/Goutam990/medibook-console/internal/store"
)

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the session stored on this device",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored session",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSessions(cmd.Context(), func(ctx context.Context, s *session.Store) error {
					snap := s.Snapshot()
					out := map[string]any{
						"authenticated": snap.IsAuthenticated(),
						"role":          snap.Role().String(),
						"user":          snap.User,
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Log this device out locally without contacting the API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSessions(cmd.Context(), func(ctx context.Context, s *session.Store) error {
					if err := s.Clear(ctx); err != nil {
						return err
					}
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
					return err
				})
			},
		},
	)
	return cmd
}

// withSessions opens device storage, restores the session and runs fn.
func (a *app) withSessions(ctx context.Context, fn func(context.Context, *session.Store) error) error {
	storage, err := store.NewSQLite(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open device storage: %w", err)
	}
	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			slog.Error("Failed to close device storage", "error", closeErr)
		}
	}()

	s := session.New(storage, slog.Default())
	s.Restore(ctx)
	return fn(ctx, s)
}
