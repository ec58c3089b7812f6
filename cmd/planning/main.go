package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/config"
	httptransport "github.com/example/association-planning/internal/http"
	"github.com/example/association-planning/internal/logging"
	"github.com/example/association-planning/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// environment carries what every command needs before it runs.
type environment struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	env := &environment{out: out}

	cmd := &cobra.Command{
		Use:           "planning",
		Short:         "Opening and closing roster of the association, with member absences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogFormat, cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env)
		},
	}

	cmd.AddCommand(newServeCmd(env))
	cmd.AddCommand(newMigrateCmd(env))
	cmd.AddCommand(newConsolidateCmd(env))
	cmd.AddCommand(newExportCmd(env))
	return cmd
}

func newServeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env)
		},
	}
}

func newMigrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), env)
		},
	}
}

func newConsolidateCmd(env *environment) *cobra.Command {
	var memberID string
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge overlapping or adjacent stored absences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(cmd.Context(), env, memberID)
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "Only consolidate this member's absences")
	return cmd
}

func newExportCmd(env *environment) *cobra.Command {
	var start, end, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the schedule of a date range to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := calendar.ParseDate(start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			to, err := calendar.ParseDate(end)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			return runExport(cmd.Context(), env, from, to, outPath)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "Last date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runServe(ctx context.Context, env *environment) error {
	logger := env.logger
	a, err := openApp(ctx, env.cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if env.cfg.ConsolidateOnStart {
		if _, err := a.consolidateAbsences(ctx, ""); err != nil {
			logger.WarnContext(ctx, "startup consolidation failed", "error", err)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Members:        httptransport.NewMemberHandler(a.members, logger),
		Absences:       httptransport.NewAbsenceHandler(a.absences, a.planning, logger),
		Assignments:    httptransport.NewAssignmentHandler(a.assignments, logger),
		Planning:       httptransport.NewPlanningHandler(a.planning, logger),
		Metrics:        metrics.Handler(),
		Health:         a.storage.Ping,
		CORSOrigins:    env.cfg.CORSOrigins,
		WriteRateLimit: env.cfg.RateLimit,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              env.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planning API listening", "addr", server.Addr, "timezone", env.cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	logger.Info("planning API stopped")
	return nil
}

func runMigrate(ctx context.Context, env *environment) error {
	a, err := openApp(ctx, env.cfg, env.logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.storage.MigrationStatus(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.out, "schema version %s, %d migration(s) applied\n", status.CurrentVersion, len(status.Applied))
	return err
}

func runConsolidate(ctx context.Context, env *environment, memberID string) error {
	a, err := openApp(ctx, env.cfg, env.logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.consolidateAbsences(ctx, memberID)
	for _, r := range results {
		if _, werr := fmt.Fprintf(env.out, "%s\t%d -> %d\n", r.MemberID, r.Before, r.After); werr != nil {
			return werr
		}
	}
	return err
}

func runExport(ctx context.Context, env *environment, start, end calendar.Date, outPath string) error {
	a, err := openApp(ctx, env.cfg, env.logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.planning.ExportSchedule(ctx, start, end)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	_, err = fmt.Fprintf(env.out, "wrote %s (%d days)\n", outPath, start.DaysUntil(end)+1)
	return err
}
