package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/bootstrap"
	"github.com/draftline/draftline-go/internal/data"
	"github.com/draftline/draftline-go/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultMigrationTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrationsCommand,
		},
		"queue-stats": {
			name:        "queue-stats",
			description: "Show pending, ready, and dead-letter counts for the publication queue",
			run:         runQueueStats,
		},
		"dead-letters": {
			name:        "dead-letters",
			description: "List dead-letter entries, optionally filtered by a JMESPath expression",
			run:         runDeadLetters,
		},
		"requeue": {
			name:        "requeue",
			description: "Return a failed post to the queue with a fresh retry budget",
			run:         runRequeue,
		},
		"reconcile": {
			name:        "reconcile",
			description: "Restore queue entries for scheduled posts missing from the queue store",
			run:         runReconcile,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: draftline-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(os.Stdout, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

type requeueOptions struct {
	PostID      string
	ScheduledAt time.Time
}

func runMigrationsCommand(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runRequeue(cmdCtx *commandContext, args []string) error {
	opts, err := parseRequeueFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()
	if redisClient == nil {
		return errors.New("requeue requires a configured redis queue store")
	}

	posts := service.NewPostService(service.PostServiceOptions{
		Posts:  data.NewPostRepo(db),
		Queue:  data.NewRedisQueueRepo(redisClient),
		Logger: cmdCtx.Logger,
	})

	post, err := posts.RescheduleFailed(ctx, opts.PostID, opts.ScheduledAt)
	if err != nil {
		return fmt.Errorf("reschedule post %s: %w", opts.PostID, err)
	}

	if writeErr := writef(
		os.Stdout,
		"Post %s rescheduled for %s (owner %s)\n",
		post.ID,
		post.ScheduledAt.Format(time.RFC3339),
		post.OwnerID,
	); writeErr != nil {
		return fmt.Errorf("print requeue summary: %w", writeErr)
	}
	return nil
}

func runReconcile(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 5*time.Minute)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()
	if redisClient == nil {
		return errors.New("reconcile requires a configured redis queue store")
	}

	reconciler := service.NewReconcilerService(service.ReconcilerServiceOptions{
		Posts:      data.NewPostRepo(db),
		Queue:      data.NewRedisQueueRepo(redisClient),
		Logger:     cmdCtx.Logger,
		MaxRetries: cmdCtx.Config.Scheduler.MaxRetries,
		BatchSize:  cmdCtx.Config.Reconciler.BatchSize,
	})

	restored, err := reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile queue: %w", err)
	}

	if writeErr := writef(os.Stdout, "Restored %d queue entries\n", restored); writeErr != nil {
		return fmt.Errorf("print reconcile summary: %w", writeErr)
	}
	return nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseRequeueFlags(args []string) (requeueOptions, error) {
	fs := flag.NewFlagSet("requeue", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts requeueOptions
		at   string
	)
	fs.StringVar(&opts.PostID, "id", "", "Post ID to requeue (required)")
	fs.StringVar(&at, "at", "", "RFC3339 time to schedule the post for (default: now)")

	if err := fs.Parse(args); err != nil {
		return requeueOptions{}, err
	}

	opts.PostID = strings.TrimSpace(opts.PostID)
	if opts.PostID == "" {
		return requeueOptions{}, errors.New("--id is required")
	}

	opts.ScheduledAt = time.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return requeueOptions{}, fmt.Errorf("parse --at: %w", err)
		}
		opts.ScheduledAt = parsed
	}

	return opts, nil
}
