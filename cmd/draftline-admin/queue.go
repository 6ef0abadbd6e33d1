package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/draftline/draftline-go/internal/data"
	"github.com/draftline/draftline-go/internal/domain/model"
)

type deadLetterOptions struct {
	Limit   int
	Filter  string
	RawJSON bool
}

func runQueueStats(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("queue-stats requires a configured redis queue store")
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	queue := data.NewRedisQueueRepo(redisClient)
	stats, err := queue.Stats(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("queue stats: %w", err)
	}

	return printQueueStats(os.Stdout, stats)
}

func printQueueStats(w io.Writer, stats model.QueueStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "STATE\tCOUNT"); err != nil {
		return fmt.Errorf("write stats header: %w", err)
	}
	rows := []struct {
		label string
		count int64
	}{
		{"pending", stats.Pending},
		{"ready", stats.Ready},
		{"dead", stats.Dead},
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%d\n", row.label, row.count); err != nil {
			return fmt.Errorf("write stats row %q: %w", row.label, err)
		}
	}
	if err := writef(tw, "total\t%d\n", stats.Pending+stats.Ready+stats.Dead); err != nil {
		return fmt.Errorf("write stats total: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush stats table: %w", err)
	}
	return nil
}

func runDeadLetters(cmdCtx *commandContext, args []string) error {
	opts, err := parseDeadLetterFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("dead-letters requires a configured redis queue store")
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	queue := data.NewRedisQueueRepo(redisClient)
	entries, err := queue.DeadLetters(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("list dead letters: %w", err)
	}

	entries, err = filterDeadLetters(entries, opts.Filter)
	if err != nil {
		return err
	}

	if opts.RawJSON {
		return printDeadLettersJSON(os.Stdout, entries)
	}
	return printDeadLetterTable(os.Stdout, entries)
}

// filterDeadLetters keeps entries for which the JMESPath expression
// evaluates to a truthy value against the entry's JSON form. An empty
// expression keeps everything.
func filterDeadLetters(entries []model.DeadLetterEntry, expr string) ([]model.DeadLetterEntry, error) {
	if strings.TrimSpace(expr) == "" {
		return entries, nil
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile --filter expression: %w", err)
	}

	kept := make([]model.DeadLetterEntry, 0, len(entries))
	for _, entry := range entries {
		match, err := deadLetterMatches(entry, expr)
		if err != nil {
			return nil, err
		}
		if match {
			kept = append(kept, entry)
		}
	}
	return kept, nil
}

func deadLetterMatches(entry model.DeadLetterEntry, expr string) (bool, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encode dead letter %s: %w", entry.Job.ID, err)
	}
	var doc any
	if err = json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("decode dead letter %s: %w", entry.Job.ID, err)
	}

	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return false, fmt.Errorf("evaluate --filter for %s: %w", entry.Job.ID, err)
	}
	return isTruthy(result), nil
}

func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func printDeadLettersJSON(w io.Writer, entries []model.DeadLetterEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode dead letters: %w", err)
	}
	return nil
}

func printDeadLetterTable(w io.Writer, entries []model.DeadLetterEntry) error {
	if len(entries) == 0 {
		if err := writeln(w, "(no dead-letter entries matched)"); err != nil {
			return fmt.Errorf("write empty dead-letter message: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "POST ID\tOWNER\tRETRIES\tFAILED AT\tREASON"); err != nil {
		return fmt.Errorf("write dead-letter header: %w", err)
	}
	for _, entry := range entries {
		if err := writef(
			tw,
			"%s\t%s\t%d\t%s\t%s\n",
			entry.Job.ID,
			entry.Job.OwnerID,
			entry.Job.RetryCount,
			entry.FailedAt.Format(time.RFC3339),
			entry.FailureReason,
		); err != nil {
			return fmt.Errorf("write dead-letter entry %s: %w", entry.Job.ID, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush dead-letter table: %w", err)
	}

	if err := writef(w, "Total entries: %d\n", len(entries)); err != nil {
		return fmt.Errorf("write dead-letter total: %w", err)
	}
	return nil
}

func parseDeadLetterFlags(args []string) (deadLetterOptions, error) {
	fs := flag.NewFlagSet("dead-letters", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts deadLetterOptions
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum entries to fetch")
	fs.StringVar(
		&opts.Filter,
		"filter",
		"",
		"JMESPath expression over each entry, e.g. 'job.owner_id == `\"owner-1\"`'",
	)
	fs.BoolVar(&opts.RawJSON, "json", false, "Print entries as indented JSON")

	if err := fs.Parse(args); err != nil {
		return deadLetterOptions{}, err
	}

	if opts.Limit <= 0 {
		return deadLetterOptions{}, errors.New("--limit must be greater than zero")
	}

	opts.Filter = strings.TrimSpace(opts.Filter)
	return opts, nil
}
