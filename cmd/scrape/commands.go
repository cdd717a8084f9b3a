package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/leadscout/api/internal/auth"
	"github.com/leadscout/api/internal/client"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/model"
	"github.com/leadscout/api/internal/orchestrator"
)

func loadConfig(envFile string) (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return config.Load()
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}

	o := orchestrator.New(client.NewScrapeClient(&cfg.Client))

	run, err := o.Start(context.WithoutCancel(ctx), model.JobRequest{
		QueryText:   cmd.String("query"),
		Location:    cmd.String("location"),
		ResultLimit: cmd.Int("limit"),
		SubmitterID: cmd.String("submitter"),
	})
	if err != nil {
		return err
	}

	// Ctrl-C cancels the job; the run still reports its terminal event
	go func() {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "stopping...")
			o.Stop()
		case <-run.Done():
		}
	}()

	for ev := range run.Events() {
		printEvent(ev)
	}

	records, err := run.Wait(context.Background())
	if err != nil {
		if jobID := o.LastJobID(); jobID != "" {
			fmt.Fprintf(os.Stderr, "check the job with: scrape status --job %s\n", jobID)
		}
		return err
	}

	return printJSON(records)
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}

	o := orchestrator.New(client.NewScrapeClient(&cfg.Client))
	rec, err := o.Status(ctx, cmd.String("job"))
	if err != nil {
		return err
	}

	return printJSON(rec)
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}

	token, err := auth.IssueToken(cfg.JWT.Secret, cmd.String("user"), cmd.String("email"), cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func printEvent(ev model.ProgressEvent) {
	switch ev.Kind {
	case model.ProgressError:
		fmt.Fprintf(os.Stderr, "✗ %s (%s)\n", ev.ErrorMessage, ev.ErrorKind)
	case model.ProgressCompleted:
		fmt.Fprintf(os.Stderr, "✓ %d records (job %s)\n", len(ev.Payload), ev.JobID)
	default:
		percent := 0
		if ev.Percent != nil {
			percent = *ev.Percent
		}
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, ev.Message)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
