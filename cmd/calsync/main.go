package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bykirken/bykirken/internal/calsync"
	"github.com/bykirken/bykirken/internal/config"
	"github.com/bykirken/bykirken/internal/database"
	"github.com/bykirken/bykirken/internal/logging"
	"github.com/bykirken/bykirken/internal/store"
)

// calsync runs one calendar reconciliation pass from the command line,
// useful for cron outside the server process and for manual resyncs.
func main() {
	app := &cli.App{
		Name:  "calsync",
		Usage: "sync the public calendar feed into the event store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "feed-url",
				Usage: "override the configured ICS feed URL",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 2 * time.Minute,
				Usage: "maximum run time",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if url := c.String("feed-url"); url != "" {
		cfg.FeedURL = url
	}

	logger := logging.Setup(cfg.LogLevel, os.Getenv("BYKIRKEN_LOG_FORMAT"))

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	job := calsync.NewJob(calsync.Config{
		FeedURL:             cfg.FeedURL,
		SuppressedSummaries: cfg.SuppressedSummaries,
	}, store.NewEventStore(db), logger)

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	summary, err := job.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("synced %d events (%d cancelled)\n", summary.Synced, summary.Cancelled)
	return nil
}
