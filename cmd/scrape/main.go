package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "path of the environment file",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "scrape",
		Usage: "submit business-data scrape jobs to the runner API",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "run a scrape job and print its results",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "query",
						Usage:    "search query, e.g. \"Restaurant\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "city or region",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "maximum number of records",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "submitter",
						Usage: "submitter id recorded with the job",
					},
				},
				Action: startAction,
			},
			{
				Name:  "status",
				Usage: "show the stored record of a job",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "job",
						Usage:    "job id",
						Required: true,
					},
				},
				Action: statusAction,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token signed with JWT_SECRET",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "user",
						Usage:    "user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "user email",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "token lifetime, 0 for no expiry",
						Value: 24 * time.Hour,
					},
				},
				Action: tokenAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
