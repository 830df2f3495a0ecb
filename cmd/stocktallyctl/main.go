// Command stocktallyctl triggers background jobs by hand. It talks to the
// same Redis queue the worker consumes, so a triggered job runs on the next
// free worker slot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocktally/stocktally/internal/app"
	"github.com/stocktally/stocktally/jobs"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			slog.Default().Warn("close queue client", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "warmup":
		info, err := client.EnqueueSeriesWarmup(ctx, 24)
		exit(info, err)
	case "prune":
		info, err := client.EnqueueEntriesPrune(ctx, int(cfg.TombstoneRetention.Hours()))
		exit(info, err)
	default:
		usage()
		os.Exit(2)
	}
}

func exit(info *asynq.TaskInfo, err error) {
	if err != nil {
		slog.Default().Error("enqueue job", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("enqueued %s (id=%s queue=%s)\n", info.Type, info.ID, info.Queue)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: stocktallyctl <warmup|prune>")
}
