package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tokenflow/tokenflow/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the payload whenever an input file changes",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rebuild := func(path string) error {
		payload, err := buildPayload(ctx, cfg)
		if err != nil {
			return err
		}
		if err := writePayload(outputFile, payload); err != nil {
			return err
		}
		logger.Info("payload rebuilt",
			"trigger", path,
			"out", outputFile,
			"cases", len(payload.CaseIDs),
			"segments", len(payload.Segments))
		return nil
	}

	// Initial build before entering the loop.
	if err := rebuild("startup"); err != nil {
		return err
	}

	watcher, err := watch.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := 0
	for _, path := range []string{logFile, precedenceFile, graphFile, cfg.Tokens.Size.Table, cfg.Tokens.Color.Table, cfg.Tokens.Image.Table} {
		if path == "" {
			continue
		}
		if err := watcher.Watch(path); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch: no input files given")
	}

	watcher.OnChange = rebuild
	watcher.OnError = func(path string, err error) {
		logger.Error("rebuild failed", "path", path, "error", err)
	}

	logger.Info("watching for changes", "files", watched)
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
