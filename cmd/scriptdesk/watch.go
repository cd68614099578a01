/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"scriptdesk/internal/storage"
	"scriptdesk/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the search index current while scripts are edited in another editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			dir := filepath.Join(h.Root, storage.ScriptsDirName)
			w, err := watch.New(dir, debounce, func(ctx context.Context, id string) error {
				err := storage.UpdateScriptIndex(ctx, h, id)
				if errors.Is(err, storage.ErrNotFound) {
					// files not listed in the manifest are not scripts
					return nil
				}
				if err == nil {
					a.printf("reindexed %s\n", shortID(id))
				}
				return err
			})
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("watching", slog.String("dir", dir))
			a.printf("Watching %s (Ctrl+C to stop)\n", dir)
			<-cmd.Context().Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet time before a changed script is reindexed")
	return cmd
}
