/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"scriptdesk/internal/storage"
)

func searchCmd(a *app) *cobra.Command {
	var q storage.SearchQuery
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search across the sections of all scripts",
		Long: `Search uses SQLite FTS5 syntax: plain terms, "quoted phrases", AND/OR/NOT and prefix*.
Without a query the filters alone select sections, e.g. --name HOOK.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			q.Text = strings.Join(args, " ")
			if q.ScriptID != "" {
				meta, err := storage.FindScript(h, q.ScriptID)
				if err != nil {
					return err
				}
				q.ScriptID = meta.ID
			}
			results, err := storage.Search(cmd.Context(), h.Root, q)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				a.printf("No matches.\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCRIPT\tTITLE\t#\tSECTION\tTIMING\tMATCH")
			for _, r := range results {
				snippet := r.Snippet
				if snippet == "" {
					snippet = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", shortID(r.ScriptID), firstLine(r.Title, 30), r.Position, r.Name, r.Timing, strings.ReplaceAll(snippet, "\n", " "))
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Name, "name", "", "only sections with this name (case-insensitive)")
	f.StringVar(&q.ScriptID, "script", "", "only this script (id or prefix)")
	f.StringVar(&q.Kind, "kind", "", "only video, linkedin or blog scripts")
	f.IntVar(&q.Limit, "limit", 50, "maximum results")
	f.IntVar(&q.Offset, "offset", 0, "skip this many results")
	return cmd
}

func reindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the script files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			start := time.Now()
			if err := storage.RebuildIndex(cmd.Context(), h); err != nil {
				return err
			}
			a.printf("Indexed %d scripts in %s\n", len(h.Workspace.Scripts), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
