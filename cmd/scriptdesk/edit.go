/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/editor"
	"scriptdesk/internal/script"
	"scriptdesk/internal/storage"
	"scriptdesk/internal/telemetry"
	"scriptdesk/internal/undo"
)

func editCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id> <index> <body|->",
		Short: "Replace the body of one section (\"-\" reads the body from stdin)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("index %q: %w", args[1], err)
			}
			body := args[2]
			if body == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				body = string(b)
			}

			meta, text, doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var next string
			if meta.Kind == domain.KindVideo {
				s := editor.NewSession(meta.ID, text, undo.NewManager(undo.Config{}))
				if next, err = s.EditSegment(index, body); err != nil {
					return err
				}
			} else {
				// posts are a single section
				if _, err := script.ReplaceSegmentBody(doc, index, body); err != nil {
					return err
				}
				next = strings.TrimSpace(body)
			}
			if err := a.commit(cmd.Context(), meta.ID, text, next); err != nil {
				return err
			}
			telemetry.SegmentEdited(index, doc.Len())
			a.log.Info("section edited", slog.String("script", meta.ID), slog.Int("index", index))
			a.printf("Updated section %d of %s\n", index, meta.Title)
			return nil
		},
	}
	return cmd
}

func formatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "format <id> <start> <end> <bold|italic|list|ordered-list|link|image>",
		Short: "Apply markdown formatting to a byte range of a script",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("start %q: %w", args[1], err)
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("end %q: %w", args[2], err)
			}
			kind, err := editor.ParseFormat(args[3])
			if err != nil {
				return err
			}
			meta, text, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := editor.NewSession(meta.ID, text, nil)
			if err := s.RequireContent(); err != nil {
				return err
			}
			next, err := s.Format(editor.Selection{Start: start, End: end}, kind)
			if err != nil {
				return err
			}
			if err := a.commit(cmd.Context(), meta.ID, text, next); err != nil {
				return err
			}
			a.printf("Applied %s to [%d,%d)\n", kind, start, end)
			return nil
		},
	}
}

func historyCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "List stored earlier versions of a script, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, _, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snaps, err := storage.ListScriptSnapshots(cmd.Context(), a.h, meta.ID, limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				a.printf("No earlier versions of %s.\n", meta.Title)
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSAVED\tSECTIONS\tSTART")
			for i, s := range snaps {
				doc := storage.DocumentFor(meta, s.Text)
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, s.TS.Local().Format("2006-01-02 15:04:05"), doc.Len(), firstLine(strings.TrimSpace(s.Text), 50))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum versions to list")
	return cmd
}

func restoreCmd(a *app) *cobra.Command {
	var at int
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Bring back an earlier version of a script (the current text is kept in the history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, text, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var snap storage.Snapshot
			if at == 0 {
				var ok bool
				if snap, ok, err = storage.GetLatestScriptSnapshot(cmd.Context(), a.h, meta.ID); err != nil {
					return err
				} else if !ok {
					return fmt.Errorf("no earlier version of %s", meta.Title)
				}
			} else {
				snaps, err := storage.ListScriptSnapshots(cmd.Context(), a.h, meta.ID, at+1)
				if err != nil {
					return err
				}
				if at < 0 || at >= len(snaps) {
					return fmt.Errorf("version %d not found (%d stored)", at, len(snaps))
				}
				snap = snaps[at]
			}
			if err := a.commit(cmd.Context(), meta.ID, text, snap.Text); err != nil {
				return err
			}
			a.printf("Restored %s to the version saved %s\n", meta.Title, snap.TS.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	cmd.Flags().IntVar(&at, "at", 0, "version number from `history` (0 is the newest)")
	return cmd
}

// readInput reads a file argument, "-" meaning stdin.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
