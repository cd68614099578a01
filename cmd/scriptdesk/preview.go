/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scriptdesk/internal/script"
	"scriptdesk/internal/tui"
)

func previewCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "preview <id|file|->",
		Short: "Play a script one section at a time in the terminal",
		Long: `Preview cycles through the sections of a script like the phone preview does.
Keys: right/l next, left/h previous, space pause, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = a.cfg.General.PreviewInterval()
			}
			title, doc, err := a.previewSource(cmd, args[0])
			if err != nil {
				return err
			}
			if !isTerminal(a.out) {
				a.printPlain(doc)
				return nil
			}
			return tui.Run(cmd.Context(), title, doc, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time per section (default from config, 3s)")
	return cmd
}

// previewSource accepts a plain script file or stdin as well as a workspace script.
func (a *app) previewSource(cmd *cobra.Command, arg string) (string, script.Document, error) {
	if arg == "-" {
		text, err := readInput(cmd, arg)
		return "stdin", script.Parse(text), err
	}
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		text, err := readInput(cmd, arg)
		return filepath.Base(arg), script.Parse(text), err
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", script.Document{}, err
	}
	meta, _, doc, err := a.load(cmd.Context(), arg)
	return meta.Title, doc, err
}

// printPlain writes every section once, for pipes and redirects.
func (a *app) printPlain(doc script.Document) {
	if doc.Len() == 0 {
		a.printf("%s\n", tui.EmptyText)
		return
	}
	c := script.NewCycle(doc)
	for i := 0; i < c.Len(); i++ {
		s, _ := c.Current()
		a.printf("%s  %s", c.Caption(), s.Name)
		if s.Timing != "" {
			a.printf(" (%s)", s.Timing)
		}
		a.printf("\n%s\n\n", s.Body)
		c.Next()
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
