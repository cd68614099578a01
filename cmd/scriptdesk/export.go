/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/export"
	"scriptdesk/internal/script"
	"scriptdesk/internal/telemetry"
)

func exportCmd(a *app) *cobra.Command {
	var out string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a script as PDF, preview frames or markdown",
	}
	cmd.PersistentFlags().StringVarP(&out, "out", "o", "", "output path (default under exports/ in the workspace)")
	cmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "render frames without the frame cache")

	one := func(use, short, format string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.export(cmd, args[0], []string{format}, out, noCache)
			},
		}
	}
	cmd.AddCommand(
		one("pdf", "Export a printable PDF script", export.FormatPDF),
		one("frames", "Export one 9:16 PNG frame per section", export.FormatFrames),
		one("md", "Export markdown", export.FormatMarkdown),
		&cobra.Command{
			Use:   "all <id>",
			Short: "Export every format that suits the script kind",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.export(cmd, args[0], nil, out, noCache)
			},
		},
	)
	return cmd
}

func (a *app) export(cmd *cobra.Command, id string, formats []string, out string, noCache bool) error {
	meta, _, doc, err := a.load(cmd.Context(), id)
	if err != nil {
		return err
	}
	opt := export.BatchOptions{Formats: formats, NoCache: noCache}
	if out != "" {
		// a single-file format may name the file itself
		if len(formats) == 1 && formats[0] != export.FormatFrames && filepath.Ext(out) != "" {
			return a.exportFile(meta, doc, formats[0], out)
		}
		if opt.OutDir, err = filepath.Abs(out); err != nil {
			return err
		}
	}
	files, err := export.Batch(cmd.Context(), a.h, meta.ID, opt)
	if err != nil {
		return err
	}
	for _, f := range files {
		a.printf("%s\n", f)
	}
	if len(formats) == 0 {
		formats = export.DefaultFormats(meta.Kind)
	}
	for _, f := range formats {
		telemetry.ScriptExported(f, doc.Len())
	}
	return nil
}

func (a *app) exportFile(meta domain.ScriptMeta, doc script.Document, format, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	var err error
	switch format {
	case export.FormatPDF:
		err = export.PDF(doc, meta, out)
	default:
		err = os.WriteFile(out, []byte(export.Markdown(doc, meta.Title)), 0o644)
	}
	if err != nil {
		return err
	}
	telemetry.ScriptExported(format, doc.Len())
	a.printf("%s\n", out)
	return nil
}
