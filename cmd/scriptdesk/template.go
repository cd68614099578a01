/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/pack"
	"scriptdesk/internal/storage"
)

func templateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Save scripts as reusable templates and share them",
	}
	cmd.AddCommand(
		templateSaveCmd(a),
		templateListCmd(a),
		templateUseCmd(a),
		templatePushCmd(a),
		templateExportCmd(a),
		templateInstallCmd(a),
	)
	return cmd
}

func templateSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id> <name>",
		Short: "Save a script as a template (replaces a template with the same name)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, text, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tpl, err := storage.AddTemplate(a.h, domain.Template{
				Name: strings.Join(args[1:], " "), Kind: meta.Kind, Platform: meta.Platform, Text: text,
			})
			if err != nil {
				return err
			}
			a.printf("Saved template %q\n", tpl.Name)
			return nil
		},
	}
}

func templateListCmd(a *app) *cobra.Command {
	var remote bool
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local templates, or the ones stored on the backend with --remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			if remote {
				list, err := a.client().ListTemplates(cmd.Context(), query)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tKIND\tSECTIONS\tCREATED\tNAME")
				for _, t := range list {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", t.ID, t.Kind, t.SegmentCount, t.CreatedAt.Local().Format("2006-01-02"), t.Name)
				}
				return tw.Flush()
			}
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "KIND\tPLATFORM\tCREATED\tNAME")
			q := strings.ToLower(strings.TrimSpace(query))
			for _, t := range h.Workspace.Templates {
				if q != "" && !strings.Contains(strings.ToLower(t.Name+"\n"+t.Text), q) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Kind, t.Platform, t.CreatedAt.Local().Format("2006-01-02"), t.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list templates stored on the backend")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only templates containing this text")
	return cmd
}

func templateUseCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Start a new script from a template",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			i := h.Workspace.FindTemplateByName(name)
			if i < 0 {
				return fmt.Errorf("template %q: %w", name, storage.ErrNotFound)
			}
			tpl := h.Workspace.Templates[i]
			if title == "" {
				title = tpl.Name
			}
			return a.addScript(cmd, domain.ScriptMeta{Title: title, Kind: tpl.Kind, Platform: tpl.Platform}, tpl.Text)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title of the new script (default: the template name)")
	return cmd
}

func templatePushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push <name>",
		Short: "Upload a local template to the backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			i := h.Workspace.FindTemplateByName(name)
			if i < 0 {
				return fmt.Errorf("template %q: %w", name, storage.ErrNotFound)
			}
			saved, err := a.client().SaveTemplate(cmd.Context(), h.Workspace.Templates[i])
			if err != nil {
				return err
			}
			a.printf("Pushed %q (%d sections) as #%d\n", saved.Name, saved.SegmentCount, saved.ID)
			return nil
		},
	}
}

func templateExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.zip]",
		Short: "Write all templates into a shareable pack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			out := pack.DefaultPackPath(h)
			if len(args) == 1 {
				if out, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}
			if err := pack.ExportTemplates(h, out); err != nil {
				return err
			}
			a.printf("%s\n", out)
			return nil
		},
	}
}

func templateInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <file.zip>",
		Short: "Add the templates of a pack; existing names are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := pack.InstallPack(h, args[0])
			if err != nil {
				return err
			}
			a.printf("Installed %d templates\n", n)
			return nil
		},
	}
}
