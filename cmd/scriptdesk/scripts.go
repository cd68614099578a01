/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/generate"
	"scriptdesk/internal/storage"
	"scriptdesk/internal/telemetry"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new workspace at <dir>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			a.log.Info("init workspace", slog.String("root", abs), slog.String("name", args[1]))
			h, err := storage.InitWorkspace(abs, domain.Workspace{Name: args[1]})
			if err != nil {
				return err
			}
			a.h = h
			if err := storage.RebuildIndex(cmd.Context(), h); err != nil {
				return err
			}
			a.printf("Created workspace %q at %s\n", args[1], abs)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scripts of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tPLATFORM\tUPDATED\tTITLE")
			for _, s := range h.Workspace.Scripts {
				if kind != "" && !strings.EqualFold(string(s.Kind), kind) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", shortID(s.ID), s.Kind, s.Platform, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only show video, linkedin or blog scripts")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the sections of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, text, doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if raw {
				a.printf("%s\n", text)
				return nil
			}
			if meta.Kind != domain.KindVideo && isTerminal(a.out) {
				a.printDetails(meta)
				return a.renderMarkdown(text)
			}
			a.printf("%s  (%s", meta.Title, meta.Kind)
			if meta.Platform != "" {
				a.printf(", %s", meta.Platform)
			}
			a.printf(")\n")
			a.printDetails(meta)
			a.printf("\n")
			if doc.Len() == 0 {
				a.printf("No sections found. Headers look like [HOOK - 0:00-0:05].\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSECTION\tTIMING\tTEXT")
			for i, s := range doc.Segments {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, s.Name, s.Timing, firstLine(s.Body, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored text")
	return cmd
}

// printDetails lists the generation settings kept with a script.
func (a *app) printDetails(meta domain.ScriptMeta) {
	for _, kv := range [][2]string{
		{"Tone", meta.Tone},
		{"Goal", meta.Goal},
		{"Length", meta.Length},
		{"Instructions", meta.Instructions},
		{"Hashtags", domain.FormatHashtags(meta.Hashtags)},
	} {
		if kv[1] != "" {
			a.printf("%-13s %s\n", kv[0]+":", kv[1])
		}
	}
}

func firstLine(s string, width int) string {
	s, _, _ = strings.Cut(s, "\n")
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func shortID(id string) string { return id[:min(8, len(id))] }

func generateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a new script from a topic",
	}
	cmd.AddCommand(generateVideoCmd(a), generateLinkedInCmd(a), generateBlogCmd(a))
	return cmd
}

// addScript stores a generated draft, indexes it and prints its id.
func (a *app) addScript(cmd *cobra.Command, meta domain.ScriptMeta, text string) error {
	h, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	meta, err = storage.AddScript(h, meta, text)
	if err != nil {
		return err
	}
	if err := a.reindex(cmd.Context(), meta.ID); err != nil {
		return err
	}
	doc := storage.DocumentFor(meta, text)
	telemetry.ScriptGenerated(string(meta.Kind), meta.Platform, doc.Len())
	a.log.Info("script generated", slog.String("script", meta.ID), slog.String("kind", string(meta.Kind)), slog.Int("segments", doc.Len()))
	a.printf("%s\n\n%s\n", meta.ID, text)
	return nil
}

func generateVideoCmd(a *app) *cobra.Command {
	var req generate.VideoRequest
	var platform, title string
	cmd := &cobra.Command{
		Use:   "video <topic>",
		Short: "Draft a five-section short video script",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform == "" {
				platform = a.cfg.General.DefaultPlatform
			}
			p, err := generate.ParsePlatform(platform)
			if err != nil {
				return err
			}
			req.Topic, req.Platform = strings.Join(args, " "), p
			if req.Tone == "" {
				req.Tone = a.cfg.General.DefaultTone
			}
			text, err := generate.VideoScript(req)
			if err != nil {
				return err
			}
			return a.addScript(cmd, domain.ScriptMeta{
				Title: title, Kind: domain.KindVideo, Platform: string(p), Topic: req.Topic, Tone: req.Tone,
				Goal: req.Goal, Instructions: strings.TrimSpace(req.Instructions),
			}, text)
		},
	}
	f := cmd.Flags()
	f.StringVar(&platform, "platform", "", "instagram or youtube (default from config)")
	f.StringVar(&req.Tone, "tone", "", "tone of voice (default from config)")
	f.StringVar(&req.Goal, "goal", generate.DefaultGoal, "what the video should achieve (kept with the script)")
	f.StringVar(&req.Instructions, "instructions", "", "extra instructions (kept with the script)")
	f.IntVar(&req.Duration, "duration", generate.DefaultDuration, "length in seconds (15-60, steps of 5)")
	f.StringVar(&title, "title", "", "script title (default: the topic)")
	return cmd
}

func generateLinkedInCmd(a *app) *cobra.Command {
	var req generate.LinkedInRequest
	var title string
	cmd := &cobra.Command{
		Use:   "linkedin <topic>",
		Short: "Draft a LinkedIn post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Topic = strings.Join(args, " ")
			if req.Tone == "" {
				req.Tone = a.cfg.General.DefaultTone
			}
			p, err := generate.LinkedInPost(req)
			if err != nil {
				return err
			}
			return a.addScript(cmd, domain.ScriptMeta{
				Title: title, Kind: domain.KindLinkedIn, Topic: req.Topic, Tone: req.Tone, Hashtags: p.Hashtags,
			}, p.Body)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Tone, "tone", "", "professional, conversational, thoughtLeadership or storytelling")
	f.BoolVar(&req.IncludeEmoji, "emoji", true, "include an emoji")
	f.BoolVar(&req.IncludeCTA, "cta", true, "end with a call to action")
	f.StringArrayVar(&req.Hashtags, "hashtag", nil, "extra hashtag (repeatable)")
	f.StringVar(&title, "title", "", "script title (default: the topic)")
	return cmd
}

func generateBlogCmd(a *app) *cobra.Command {
	var req generate.BlogRequest
	cmd := &cobra.Command{
		Use:   "blog <topic>",
		Short: "Draft a long-form markdown blog post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Topic = strings.Join(args, " ")
			p, err := generate.BlogPost(req)
			if err != nil {
				return err
			}
			return a.addScript(cmd, domain.ScriptMeta{
				Title: p.Title, Kind: domain.KindBlog, Topic: req.Topic, Tone: req.Tone,
				Length: req.Length, Instructions: strings.TrimSpace(req.Instructions),
			}, p.Body)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Tone, "tone", "", "tone of voice")
	f.StringVar(&req.Length, "length", generate.DefaultLength, "short, medium or long (kept with the script)")
	f.StringVar(&req.Instructions, "instructions", "", "extra instructions (kept with the script)")
	return cmd
}

// renderMarkdown pretty-prints a post for the terminal.
func (a *app) renderMarkdown(text string) error {
	width := 80
	if f, ok := a.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = min(w-4, 100)
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(text)
	if err != nil {
		return err
	}
	a.printf("%s", out)
	return nil
}
