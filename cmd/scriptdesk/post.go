/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/generate"
	"scriptdesk/internal/storage"
)

func enhanceCmd(a *app) *cobra.Command {
	opts := generate.DefaultEnhance
	cmd := &cobra.Command{
		Use:   "enhance <id>",
		Short: "Rework a post for more engagement or a more casual voice",
		Long: "Engagement above 70 turns every full stop into \"! 🚀\".\n" +
			"Formality below 30 swaps \"However,\" for \"But hey,\" and \"Therefore,\" for \"So,\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, text, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if meta.Kind == domain.KindVideo {
				return fmt.Errorf("enhance works on posts; %s is a video script", shortID(meta.ID))
			}
			next, err := generate.Enhance(text, opts)
			if err != nil {
				return err
			}
			if next == text {
				a.printf("Nothing to change at engagement %d, formality %d\n", opts.Engagement, opts.Formality)
				return nil
			}
			if err := a.commit(cmd.Context(), meta.ID, text, next); err != nil {
				return err
			}
			a.log.Info("post enhanced", slog.String("script", meta.ID),
				slog.Int("engagement", opts.Engagement), slog.Int("formality", opts.Formality))
			a.printf("%s\n", next)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Engagement, "engagement", opts.Engagement, "0-100")
	cmd.Flags().IntVar(&opts.Formality, "formality", opts.Formality, "0-100")
	return cmd
}

func hashtagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hashtag",
		Short: "Edit the hashtags of a LinkedIn post",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <id>",
			Short: "Print the hashtags of a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				meta, _, _, err := a.load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printf("%s\n", domain.FormatHashtags(meta.Hashtags))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <id> <tag...>",
			Short: fmt.Sprintf("Add hashtags (at most %d per post)", domain.MaxHashtags),
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editHashtags(cmd, args[0], func(tags []string) ([]string, error) {
					var err error
					for _, t := range args[1:] {
						if tags, err = domain.AddHashtag(tags, t); err != nil {
							return nil, fmt.Errorf("hashtag %q: %w", t, err)
						}
					}
					return tags, nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <id> <tag...>",
			Short: "Remove hashtags",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editHashtags(cmd, args[0], func(tags []string) ([]string, error) {
					for _, t := range args[1:] {
						var ok bool
						if tags, ok = domain.RemoveHashtag(tags, t); !ok {
							return nil, fmt.Errorf("hashtag %q: %w", domain.NormalizeHashtag(t), storage.ErrNotFound)
						}
					}
					return tags, nil
				})
			},
		},
	)
	return cmd
}

var errNotLinkedIn = errors.New("hashtags belong to LinkedIn posts")

func (a *app) editHashtags(cmd *cobra.Command, id string, fn func([]string) ([]string, error)) error {
	h, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	meta, err := storage.UpdateScriptMeta(h, id, func(m *domain.ScriptMeta) error {
		if m.Kind != domain.KindLinkedIn {
			return errNotLinkedIn
		}
		tags, err := fn(m.Hashtags)
		m.Hashtags = tags
		return err
	})
	if err != nil {
		return err
	}
	a.log.Info("hashtags updated", slog.String("script", meta.ID), slog.Int("count", len(meta.Hashtags)))
	a.printf("%s\n", domain.FormatHashtags(meta.Hashtags))
	return nil
}
