/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scriptdesk/internal/backend"
	"scriptdesk/internal/config"
	"scriptdesk/internal/domain"
)

func loginCmd(a *app) *cobra.Command {
	var subject, url string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Get a backend token and keep it in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url != "" {
				a.cfg.Backend.BaseURL = url
			}
			tok, err := a.client().IssueToken(cmd.Context(), subject, ttl)
			if err != nil {
				return err
			}
			if err := config.Save(a.cfg, tok.Token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			a.token = tok.Token
			a.printf("Logged in to %s as %s until %s\n", a.cfg.Backend.BaseURL, subject, tok.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "user", "dev", "user name to sign in as")
	cmd.Flags().StringVar(&url, "url", "", "backend URL (saved to the config)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime (max 24h)")
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	var email, name, avatar string
	var prefs domain.NotificationPrefs
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the backend profile, or update it with flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			p, err := c.GetProfile(cmd.Context())
			notFound := errors.Is(err, backend.ErrNotFound)
			if err != nil && !notFound {
				return err
			}
			f := cmd.Flags()
			if f.Changed("email") || f.Changed("name") || f.Changed("avatar") ||
				f.Changed("email-notifications") || f.Changed("push-notifications") || f.Changed("suggestions") {
				if f.Changed("email") {
					p.Email = email
				}
				if f.Changed("name") {
					p.FullName = name
				}
				if f.Changed("avatar") {
					p.AvatarURL = avatar
				}
				n := p.Prefs()
				if f.Changed("email-notifications") {
					n.Email = prefs.Email
				}
				if f.Changed("push-notifications") {
					n.Push = prefs.Push
				}
				if f.Changed("suggestions") {
					n.ContentSuggestions = prefs.ContentSuggestions
				}
				p.Notifications = &n
				if p, err = c.PutProfile(cmd.Context(), p); err != nil {
					return err
				}
			} else if notFound {
				a.printf("No profile yet. Set one with --email and --name.\n")
				return nil
			}
			a.printf("User:   %s\nEmail:  %s\nName:   %s\n", p.ID, p.Email, p.FullName)
			if p.AvatarURL != "" {
				a.printf("Avatar: %s\n", p.AvatarURL)
			}
			n := p.Prefs()
			a.printf("Notifications: email %s, push %s, content suggestions %s\n",
				onOff(n.Email), onOff(n.Push), onOff(n.ContentSuggestions))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "set the email address")
	f.StringVar(&name, "name", "", "set the full name")
	f.StringVar(&avatar, "avatar", "", "set the avatar URL")
	f.BoolVar(&prefs.Email, "email-notifications", true, "receive email notifications")
	f.BoolVar(&prefs.Push, "push-notifications", true, "receive push notifications")
	f.BoolVar(&prefs.ContentSuggestions, "suggestions", true, "receive content suggestions")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

var onboardingQuestions = [domain.OnboardingQuestions]string{
	"What do you create content for?",
	"Which platform matters most to you?",
	"How often do you publish?",
	"What is your main goal?",
	"How did you hear about ScriptDesk?",
}

func onboardingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "onboarding [answer...]",
		Short: "Show the onboarding questions, or submit all five answers",
		Args:  cobra.MaximumNArgs(domain.OnboardingQuestions),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			o, err := c.GetOnboarding(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				copy(o.Answers[:], args)
				o.Completed = o.Answered() == domain.OnboardingQuestions
				if o, err = c.PutOnboarding(cmd.Context(), o); err != nil {
					return err
				}
			}
			for i, q := range onboardingQuestions {
				ans := strings.TrimSpace(o.Answers[i])
				if ans == "" {
					ans = "-"
				}
				a.printf("%d. %s\n   %s\n", i+1, q, ans)
			}
			if o.Completed {
				a.printf("Onboarding complete.\n")
			} else {
				a.printf("%d of %d answered.\n", o.Answered(), domain.OnboardingQuestions)
			}
			return nil
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend server (Postgres via SD_PG_DSN or DATABASE_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := backend.LoadConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			return backend.Serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $ADDR, :$PORT or :8080)")
	return cmd
}
