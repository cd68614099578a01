/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scriptdesk/internal/config"
	"scriptdesk/internal/crash"
	applog "scriptdesk/internal/log"
	"scriptdesk/internal/telemetry"
	"scriptdesk/internal/version"
)

func main() {
	a := &app{out: os.Stdout}
	defer crash.RecoverWith(a.workspace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "scriptdesk",
		Short:         "ScriptDesk: draft, edit, preview and export short-form content scripts",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			telemetry.Flush(ctx)
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.root, "workspace", "w", "", "workspace directory (default $SD_WORKSPACE or .)")

	root.AddCommand(
		versionCmd(a),
		initCmd(a),
		generateCmd(a),
		listCmd(a),
		showCmd(a),
		editCmd(a),
		formatCmd(a),
		enhanceCmd(a),
		hashtagCmd(a),
		historyCmd(a),
		restoreCmd(a),
		searchCmd(a),
		reindexCmd(a),
		exportCmd(a),
		previewCmd(a),
		watchCmd(a),
		templateCmd(a),
		loginCmd(a),
		profileCmd(a),
		onboardingCmd(a),
		serveCmd(a),
	)
	return root
}

// setup runs before every command: .env, user config, logging and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	if _, err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	a.out = cmd.OutOrStdout()
	cfg, token, err := config.Load()
	a.cfg, a.token = cfg, token

	opts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Writer:    cmd.ErrOrStderr(),
	}
	applog.Init(opts)
	a.log = applog.WithComponent("cli").With(slog.String("cmd", cmd.Name()))
	if err != nil {
		a.log.Warn("config file ignored", slog.Any("err", err))
	}

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	if old := telemetry.SetDefault(telemetry.New(tc)); old != nil {
		old.Close()
	}

	if a.root == "" {
		a.root = os.Getenv("SD_WORKSPACE")
	}
	if a.root == "" {
		a.root = "."
	}
	return nil
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), "ScriptDesk "+version.String()+"\n")
			return err
		},
	}
}
