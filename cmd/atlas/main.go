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
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"atlas/internal/config"
	"atlas/internal/crash"
	"atlas/internal/history"
	applog "atlas/internal/log"
	"atlas/internal/ui"
	"atlas/internal/version"
)

var embeddedFlag bool

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Desktop shell for a locally run AI agent",
	Long: `Atlas is the desktop frontend for a locally run AI agent. It keeps the
LLM connection settings (model, host, port) as configuration only; nothing in
this binary dials the endpoint.`,
	RunE:          runUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Atlas")
		fmt.Println(version.String())
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent connection snapshots",
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&embeddedFlag, "embedded", false, "Run without the system menu (embedded host mode)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum entries to list")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(historyCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	if embeddedFlag {
		// Routed through the same override path the environment uses.
		os.Setenv(config.EnvEmbedded, "1")
	}
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))
	return ui.Run()
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	if cfg.History.Disabled {
		fmt.Println("Connection history is disabled in the configuration.")
		return nil
	}
	p, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	st, err := history.Open(p)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := st.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No connection history yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-16s  %s:%s\n", e.SavedAt.Local().Format(time.RFC3339), e.Model, e.Host, e.Port)
	}
	return nil
}

func main() {
	// A .env beside the binary is a convenience for development setups.
	_ = godotenv.Load()
	applog.Init(applog.FromEnv())
	defer crash.Recover()

	rootCmd.Version = version.String()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
