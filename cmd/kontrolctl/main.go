// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "kontrolctl",
	Short:         "kontrolctl administers a kontrol installation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "", "conf file path (default ./conf.d/config.toml)")
	rootCmd.AddCommand(version.VersionCmd, migrateCmd, backupCmd, userCmd, exportCmd, workflowCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kontrolctl: %v\n", err)
		os.Exit(1)
	}
}

// loadConf reads the configuration and initialises the global logger.
func loadConf() (*conf.AppConfig, error) {
	cfg, err := conf.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := log.Init(&cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDB opens the database without touching its schema.
func openDB(cfg *conf.AppConfig) (database.IDatabase, error) {
	return database.NewDatabase(cfg.Database)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printTable(cmd *cobra.Command, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
}
