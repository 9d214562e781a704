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
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sistemakontrol/kontrol/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the database",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a snapshot now and prune old ones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackuper(func(b *backup.Backuper) error {
			path, err := b.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackuper(func(b *backup.Backuper) error {
			files, err := b.List()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				row := []string{filepath.Base(f), "", ""}
				if fi, err := os.Stat(f); err == nil {
					row[1] = humanize.Bytes(uint64(fi.Size()))
					row[2] = humanize.Time(fi.ModTime())
				}
				rows = append(rows, row)
			}
			printTable(cmd, []string{"file", "size", "taken"}, rows)
			return nil
		})
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots beyond backup.keep",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackuper(func(b *backup.Backuper) error {
			removed, err := b.Prune()
			if err != nil {
				return err
			}
			for _, f := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", f)
			}
			return nil
		})
	},
}

func init() {
	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupPruneCmd)
}

func withBackuper(fn func(b *backup.Backuper) error) error {
	cfg, err := loadConf()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(backup.NewBackuper(db, cfg.Database, cfg.Backup))
}
