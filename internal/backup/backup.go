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

// Package backup writes database snapshots to the backup directory and
// prunes old ones.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/pkg/cron"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/id"
	"github.com/sistemakontrol/kontrol/pkg/log"
)

var ProviderSet = wire.NewSet(NewBackuper)

const (
	filePrefix = "kontrol_"
	timeLayout = "20060102_150405"
	jobName    = "database-backup"
)

// Runner executes an external command. Tests replace it.
type Runner func(ctx context.Context, name string, args, env []string) ([]byte, error)

type Backuper struct {
	db     database.IDatabase
	dbConf database.Database
	conf   conf.Backup
	now    func() time.Time
	run    Runner
}

func NewBackuper(db database.IDatabase, dbConf database.Database, c conf.Backup) *Backuper {
	return &Backuper{db: db, dbConf: dbConf, conf: c, now: time.Now, run: execRunner}
}

// WithRunner returns a copy of b that runs external commands through r.
func (b *Backuper) WithRunner(r Runner) *Backuper {
	cp := *b
	cp.run = r
	return &cp
}

// Run writes one snapshot and returns its path. It prunes afterwards when
// a retention count is configured; prune failures are only logged.
func (b *Backuper) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.conf.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	base := filePrefix + b.now().Format(timeLayout) + "_" + id.ShortId()

	var (
		dst string
		err error
	)
	switch b.dbConf.Type {
	case database.TypeSQLite:
		dst = filepath.Join(b.conf.Dir, base+".sqlite3")
		err = b.sqlite(ctx, dst)
	case database.TypeMySQL:
		dst = filepath.Join(b.conf.Dir, base+".sql")
		err = b.mysql(ctx, dst)
	default:
		return "", fmt.Errorf("backup: unsupported database type %q", b.dbConf.Type)
	}
	if err != nil {
		_ = os.Remove(dst)
		log.Errorw("backup failed", "type", b.dbConf.Type, "error", err)
		return "", err
	}
	log.Infow("backup created", "path", dst)

	if b.conf.Keep > 0 {
		if removed, err := b.Prune(); err != nil {
			log.Warnw("backup prune failed", "dir", b.conf.Dir, "error", err)
		} else if len(removed) > 0 {
			log.Infow("old backups removed", "count", len(removed))
		}
	}
	return dst, nil
}

// sqlite snapshots the live database. VACUUM INTO copies a consistent
// state of the file even while other connections write.
func (b *Backuper) sqlite(ctx context.Context, dst string) error {
	if err := b.db.Database().WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return fmt.Errorf("sqlite snapshot: %w", err)
	}
	return nil
}

func (b *Backuper) mysql(ctx context.Context, dst string) error {
	m := b.dbConf.MySQL
	bin := b.conf.MysqlDump
	if bin == "" {
		bin = "mysqldump"
	}
	args := []string{
		"--single-transaction",
		"--routines",
		"--host", m.Host,
		"--user", m.User,
		"--result-file", dst,
	}
	if m.Port != "" {
		args = append(args, "--port", m.Port)
	}
	args = append(args, m.DBName)

	// the password goes through the environment so it stays out of ps
	var env []string
	if m.Password != "" {
		env = append(env, "MYSQL_PWD="+m.Password)
	}
	if out, err := b.run(ctx, bin, args, env); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", bin, err)
		}
		return fmt.Errorf("%s: %w: %s", bin, err, msg)
	}
	return nil
}

// List returns the backup files in the directory, newest first.
func (b *Backuper) List() ([]string, error) {
	entries, err := os.ReadDir(b.conf.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), filePrefix) {
			names = append(names, e.Name())
		}
	}
	// the timestamp follows the prefix, so name order is age order
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Prune keeps the newest Keep backups and removes the rest.
func (b *Backuper) Prune() ([]string, error) {
	if b.conf.Keep <= 0 {
		return nil, nil
	}
	names, err := b.List()
	if err != nil {
		return nil, err
	}
	if len(names) <= b.conf.Keep {
		return nil, nil
	}
	var removed []string
	for _, name := range names[b.conf.Keep:] {
		p := filepath.Join(b.conf.Dir, name)
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// Schedule registers the periodic backup. An empty schedule disables it.
func (b *Backuper) Schedule(s *cron.Scheduler) error {
	if b.conf.Schedule == "" {
		log.Info("scheduled backups disabled")
		return nil
	}
	return s.AddFunc(jobName, b.conf.Schedule, func() error {
		_, err := b.Run(context.Background())
		return err
	})
}

func execRunner(ctx context.Context, name string, args, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}
