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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sistemakontrol/kontrol/internal/export"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
)

var exportOpts struct {
	as      string
	format  string
	out     string
	lang    string
	status  string
	project uint64
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the defects an account can see as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := export.ParseFormat(exportOpts.format)
		if err != nil {
			return err
		}
		q := model.DefectQuery{}
		if exportOpts.status != "" {
			if q.Status, err = model.ParseStatus(exportOpts.status); err != nil {
				return err
			}
		}
		if exportOpts.project != 0 {
			q.ProjectID = &exportOpts.project
		}

		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		u, err := e.repos.User.GetByUsername(cmd.Context(), exportOpts.as)
		if err != nil {
			return fmt.Errorf("account %q: %w", exportOpts.as, err)
		}
		defects, err := e.services.Defect.ListAll(cmd.Context(), policy.NewActor(u), q)
		if err != nil {
			return err
		}

		catalog := e.services.Catalog
		labels := model.NewLabels(catalog, catalog.Match(exportOpts.lang))

		var w io.Writer = cmd.OutOrStdout()
		if exportOpts.out != "" {
			f, err := os.Create(exportOpts.out)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := export.New(e.cfg.App.Location()).Write(w, format, defects, labels); err != nil {
			return err
		}
		if exportOpts.out != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d defect(s) to %s\n", len(defects), exportOpts.out)
		}
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.as, "as", "", "account whose visibility applies")
	f.StringVarP(&exportOpts.format, "format", "f", string(export.FormatCSV), "csv or xlsx")
	f.StringVarP(&exportOpts.out, "out", "o", "", "output file, stdout when omitted")
	f.StringVar(&exportOpts.lang, "lang", "", "label language, app.locale when omitted")
	f.StringVar(&exportOpts.status, "status", "", "only defects in this status")
	f.Uint64Var(&exportOpts.project, "project", 0, "only defects of this project")
	_ = exportCmd.MarkFlagRequired("as")
}
