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

// Package export renders defect lists as CSV and XLSX spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/wire"
	"github.com/xuri/excelize/v2"

	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/internal/model"
)

var ProviderSet = wire.NewSet(ProvideExporter)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	SheetName     = "Defects"
	createdLayout = "2006-01-02 15:04"
)

// byteOrderMark lets spreadsheet apps detect UTF-8 in the CSV.
var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", model.NewValidationError("format", fmt.Sprintf("unsupported export format %q", s))
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Filename() string {
	return "defects." + string(f)
}

// Exporter writes defects with their project and executor preloaded.
// Timestamps are rendered in loc.
type Exporter struct {
	loc *time.Location
}

func New(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

// ProvideExporter renders timestamps in app.timezone.
func ProvideExporter(app conf.App) *Exporter {
	return New(app.Location())
}

func (e *Exporter) Write(w io.Writer, f Format, defects []model.Defect, labels model.Labels) error {
	switch f {
	case FormatXLSX:
		return e.WriteXLSX(w, defects, labels)
	default:
		return e.WriteCSV(w, defects, labels)
	}
}

type column struct {
	key   string
	width float64
	value func(e *Exporter, d *model.Defect, l model.Labels) any
}

var (
	colID          = column{"id", 8, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return d.ID }}
	colProject     = column{"project", 24, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return projectName(d) }}
	colTitle       = column{"title", 40, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return d.Title }}
	colDescription = column{"description", 60, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return d.Description }}
	colPriority    = column{"priority", 12, func(_ *Exporter, d *model.Defect, l model.Labels) any { return l.Priority(d.Priority) }}
	colStatus      = column{"status", 14, func(_ *Exporter, d *model.Defect, l model.Labels) any { return l.Status(d.Status) }}
	colExecutor    = column{"executor", 18, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return executorName(d) }}
	colDeadline    = column{"deadline", 12, func(_ *Exporter, d *model.Defect, _ model.Labels) any { return model.FormatDate(d.Deadline) }}
	colCreated     = column{"created", 18, func(e *Exporter, d *model.Defect, _ model.Labels) any {
		return d.CreatedAt.In(e.loc).Format(createdLayout)
	}}

	csvColumns  = []column{colID, colProject, colTitle, colPriority, colStatus, colExecutor, colDeadline, colCreated}
	xlsxColumns = []column{colID, colProject, colTitle, colDescription, colPriority, colStatus, colExecutor, colDeadline, colCreated}
)

func header(cols []column, labels model.Labels) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = labels.Column(c.key)
	}
	return out
}

// WriteCSV writes a BOM-prefixed, semicolon separated file.
func (e *Exporter) WriteCSV(w io.Writer, defects []model.Defect, labels model.Labels) error {
	if _, err := w.Write(byteOrderMark); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(header(csvColumns, labels)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(csvColumns))
	for i := range defects {
		for j, c := range csvColumns {
			switch v := c.value(e, &defects[i], labels).(type) {
			case uint64:
				row[j] = strconv.FormatUint(v, 10)
			case string:
				row[j] = v
			default:
				row[j] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a single sheet. It adds the description
// column the CSV leaves out.
func (e *Exporter) WriteXLSX(w io.Writer, defects []model.Defect, labels model.Labels) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	for i, c := range xlsxColumns {
		if err := sw.SetColWidth(i+1, i+1, c.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	titles := header(xlsxColumns, labels)
	head := make([]any, len(titles))
	for i, t := range titles {
		head[i] = excelize.Cell{StyleID: bold, Value: t}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range defects {
		values := make([]any, len(xlsxColumns))
		for j, c := range xlsxColumns {
			values[j] = c.value(e, &defects[i], labels)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func projectName(d *model.Defect) string {
	if d.Project == nil {
		return ""
	}
	return d.Project.Name
}

func executorName(d *model.Defect) string {
	if d.Executor == nil {
		return ""
	}
	return d.Executor.Username
}
