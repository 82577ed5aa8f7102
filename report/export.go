/*
export.go - Tabular export of leave records

PURPOSE:
  Flattens records into rows and writes them as CSV (RFC 4180) or XLSX.
  The header row is the column keys of the first row; every row produced
  by RecordRows has the same keys in the same order.

NO DATA:
  An empty input is not a failure. Writers return ErrNoData and write
  nothing, so no empty file ever reaches the user.

SEE ALSO:
  - filter.go: Produces the records being exported
*/
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/warp/leave-portal/leave"
	"github.com/xuri/excelize/v2"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// SheetName is the worksheet used by WriteXLSX.
const SheetName = "Leave Report"

// Field is one cell with its column key.
type Field struct {
	Key   string
	Value any
}

// Row is an ordered list of fields.
type Row []Field

func (r Row) keys() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Key
	}
	return out
}

func (r Row) strings() []string {
	out := make([]string, len(r))
	for i, f := range r {
		if f.Value != nil {
			out[i] = fmt.Sprint(f.Value)
		}
	}
	return out
}

func (r Row) values() []any {
	out := make([]any, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// RecordRows flattens records for export. Leave types are labeled through
// catalog when it knows the code; nil catalog keeps the raw code.
func RecordRows(records []leave.Record, catalog *leave.Catalog) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		typeLabel := r.LeaveTypeCode
		if catalog != nil {
			if def, ok := catalog.Resolve(r.LeaveTypeCode); ok {
				typeLabel = def.DisplayName
			}
		}
		notes := ""
		if r.ReviewNotes != nil {
			notes = *r.ReviewNotes
		}
		rows = append(rows, Row{
			{"Teacher", r.Teacher.Name},
			{"Department", r.Teacher.Department},
			{"Leave Type", typeLabel},
			{"Start Date", r.StartDate.String()},
			{"End Date", r.EndDate.String()},
			{"Total Days", r.TotalDays},
			{"Status", string(r.Status)},
			{"Applied Date", r.AppliedDate.String()},
			{"Reason", r.Reason},
			{"Review Notes", notes},
		})
	}
	return rows
}

// WriteCSV writes a header plus one line per row. Commas, quotes and
// newlines inside values are quoted per RFC 4180.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rows[0].keys()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.strings()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as WriteCSV into a single worksheet.
func WriteXLSX(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := rows[0].keys()
	headerRow := make([]any, len(header))
	for i, k := range header {
		headerRow[i] = k
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename is the download name for an export produced on day.
func Filename(day leave.Date, ext string) string {
	return fmt.Sprintf("leave-report-%s.%s", day, ext)
}
