package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// Response field names used as keys in the map returned by Render.
const (
	FieldCSV                  = "csv_report"
	FieldNIST80053            = "nist_800_53_report"
	FieldNIST800171           = "nist_800_171_report"
	FieldCrossFrameworkMatrix = "cross_framework_matrix"
)

// AbsentMarker is how a ControlAbsent matrix cell is rendered.
const AbsentMarker = "-"

// TabularHeader is the column layout of Tabular.
var TabularHeader = []string{
	"check_id", "check_name", "region", "status", "severity", "message",
	"resource_id", "timestamp",
	"generic_controls", "nist_800_53_controls", "nist_800_171_controls",
}

var rollupHeader = []string{"control_id", "status", "check_ids", "passed", "failed", "errors", "skipped"}

// Tabular renders one CSV row per result in input order. Unmapped checks get
// empty control columns.
func (r *Reporter) Tabular() (string, error) {
	rows := make([][]string, 0, len(r.results)+1)
	rows = append(rows, TabularHeader)
	for _, res := range r.results {
		ts := ""
		if !res.Timestamp.IsZero() {
			ts = res.Timestamp.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			res.CheckID,
			res.CheckName,
			res.Region,
			string(res.Status),
			string(res.Severity),
			res.Message,
			res.ResourceID,
			ts,
			strings.Join(r.controlsFor(models.FrameworkGeneric, res.CheckID), ","),
			strings.Join(r.controlsFor(models.FrameworkNIST80053, res.CheckID), ","),
			strings.Join(r.controlsFor(models.FrameworkNIST800171, res.CheckID), ","),
		})
	}
	return writeCSV(rows)
}

// NIST80053Report renders the NIST 800-53 rollup as CSV.
func (r *Reporter) NIST80053Report() (string, error) {
	return r.rollupCSV(models.FrameworkNIST80053)
}

// NIST800171Report renders the NIST 800-171 rollup as CSV.
func (r *Reporter) NIST800171Report() (string, error) {
	return r.rollupCSV(models.FrameworkNIST800171)
}

func (r *Reporter) rollupCSV(fw models.Framework) (string, error) {
	rollups, err := r.Rollup(fw)
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(rollups)+1)
	rows = append(rows, rollupHeader)
	for _, ru := range rollups {
		rows = append(rows, rollupRow(ru))
	}
	return writeCSV(rows)
}

func rollupRow(ru models.ControlRollup) []string {
	return []string{
		ru.ControlID,
		string(ru.Status),
		strings.Join(ru.CheckIDs, ","),
		strconv.Itoa(ru.Passed),
		strconv.Itoa(ru.Failed),
		strconv.Itoa(ru.Errors),
		strconv.Itoa(ru.Skipped),
	}
}

// MatrixReport renders the cross-framework matrix as CSV.
func (r *Reporter) MatrixReport() (string, error) {
	m := r.Matrix()
	rows := make([][]string, 0, len(m.Rows)+1)
	rows = append(rows, matrixHeader(m))
	for _, row := range m.Rows {
		rows = append(rows, matrixRow(row))
	}
	return writeCSV(rows)
}

func matrixHeader(m models.CrossFrameworkMatrix) []string {
	header := []string{"control_id"}
	for _, fw := range m.Frameworks {
		header = append(header, string(fw))
	}
	return header
}

func matrixRow(row models.MatrixRow) []string {
	out := []string{row.ControlID}
	for _, cell := range row.Cells {
		out = append(out, CellText(cell))
	}
	return out
}

// CellText renders a matrix cell, using AbsentMarker for ControlAbsent.
func CellText(s models.ControlStatus) string {
	if s == models.ControlAbsent {
		return AbsentMarker
	}
	return string(s)
}

// Render returns the reports requested by format, keyed by response field.
// ReportFormatJSON yields an empty map.
func (r *Reporter) Render(format models.ReportFormat) (map[string]string, error) {
	out := make(map[string]string)
	want := func(f models.ReportFormat) bool {
		return format == f || format == models.ReportFormatAll
	}

	switch format {
	case models.ReportFormatJSON, models.ReportFormatCSV, models.ReportFormatNIST53,
		models.ReportFormatNIST171, models.ReportFormatMultiFramework, models.ReportFormatAll:
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}

	if want(models.ReportFormatCSV) {
		s, err := r.Tabular()
		if err != nil {
			return nil, err
		}
		out[FieldCSV] = s
	}
	if want(models.ReportFormatNIST53) {
		s, err := r.NIST80053Report()
		if err != nil {
			return nil, err
		}
		out[FieldNIST80053] = s
	}
	if want(models.ReportFormatNIST171) {
		s, err := r.NIST800171Report()
		if err != nil {
			return nil, err
		}
		out[FieldNIST800171] = s
	}
	if want(models.ReportFormatMultiFramework) {
		s, err := r.MatrixReport()
		if err != nil {
			return nil, err
		}
		out[FieldCrossFrameworkMatrix] = s
	}
	return out, nil
}

func writeCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return buf.String(), nil
}
