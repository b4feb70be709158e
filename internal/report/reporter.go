// Package report projects a flat list of check results onto the framework
// mapping tables. Every generator is a pure function of the inputs given to
// New; a Reporter may be used from several goroutines.
package report

import (
	"sort"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// Reporter generates reports for one run.
type Reporter struct {
	results  []models.CheckResult
	mappings mappings.Set

	// byCheck indexes results by check ID, preserving input order.
	byCheck map[string][]models.CheckResult
}

// New returns a Reporter over results and set. results is copied.
func New(results []models.CheckResult, set mappings.Set) *Reporter {
	r := &Reporter{
		results:  append([]models.CheckResult(nil), results...),
		mappings: set,
		byCheck:  make(map[string][]models.CheckResult),
	}
	for _, res := range r.results {
		r.byCheck[res.CheckID] = append(r.byCheck[res.CheckID], res)
	}
	return r
}

// Rollup returns one entry per control ID in fw's table, sorted by control
// ID. Controls mapped only to checks that did not run report UNKNOWN.
func (r *Reporter) Rollup(fw models.Framework) ([]models.ControlRollup, error) {
	table, err := r.mappings.Table(fw)
	if err != nil {
		return nil, err
	}

	controls := table.ControlIDs()
	rollups := make([]models.ControlRollup, 0, len(controls))
	for _, controlID := range controls {
		rollup := models.ControlRollup{
			Framework: fw,
			ControlID: controlID,
			CheckIDs:  table.ChecksFor(controlID),
		}
		for _, checkID := range rollup.CheckIDs {
			for _, res := range r.byCheck[checkID] {
				switch res.Status {
				case models.StatusPass:
					rollup.Passed++
				case models.StatusFail:
					rollup.Failed++
				case models.StatusError:
					rollup.Errors++
				case models.StatusSkipped:
					rollup.Skipped++
				}
			}
		}
		rollup.Status = aggregate(rollup)
		rollups = append(rollups, rollup)
	}
	return rollups, nil
}

// aggregate applies the precedence FAIL > ERROR > PASS. SKIPPED results do
// not count as coverage.
func aggregate(r models.ControlRollup) models.ControlStatus {
	switch {
	case r.Failed > 0:
		return models.ControlNonCompliant
	case r.Errors > 0:
		return models.ControlIndeterminate
	case r.Passed > 0:
		return models.ControlCompliant
	}
	return models.ControlUnknown
}

// Matrix returns the cross-framework matrix. Rows are the sorted union of
// control IDs across all tables; a cell is ControlAbsent when the control is
// not in that framework's table.
func (r *Reporter) Matrix() models.CrossFrameworkMatrix {
	m := models.CrossFrameworkMatrix{
		Frameworks: append([]models.Framework(nil), models.Frameworks...),
	}

	statuses := make([]map[string]models.ControlStatus, len(m.Frameworks))
	union := make(map[string]struct{})
	for i, fw := range m.Frameworks {
		statuses[i] = make(map[string]models.ControlStatus)
		rollups, err := r.Rollup(fw)
		if err != nil {
			continue
		}
		for _, ru := range rollups {
			statuses[i][ru.ControlID] = ru.Status
			union[ru.ControlID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	m.Rows = make([]models.MatrixRow, 0, len(ids))
	for _, id := range ids {
		row := models.MatrixRow{ControlID: id, Cells: make([]models.ControlStatus, len(m.Frameworks))}
		for i := range m.Frameworks {
			row.Cells[i] = statuses[i][id] // zero value is ControlAbsent
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// controlsFor returns the control IDs mapped to checkID in fw, or nil.
func (r *Reporter) controlsFor(fw models.Framework, checkID string) []string {
	table, err := r.mappings.Table(fw)
	if err != nil {
		return nil
	}
	return table.Controls(checkID)
}

// Control returns the rollup of controlID in every framework whose table
// contains it, in models.Frameworks order. It is empty for an unmapped ID.
func (r *Reporter) Control(controlID string) []models.ControlRollup {
	var out []models.ControlRollup
	for _, fw := range models.Frameworks {
		rollups, err := r.Rollup(fw)
		if err != nil {
			continue
		}
		i := sort.Search(len(rollups), func(i int) bool { return rollups[i].ControlID >= controlID })
		if i < len(rollups) && rollups[i].ControlID == controlID {
			out = append(out, rollups[i])
		}
	}
	return out
}

// ResultsFor returns the results of the given checks, in run order.
func (r *Reporter) ResultsFor(checkIDs []string) []models.CheckResult {
	want := make(map[string]bool, len(checkIDs))
	for _, id := range checkIDs {
		want[id] = true
	}
	var out []models.CheckResult
	for _, res := range r.results {
		if want[res.CheckID] {
			out = append(out, res)
		}
	}
	return out
}
