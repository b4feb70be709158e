// Package render provides presentation-layer helpers for dp CLI output.
// It is a pure rendering package: no aggregation logic and no AWS API calls.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// ControlExplanation is the JSON shape of an explained control.
type ControlExplanation struct {
	ControlID  string                 `json:"control_id"`
	Frameworks []models.ControlRollup `json:"frameworks"`
	Results    []models.CheckResult   `json:"results"`
}

// RenderControlExplanation writes a breakdown of one control to w: its
// status in every framework that maps it, then the results of every mapped
// check grouped by check ID. Check IDs are sorted ascending for stable output.
//
// Example output:
//
//	CONTROL AC-2
//	  nist-800-53   NON_COMPLIANT  (1 passed, 1 failed, 0 errors, 0 skipped)
//
//	Checks (2):
//
//	  ✗ IAM_USER_NO_MFA
//	    - us-east-1  FAIL  2 console users without MFA: alice, bob
//
//	  ✓ ROOT_ACCESS_KEY
//	    - us-east-1  PASS  root account has no access keys
func RenderControlExplanation(w io.Writer, controlID string, rollups []models.ControlRollup, results []models.CheckResult) {
	fmt.Fprintf(w, "CONTROL %s\n", controlID)
	if len(rollups) == 0 {
		fmt.Fprintln(w, "  not mapped in any framework")
		return
	}
	for _, ru := range rollups {
		fmt.Fprintf(w, "  %-13s %-14s (%d passed, %d failed, %d errors, %d skipped)\n",
			ru.Framework, ru.Status, ru.Passed, ru.Failed, ru.Errors, ru.Skipped)
	}
	fmt.Fprintln(w)

	checkIDs := mappedChecks(rollups)
	byCheck := make(map[string][]models.CheckResult, len(checkIDs))
	for _, r := range results {
		byCheck[r.CheckID] = append(byCheck[r.CheckID], r)
	}

	fmt.Fprintf(w, "Checks (%d):\n", len(checkIDs))
	for _, id := range checkIDs {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", checkMarker(byCheck[id]), id)
		if len(byCheck[id]) == 0 {
			fmt.Fprintln(w, "    - not run")
			continue
		}
		for _, r := range byCheck[id] {
			fmt.Fprintf(w, "    - %s  %s  %s\n", r.Region, r.Status, r.Message)
		}
	}
}

// mappedChecks returns the sorted union of check IDs across rollups.
func mappedChecks(rollups []models.ControlRollup) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ru := range rollups {
		for _, id := range ru.CheckIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// checkMarker is ✗ for any FAIL, ! for any ERROR, ✓ for any PASS and - otherwise.
func checkMarker(results []models.CheckResult) string {
	var pass, errs bool
	for _, r := range results {
		switch r.Status {
		case models.StatusFail:
			return "✗"
		case models.StatusError:
			errs = true
		case models.StatusPass:
			pass = true
		}
	}
	switch {
	case errs:
		return "!"
	case pass:
		return "✓"
	}
	return "-"
}

// WriteExplainJSON writes the control explanation as indented JSON to w.
//
// When rollups is non-empty, the output is:
//
//	{"control": { ...ControlExplanation... }}
//
// When the control is not mapped anywhere, the output is:
//
//	{"error": "No framework maps control X"}
func WriteExplainJSON(w io.Writer, controlID string, rollups []models.ControlRollup, results []models.CheckResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(rollups) == 0 {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No framework maps control %s", strings.TrimSpace(controlID)),
		})
	}
	if results == nil {
		results = []models.CheckResult{}
	}
	return enc.Encode(map[string]any{
		"control": ControlExplanation{
			ControlID:  controlID,
			Frameworks: rollups,
			Results:    results,
		},
	})
}
