package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// ANSI color codes for severity and status output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiGreen   = "\033[0;32m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls which rows and columns RenderResults renders.
type TableOptions struct {
	// Colored wraps severity and status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// OnlyProblems hides PASS and SKIPPED rows.
	OnlyProblems bool

	// IncludeResource adds a RESOURCE column with the offending resource IDs.
	IncludeResource bool
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	if !colored {
		return s
	}
	return severityColor(sev) + s + ansiReset
}

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	}
	return ""
}

func statusColor(st models.CheckStatus) string {
	switch st {
	case models.StatusFail:
		return ansiRed
	case models.StatusError:
		return ansiYellow
	case models.StatusPass:
		return ansiGreen
	}
	return ""
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// paddedCell returns text padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func paddedCell(text, code string, width int, colored bool) string {
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-char ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderResults writes a formatted check results table to w.
//
// Column order:
//
//	CHECK ID  REGION  STATUS  SEVERITY  [RESOURCE]  MESSAGE
func RenderResults(w io.Writer, results []models.CheckResult, opts TableOptions) {
	rows := results
	if opts.OnlyProblems {
		rows = nil
		for _, r := range results {
			if r.Status == models.StatusFail || r.Status == models.StatusError {
				rows = append(rows, r)
			}
		}
	}

	if len(rows) == 0 {
		if opts.OnlyProblems && len(results) > 0 {
			fmt.Fprintln(w, "No failing checks.")
			return
		}
		fmt.Fprintln(w, "No results.")
		return
	}

	const (
		wCheck    = 34
		wRegion   = 15
		wStatus   = 8
		wSeverity = 10
		wResource = 30
		wMessage  = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wCheck, "CHECK ID"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wStatus, "STATUS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	if opts.IncludeResource {
		hb.WriteString(fmt.Sprintf("  %-*s", wResource, "RESOURCE"))
	}
	hb.WriteString("  MESSAGE")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)+wMessage-len("MESSAGE")))

	for _, r := range rows {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wCheck, truncateField(r.CheckID, wCheck)))
		rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(r.Region, wRegion)))
		rb.WriteString("  " + paddedCell(string(r.Status), statusColor(r.Status), wStatus, opts.Colored))
		rb.WriteString("  " + paddedCell(string(r.Severity), severityColor(r.Severity), wSeverity, opts.Colored))
		if opts.IncludeResource {
			rb.WriteString(fmt.Sprintf("  %-*s", wResource, truncateField(r.ResourceID, wResource)))
		}
		rb.WriteString("  " + ShortenMessage(r.Message, wMessage))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderSummary writes the one-line run summary printed after the table.
func RenderSummary(w io.Writer, resp *models.RunResponse) {
	s := resp.Summary
	fmt.Fprintf(w, "\nAccount %s: %d checks, %d passed (%d skipped), %d failed, %d errors, %.1f%% pass rate in %.2fs\n",
		resp.AccountID, s.Total, s.Passed, s.Skipped, s.Failed, s.Errors, s.PassPercentage, resp.ExecutionTimeSeconds)
	if resp.Partial {
		fmt.Fprintln(w, "Run was cancelled; results are partial.")
	}
}
