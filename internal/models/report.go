package models

import "time"

// ReportFormat selects which rendered reports are attached to a RunResponse.
type ReportFormat string

const (
	// ReportFormatJSON attaches no rendered report; the response itself is the output.
	ReportFormatJSON           ReportFormat = "json"
	ReportFormatCSV            ReportFormat = "csv"
	ReportFormatNIST53         ReportFormat = "nist-53"
	ReportFormatNIST171        ReportFormat = "nist-171"
	ReportFormatMultiFramework ReportFormat = "multi-framework"
	ReportFormatAll            ReportFormat = "all"
)

// ReportFormats lists every accepted ReportFormat value.
var ReportFormats = []ReportFormat{
	ReportFormatJSON,
	ReportFormatCSV,
	ReportFormatNIST53,
	ReportFormatNIST171,
	ReportFormatMultiFramework,
	ReportFormatAll,
}

// Credentials carries optional static AWS credentials for a run. When
// AccessKey and SecretKey are empty the default credential chain (or Profile)
// is used.
type Credentials struct {
	AccessKey    string `json:"access_key,omitempty"`
	SecretKey    string `json:"-"`
	SessionToken string `json:"-"`
	Profile      string `json:"profile,omitempty"`
	Region       string `json:"region,omitempty"`
}

// RunRequest is the caller-facing description of one compliance run.
type RunRequest struct {
	Credentials Credentials `json:"credentials"`

	// Regions is an explicit region list. Ignored when AllRegions is true.
	Regions []string `json:"regions,omitempty"`

	// AllRegions discovers every opted-in region through the connector.
	AllRegions bool `json:"all_regions"`

	// Checks is an optional allow-list of check ids or glob patterns.
	Checks []string `json:"checks,omitempty"`

	// SkipChecks is an optional deny-list; it wins over Checks.
	SkipChecks []string `json:"skip_checks,omitempty"`

	// MinSeverity drops checks below this severity before execution.
	MinSeverity string `json:"severity,omitempty"`

	// Workers is the worker pool size. Zero means the default (10).
	Workers int `json:"workers"`

	// Parallel=false forces a single worker regardless of Workers. Nil
	// means parallel.
	Parallel *bool `json:"parallel,omitempty"`

	// Format selects the rendered reports attached to the response.
	Format ReportFormat `json:"format"`
}

// Sequential reports whether the request forces a single worker.
func (r RunRequest) Sequential() bool {
	return r.Parallel != nil && !*r.Parallel
}

// RunSummary aggregates result counts for a run.
// Passed counts every result that is neither FAIL nor ERROR, so
// Total == Passed + Failed + Errors always holds. Skipped is the subset of
// Passed whose status is SKIPPED.
type RunSummary struct {
	Total          int     `json:"total_checks"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Errors         int     `json:"errors"`
	Skipped        int     `json:"skipped"`
	PassPercentage float64 `json:"pass_percentage"`
}

// RunResponse is the complete output of a compliance run.
type RunResponse struct {
	AccountID            string        `json:"account_id"`
	Timestamp            time.Time     `json:"timestamp"`
	ExecutionTimeSeconds float64       `json:"execution_time_seconds"`
	Regions              []string      `json:"regions"`
	Summary              RunSummary    `json:"summary"`
	Results              []CheckResult `json:"results"`

	// Partial is true when the run was cancelled before every task was dispatched.
	Partial bool `json:"partial"`

	// ResultsFingerprint is a content hash of Results excluding timestamps.
	ResultsFingerprint string `json:"results_fingerprint"`

	CSVReport            string `json:"csv_report,omitempty"`
	NIST80053Report      string `json:"nist_800_53_report,omitempty"`
	NIST800171Report     string `json:"nist_800_171_report,omitempty"`
	CrossFrameworkMatrix string `json:"cross_framework_matrix,omitempty"`
}

// Summarize computes the RunSummary for results.
// PassPercentage is 0 when there are no results.
func Summarize(results []CheckResult) RunSummary {
	var s RunSummary
	s.Total = len(results)
	for _, r := range results {
		switch r.Status {
		case StatusFail:
			s.Failed++
		case StatusError:
			s.Errors++
		case StatusSkipped:
			s.Skipped++
		}
	}
	s.Passed = s.Total - s.Failed - s.Errors
	if s.Total > 0 {
		s.PassPercentage = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}
