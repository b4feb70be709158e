package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/report"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeCheck struct {
	id    string
	sev   models.Severity
	scope models.Scope
	fn    func(ctx context.Context, cc checks.CheckContext) (models.CheckOutcome, error)
}

func (f fakeCheck) ID() string                { return f.id }
func (f fakeCheck) Name() string              { return f.id + " check" }
func (f fakeCheck) Severity() models.Severity { return f.sev }
func (f fakeCheck) Scope() models.Scope       { return f.scope }

func (f fakeCheck) Execute(ctx context.Context, cc checks.CheckContext) (models.CheckOutcome, error) {
	if f.fn != nil {
		return f.fn(ctx, cc)
	}
	return models.CheckOutcome{Status: models.StatusPass, Message: "ok " + cc.Region}, nil
}

func regional(id string, sev models.Severity) fakeCheck {
	return fakeCheck{id: id, sev: sev, scope: models.ScopePerRegion}
}

func global(id string, sev models.Severity) fakeCheck {
	return fakeCheck{id: id, sev: sev, scope: models.ScopeGlobal}
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestExecutor() *Executor {
	return NewExecutor("123456789012",
		func(string) *awssecurity.ClientSet { return &awssecurity.ClientSet{} },
		WithExecutorClock(func() time.Time { return fixedNow }),
	)
}

func ids(results []models.CheckResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.CheckID + "@" + r.Region
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ── task set construction ─────────────────────────────────────────────────────

func TestExecuteAll_GlobalRunsOnce(t *testing.T) {
	cat := checks.NewCatalog(global("G", models.SeverityHigh), regional("R", models.SeverityHigh))
	exec, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{"us-east-1", "eu-west-1", "ap-south-1"}, RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"G@us-east-1", "R@ap-south-1", "R@eu-west-1", "R@us-east-1"}
	if got := ids(exec.Results); !equalStrings(got, want) {
		t.Errorf("results = %v; want %v", got, want)
	}
	if exec.Scheduled != 4 || exec.Completed != 4 || exec.Partial {
		t.Errorf("exec = %+v", exec)
	}
}

func TestExecuteAll_FilterAlgebra(t *testing.T) {
	cat := checks.NewCatalog(
		regional("S3_PUBLIC", models.SeverityHigh),
		regional("S3_ENCRYPTION", models.SeverityMedium),
		regional("IAM_MFA", models.SeverityMedium),
		regional("EBS_ENC", models.SeverityLow),
	)
	tests := []struct {
		name string
		opts RunOptions
		want []string
	}{
		{"everything", RunOptions{}, []string{"EBS_ENC", "IAM_MFA", "S3_ENCRYPTION", "S3_PUBLIC"}},
		{"allow exact", RunOptions{Checks: []string{"IAM_MFA"}}, []string{"IAM_MFA"}},
		{"allow unknown drops silently", RunOptions{Checks: []string{"NOPE", "IAM_MFA"}}, []string{"IAM_MFA"}},
		{"allow only unknown", RunOptions{Checks: []string{"NOPE"}}, nil},
		{"allow glob", RunOptions{Checks: []string{"S3_*"}}, []string{"S3_ENCRYPTION", "S3_PUBLIC"}},
		{"deny wins over allow", RunOptions{Checks: []string{"IAM_MFA", "S3_PUBLIC"}, SkipChecks: []string{"IAM_MFA"}}, []string{"S3_PUBLIC"}},
		{"deny glob", RunOptions{SkipChecks: []string{"S3_*"}}, []string{"EBS_ENC", "IAM_MFA"}},
		{"min severity", RunOptions{MinSeverity: "medium"}, []string{"IAM_MFA", "S3_ENCRYPTION", "S3_PUBLIC"}},
		{"duplicate allow entries", RunOptions{Checks: []string{"IAM_MFA", "IAM_MFA"}}, []string{"IAM_MFA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{"us-east-1"}, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, r := range exec.Results {
				got = append(got, r.CheckID)
			}
			if !equalStrings(got, tt.want) {
				t.Errorf("checks = %v; want %v", got, tt.want)
			}
		})
	}
}

// A = HIGH/PER_REGION, B = LOW/GLOBAL, two regions, min severity MEDIUM:
// exactly two results, both for A.
func TestExecuteAll_MinSeverityScenario(t *testing.T) {
	var bRan atomic.Bool
	b := global("B", models.SeverityLow)
	b.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		bRan.Store(true)
		return models.CheckOutcome{Status: models.StatusPass}, nil
	}
	cat := checks.NewCatalog(regional("A", models.SeverityHigh), b)

	exec, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{"r1", "r2"}, RunOptions{MinSeverity: "MEDIUM"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(exec.Results); !equalStrings(got, []string{"A@r1", "A@r2"}) {
		t.Errorf("results = %v", got)
	}
	if bRan.Load() {
		t.Error("check below the severity floor must not execute")
	}
}

func TestExecuteAll_DuplicateRegionsCollapsed(t *testing.T) {
	cat := checks.NewCatalog(regional("A", models.SeverityHigh))
	exec, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{"r1", "r1"}, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(exec.Results) != 1 {
		t.Errorf("expected one result, got %v", ids(exec.Results))
	}
}

// ── fault isolation ───────────────────────────────────────────────────────────

func TestExecuteAll_ErrorsAndPanicsBecomeErrorResults(t *testing.T) {
	failing := regional("ERR", models.SeverityHigh)
	failing.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		return models.CheckOutcome{}, errors.New("AccessDenied: not authorized")
	}
	panicking := regional("PANIC", models.SeverityHigh)
	panicking.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		panic("nil map write")
	}
	blank := regional("BLANK", models.SeverityHigh)
	blank.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		return models.CheckOutcome{}, nil
	}
	cat := checks.NewCatalog(failing, panicking, blank, regional("OK", models.SeverityLow))

	exec, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{"r1", "r2"}, RunOptions{Workers: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.Results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(exec.Results))
	}
	for _, r := range exec.Results {
		switch r.CheckID {
		case "ERR":
			if r.Status != models.StatusError || !strings.Contains(r.Message, "AccessDenied") {
				t.Errorf("ERR result = %+v", r)
			}
		case "PANIC":
			if r.Status != models.StatusError || !strings.Contains(r.Message, "nil map write") {
				t.Errorf("PANIC result = %+v", r)
			}
		case "BLANK":
			if r.Status != models.StatusError {
				t.Errorf("BLANK result = %+v", r)
			}
		case "OK":
			if r.Status != models.StatusPass {
				t.Errorf("OK result = %+v", r)
			}
		}
		if r.Severity != models.SeverityHigh && r.CheckID != "OK" {
			t.Errorf("%s: severity %s not copied from check", r.CheckID, r.Severity)
		}
		if !r.Timestamp.Equal(fixedNow) {
			t.Errorf("%s: timestamp %v", r.CheckID, r.Timestamp)
		}
	}
}

// ── concurrency ──────────────────────────────────────────────────────────────

func determinismCatalog() *checks.Catalog {
	var list []checks.Check
	for _, id := range []string{"K1", "K2", "K3", "K4", "K5", "K6"} {
		c := regional(id, models.SeverityMedium)
		c.fn = func(_ context.Context, cc checks.CheckContext) (models.CheckOutcome, error) {
			time.Sleep(time.Millisecond)
			if strings.HasSuffix(cc.Region, "1") {
				return models.CheckOutcome{Status: models.StatusFail, Message: "bad", ResourceID: "res-" + cc.Region}, nil
			}
			return models.CheckOutcome{Status: models.StatusPass, Message: "good"}, nil
		}
		list = append(list, c)
	}
	list = append(list, global("GLOBAL", models.SeverityCritical))
	return checks.NewCatalog(list...)
}

func TestExecuteAll_WorkerCountDoesNotChangeContent(t *testing.T) {
	regions := []string{"us-east-1", "us-west-2", "eu-west-1", "ap-south-1"}
	cat := determinismCatalog()

	seq, err := newTestExecutor().ExecuteAll(context.Background(), cat, regions, RunOptions{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	par, err := newTestExecutor().ExecuteAll(context.Background(), cat, regions, RunOptions{Workers: 8})
	if err != nil {
		t.Fatal(err)
	}
	if report.Fingerprint(seq.Results) != report.Fingerprint(par.Results) {
		t.Error("fingerprints differ between workers=1 and workers=8")
	}
	if !equalStrings(ids(seq.Results), ids(par.Results)) {
		t.Errorf("result order differs:\n%v\n%v", ids(seq.Results), ids(par.Results))
	}
	if models.Summarize(seq.Results) != models.Summarize(par.Results) {
		t.Error("summaries differ")
	}
}

func TestExecuteAll_BoundsInFlightTasks(t *testing.T) {
	var inFlight, peak atomic.Int32
	c := regional("SLOW", models.SeverityHigh)
	c.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return models.CheckOutcome{Status: models.StatusPass}, nil
	}
	regions := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	if _, err := newTestExecutor().ExecuteAll(context.Background(), checks.NewCatalog(c), regions, RunOptions{Workers: 3}); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak in-flight = %d; want <= 3", peak.Load())
	}
}

// ── cancellation ─────────────────────────────────────────────────────────────

func TestExecuteAll_CancellationStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var detached atomic.Bool
	c := regional("A", models.SeverityHigh)
	c.fn = func(taskCtx context.Context, _ checks.CheckContext) (models.CheckOutcome, error) {
		cancel()
		detached.Store(taskCtx.Err() == nil)
		return models.CheckOutcome{Status: models.StatusPass}, nil
	}

	exec, err := newTestExecutor().ExecuteAll(ctx, checks.NewCatalog(c), []string{"r1", "r2", "r3"}, RunOptions{Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exec.Partial {
		t.Error("expected Partial after cancellation")
	}
	if exec.Scheduled != 3 || exec.Completed != 1 || len(exec.Results) != 1 {
		t.Errorf("scheduled=%d completed=%d results=%d; want 3/1/1", exec.Scheduled, exec.Completed, len(exec.Results))
	}
	if exec.Results[0].Status != models.StatusPass {
		t.Errorf("in-flight task should finish normally, got %+v", exec.Results[0])
	}
	if !detached.Load() {
		t.Error("in-flight task context should not observe the cancellation")
	}
}

func TestExecuteAll_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec, err := newTestExecutor().ExecuteAll(ctx, checks.NewCatalog(regional("A", models.SeverityHigh)), []string{"r1"}, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(exec.Results) != 0 || !exec.Partial {
		t.Errorf("exec = %+v; want no results and Partial", exec)
	}
}

// ── validation ───────────────────────────────────────────────────────────────

func TestExecuteAll_InvalidOptionsCollectsAllProblems(t *testing.T) {
	cat := checks.NewCatalog(regional("A", models.SeverityHigh))
	_, err := newTestExecutor().ExecuteAll(context.Background(), cat, []string{""}, RunOptions{
		Workers:     -1,
		MinSeverity: "SEVERE",
		Checks:      []string{"S3_[A"},
	})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("err = %v; want ErrInvalidOptions", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err is not a *ValidationError: %T", err)
	}
	if len(verr.Problems) != 4 {
		t.Errorf("problems = %v; want 4", verr.Problems)
	}
}

func TestExecuteAll_NoRegions(t *testing.T) {
	_, err := newTestExecutor().ExecuteAll(context.Background(), checks.NewCatalog(), nil, RunOptions{})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("err = %v; want ErrInvalidOptions", err)
	}
}

func TestRunOptions_Validate(t *testing.T) {
	if err := (RunOptions{Workers: 4, MinSeverity: "low", SkipChecks: []string{"S3_*"}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (RunOptions{SkipChecks: []string{"[unclosed"}}).Validate(); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("err = %v; want ErrInvalidOptions", err)
	}
}
