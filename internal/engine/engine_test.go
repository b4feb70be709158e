package engine

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeConnector struct {
	account    string
	home       string
	regions    []string
	regionsErr error
}

func (f *fakeConnector) AccountID() string  { return f.account }
func (f *fakeConnector) HomeRegion() string { return f.home }

func (f *fakeConnector) ListRegions(context.Context) ([]string, error) {
	return f.regions, f.regionsErr
}

func (f *fakeConnector) ConfigForRegion(region string) aws.Config {
	return aws.Config{Region: region}
}

func connectorFactory(c *fakeConnector, called *bool) common.ConnectorFactory {
	return func(_ context.Context, creds common.Credentials) (common.Connector, error) {
		if called != nil {
			*called = true
		}
		if creds.AccessKey == "bad" {
			return nil, errors.New("InvalidClientTokenId: the security token is invalid")
		}
		return c, nil
	}
}

func testEngine(conn *fakeConnector, cat *checks.Catalog, opts ...Option) *Engine {
	base := []Option{
		WithConnectorFactory(connectorFactory(conn, nil)),
		WithClientFactory(func(cfg aws.Config) *awssecurity.ClientSet { return &awssecurity.ClientSet{} }),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(cat, append(base, opts...)...)
}

// sampleCatalog uses real check IDs so the embedded mapping tables apply.
func sampleCatalog() *checks.Catalog {
	fail := global("ROOT_ACCESS_KEY", models.SeverityCritical)
	fail.fn = func(context.Context, checks.CheckContext) (models.CheckOutcome, error) {
		return models.CheckOutcome{Status: models.StatusFail, Message: "root keys", ResourceID: "root"}, nil
	}
	broken := regional("GUARDDUTY_DISABLED", models.SeverityHigh)
	broken.fn = func(_ context.Context, cc checks.CheckContext) (models.CheckOutcome, error) {
		if cc.Region == "eu-west-1" {
			return models.CheckOutcome{}, errors.New("throttled")
		}
		return models.CheckOutcome{Status: models.StatusPass}, nil
	}
	return checks.NewCatalog(fail, broken, regional("EBS_UNENCRYPTED", models.SeverityHigh))
}

// ── Run ───────────────────────────────────────────────────────────────────────

func TestRun_EndToEnd(t *testing.T) {
	conn := &fakeConnector{account: "123456789012", home: "us-east-1"}
	e := testEngine(conn, sampleCatalog())

	resp, err := e.Run(context.Background(), models.RunRequest{
		Regions: []string{"us-east-1", "eu-west-1"},
		Format:  models.ReportFormatAll,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccountID != "123456789012" {
		t.Errorf("AccountID = %q", resp.AccountID)
	}
	// 1 global + 2 x GuardDuty + 2 x EBS
	if resp.Summary.Total != 5 || resp.Summary.Failed != 1 || resp.Summary.Errors != 1 || resp.Summary.Passed != 3 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if math.Abs(resp.Summary.PassPercentage-60) > 1e-9 {
		t.Errorf("pass percentage = %v; want 60", resp.Summary.PassPercentage)
	}
	if resp.CSVReport == "" || resp.NIST80053Report == "" || resp.NIST800171Report == "" || resp.CrossFrameworkMatrix == "" {
		t.Error("format=all should attach every rendered report")
	}
	if !strings.Contains(resp.NIST80053Report, "SI-4,INDETERMINATE") {
		t.Errorf("GuardDuty error should make SI-4 indeterminate:\n%s", resp.NIST80053Report)
	}
	if len(resp.ResultsFingerprint) != 16 {
		t.Errorf("fingerprint = %q", resp.ResultsFingerprint)
	}
	if !resp.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", resp.Timestamp)
	}
}

func TestRun_JSONFormatAttachesNoReports(t *testing.T) {
	e := testEngine(&fakeConnector{account: "1", home: "us-east-1"}, sampleCatalog())
	resp, err := e.Run(context.Background(), models.RunRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.CSVReport != "" || resp.CrossFrameworkMatrix != "" {
		t.Error("json format should not attach rendered reports")
	}
	if len(resp.Regions) != 1 || resp.Regions[0] != "us-east-1" {
		t.Errorf("regions = %v; want the home region", resp.Regions)
	}
}

func TestRun_AllRegionsUsesDiscovery(t *testing.T) {
	conn := &fakeConnector{account: "1", home: "us-east-1", regions: []string{"ap-south-1", "eu-west-1", "us-east-1"}}
	resp, err := testEngine(conn, sampleCatalog()).Run(context.Background(), models.RunRequest{
		AllRegions: true,
		Regions:    []string{"ignored-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Regions) != 3 {
		t.Errorf("regions = %v", resp.Regions)
	}
	// GLOBAL check labelled with the first region.
	for _, r := range resp.Results {
		if r.CheckID == "ROOT_ACCESS_KEY" && r.Region != "ap-south-1" {
			t.Errorf("global check region = %q; want ap-south-1", r.Region)
		}
	}
}

func TestRun_ConnectorFailureIsFatal(t *testing.T) {
	e := testEngine(&fakeConnector{}, sampleCatalog())
	_, err := e.Run(context.Background(), models.RunRequest{
		Credentials: models.Credentials{AccessKey: "bad", SecretKey: "x"},
	})
	if !errors.Is(err, ErrConnector) {
		t.Fatalf("err = %v; want ErrConnector", err)
	}
	if !strings.Contains(err.Error(), "InvalidClientTokenId") {
		t.Errorf("error should carry the provider message: %v", err)
	}
}

func TestRun_RegionDiscoveryFailureIsFatal(t *testing.T) {
	conn := &fakeConnector{account: "1", home: "us-east-1", regionsErr: errors.New("UnauthorizedOperation")}
	_, err := testEngine(conn, sampleCatalog()).Run(context.Background(), models.RunRequest{AllRegions: true})
	if !errors.Is(err, ErrConnector) {
		t.Errorf("err = %v; want ErrConnector", err)
	}
}

func TestRun_InvalidRequest(t *testing.T) {
	called := false
	conn := &fakeConnector{account: "1", home: "us-east-1"}
	e := testEngine(conn, sampleCatalog(), WithConnectorFactory(connectorFactory(conn, &called)))

	_, err := e.Run(context.Background(), models.RunRequest{Format: "xml", MinSeverity: "URGENT", Workers: -2})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want *ValidationError", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("problems = %v; want 3", verr.Problems)
	}
	if called {
		t.Error("connector must not be built for an invalid request")
	}
}

func TestRun_InvalidMappingFileFailsBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, mappings.NIST80053File)
	if err := os.WriteFile(bad, []byte(`{"X": "not-a-list"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	called := false
	conn := &fakeConnector{account: "1", home: "us-east-1"}
	e := testEngine(conn, sampleCatalog(),
		WithConnectorFactory(connectorFactory(conn, &called)),
		WithMappingPaths(mappings.Paths{NIST80053: bad}),
	)
	_, err := e.Run(context.Background(), models.RunRequest{})
	if !errors.Is(err, mappings.ErrInvalidMapping) {
		t.Fatalf("err = %v; want ErrInvalidMapping", err)
	}
	if called {
		t.Error("connector must not be built when mappings are invalid")
	}
}

func TestRun_SequentialForcesOneWorker(t *testing.T) {
	e := testEngine(&fakeConnector{account: "1", home: "us-east-1"}, sampleCatalog())
	format, opts, err := e.requestOptions(models.RunRequest{Workers: 8, Parallel: aws.Bool(false)})
	if err != nil {
		t.Fatal(err)
	}
	if opts.workers() != 1 {
		t.Errorf("workers = %d; want 1", opts.workers())
	}
	if format != models.ReportFormatJSON {
		t.Errorf("format = %q; want json default", format)
	}

	_, opts, _ = e.requestOptions(models.RunRequest{})
	if opts.workers() != DefaultWorkers {
		t.Errorf("default workers = %d; want %d", opts.workers(), DefaultWorkers)
	}
}

func TestRun_ZeroResultsSummary(t *testing.T) {
	e := testEngine(&fakeConnector{account: "1", home: "us-east-1"}, sampleCatalog())
	resp, err := e.Run(context.Background(), models.RunRequest{Checks: []string{"NOTHING_MATCHES"}, Format: models.ReportFormatNIST53})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Summary.Total != 0 || resp.Summary.PassPercentage != 0 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if !strings.Contains(resp.NIST80053Report, "UNKNOWN") {
		t.Error("every control should be UNKNOWN when nothing ran")
	}
}
