package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/report"
)

// ErrConnector is wrapped by every failure to build the AWS connector or to
// discover regions. Nothing has been executed when it is returned.
var ErrConnector = errors.New("aws connector")

// Engine is the top-level orchestrator of a compliance run. It never calls
// the AWS SDK directly; the connector, client factory, and checks do.
type Engine struct {
	catalog      *checks.Catalog
	connect      common.ConnectorFactory
	clients      awssecurity.ClientFactory
	mappingPaths mappings.Paths
	logger       *slog.Logger
	now          func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithConnectorFactory replaces the production connector. Used by tests.
func WithConnectorFactory(f common.ConnectorFactory) Option {
	return func(e *Engine) { e.connect = f }
}

// WithClientFactory replaces the production service client factory.
func WithClientFactory(f awssecurity.ClientFactory) Option {
	return func(e *Engine) { e.clients = f }
}

// WithMappingPaths overrides mapping table files. Empty fields keep the
// embedded defaults.
func WithMappingPaths(p mappings.Paths) Option {
	return func(e *Engine) { e.mappingPaths = p }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine over catalog wired to the real AWS SDK unless
// overridden by opts.
func New(catalog *checks.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		connect: common.NewConnector,
		clients: awssecurity.NewClientSet,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes one compliance run end to end:
//  1. validate the request
//  2. load the mapping tables (fresh for every run)
//  3. build the connector and resolve the account
//  4. resolve regions
//  5. execute the selected checks
//  6. summarise and render the requested reports
//
// Invalid requests return ErrInvalidOptions, credential and region discovery
// failures return ErrConnector, and unreadable mapping files return
// mappings.ErrInvalidMapping. Individual check failures never fail the run.
func (e *Engine) Run(ctx context.Context, req models.RunRequest) (*models.RunResponse, error) {
	start := e.now()

	format, opts, err := e.requestOptions(req)
	if err != nil {
		return nil, err
	}

	set, err := mappings.Load(e.mappingPaths)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}

	conn, err := e.connect(ctx, common.Credentials{
		AccessKey:    req.Credentials.AccessKey,
		SecretKey:    req.Credentials.SecretKey,
		SessionToken: req.Credentials.SessionToken,
		Profile:      req.Credentials.Profile,
		Region:       req.Credentials.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnector, err)
	}

	regions, err := e.resolveRegions(ctx, conn, req)
	if err != nil {
		return nil, err
	}

	e.logger.Info("compliance run started",
		"account", conn.AccountID(),
		"regions", len(regions),
		"workers", opts.workers(),
		"format", format,
	)

	exec, err := NewExecutor(conn.AccountID(), func(region string) *awssecurity.ClientSet {
		return e.clients(conn.ConfigForRegion(region))
	}, WithExecutorLogger(e.logger), WithExecutorClock(e.now)).ExecuteAll(ctx, e.catalog, regions, opts)
	if err != nil {
		return nil, err
	}

	resp := &models.RunResponse{
		AccountID:          conn.AccountID(),
		Timestamp:          start.UTC(),
		Regions:            regions,
		Summary:            models.Summarize(exec.Results),
		Results:            exec.Results,
		Partial:            exec.Partial,
		ResultsFingerprint: report.FingerprintHex(exec.Results),
	}

	rendered, err := report.New(exec.Results, set).Render(format)
	if err != nil {
		return nil, fmt.Errorf("render reports: %w", err)
	}
	resp.CSVReport = rendered[report.FieldCSV]
	resp.NIST80053Report = rendered[report.FieldNIST80053]
	resp.NIST800171Report = rendered[report.FieldNIST800171]
	resp.CrossFrameworkMatrix = rendered[report.FieldCrossFrameworkMatrix]

	resp.ExecutionTimeSeconds = math.Round(e.now().Sub(start).Seconds()*100) / 100

	e.logger.Info("compliance run finished",
		"account", resp.AccountID,
		"total", resp.Summary.Total,
		"failed", resp.Summary.Failed,
		"errors", resp.Summary.Errors,
		"partial", resp.Partial,
		"seconds", resp.ExecutionTimeSeconds,
	)
	return resp, nil
}

// Catalog returns the catalog the engine runs.
func (e *Engine) Catalog() *checks.Catalog { return e.catalog }

// requestOptions validates req and converts it to RunOptions. Every problem
// is collected into one ValidationError.
func (e *Engine) requestOptions(req models.RunRequest) (models.ReportFormat, RunOptions, error) {
	opts := RunOptions{
		Checks:      req.Checks,
		SkipChecks:  req.SkipChecks,
		MinSeverity: req.MinSeverity,
		Workers:     req.Workers,
	}
	if req.Sequential() {
		opts.Workers = 1
	}

	format := req.Format
	if format == "" {
		format = models.ReportFormatJSON
	}

	problems := opts.problems()
	if !validFormat(format) {
		problems = append(problems, fmt.Sprintf("format: unknown value %q", req.Format))
	}
	if !req.AllRegions {
		for i, r := range req.Regions {
			if strings.TrimSpace(r) == "" {
				problems = append(problems, fmt.Sprintf("regions[%d]: empty region name", i))
			}
		}
	}
	if len(problems) > 0 {
		return "", RunOptions{}, &ValidationError{Problems: problems}
	}
	return format, opts, nil
}

func validFormat(f models.ReportFormat) bool {
	for _, known := range models.ReportFormats {
		if f == known {
			return true
		}
	}
	return false
}

// resolveRegions returns the discovered regions when AllRegions is set, the
// explicit list otherwise, and the connector's home region as a last resort.
func (e *Engine) resolveRegions(ctx context.Context, conn common.Connector, req models.RunRequest) ([]string, error) {
	if req.AllRegions {
		regions, err := conn.ListRegions(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnector, err)
		}
		if len(regions) > 0 {
			return regions, nil
		}
		e.logger.Warn("region discovery returned no regions; using home region", "region", conn.HomeRegion())
		return []string{conn.HomeRegion()}, nil
	}
	if len(req.Regions) > 0 {
		return dedupe(req.Regions), nil
	}
	return []string{conn.HomeRegion()}, nil
}
