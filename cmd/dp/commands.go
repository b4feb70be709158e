package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	checkpack "github.com/pankaj-dahiya-devops/compliance-proxy/internal/checkpacks/aws"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/config"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/engine"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/output"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/policy"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/render"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/report"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/version"
)

// errSilentFailure makes dp exit non-zero without printing an error; the
// command has already written its verdict.
var errSilentFailure = errors.New("silent failure")

// formatTable is the CLI-only terminal rendering. The engine runs it as json.
const formatTable = "table"

// app carries dependencies and state shared by every subcommand. Tests
// replace the factories and getenv.
type app struct {
	connect common.ConnectorFactory
	clients awssecurity.ClientFactory
	getenv  func(string) string

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{
		connect: common.NewConnector,
		clients: awssecurity.NewClientSet,
		getenv:  os.Getenv,
	})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dp",
		Short:         "DevOps Proxy: multi-framework AWS compliance engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config.yaml (default: $XDG_CONFIG_HOME/devops-proxy/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: config or warn)")

	root.AddCommand(newAWSCmd(a))
	root.AddCommand(newDoctorCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// init loads the application config and builds the stderr logger.
func (a *app) init(stderr io.Writer) error {
	cfg, err := config.NewFileLoader(a.configPath).Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.Log.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		a.logger = slog.New(slog.NewJSONHandler(stderr, opts))
	} else {
		a.logger = slog.New(slog.NewTextHandler(stderr, opts))
	}
	return nil
}

// credentials returns the connector credentials for profile. Static keys
// from the environment are used only when no profile is selected.
func (a *app) credentials(profile, region string) models.Credentials {
	if profile == "" {
		profile = a.cfg.AWS.DefaultProfile
	}
	if region == "" {
		region = a.cfg.AWS.DefaultRegion
	}
	creds := models.Credentials{Profile: profile, Region: region}
	if profile == "" {
		creds.AccessKey = a.getenv("AWS_ACCESS_KEY_ID")
		creds.SecretKey = a.getenv("AWS_SECRET_ACCESS_KEY")
		creds.SessionToken = a.getenv("AWS_SESSION_TOKEN")
	}
	return creds
}

func newAWSCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aws",
		Short: "AWS provider commands",
	}
	cmd.AddCommand(newAuditCmd(a))
	cmd.AddCommand(newChecksCmd(a))
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run an audit against an AWS account",
	}
	cmd.AddCommand(newComplianceCmd(a))
	return cmd
}

// complianceFlags holds the flag values of dp aws audit compliance.
type complianceFlags struct {
	profile     string
	homeRegion  string
	regions     []string
	allRegions  bool
	checks      []string
	skipChecks  []string
	severity    string
	workers     int
	noParallel  bool
	format      string
	output      string
	policyPath  string
	mappingsDir string
	controls    bool
	explain     string
	onlyFailing bool
	color       bool
}

func newComplianceCmd(a *app) *cobra.Command {
	var f complianceFlags

	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Run compliance checks and map the results onto CIS and NIST controls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompliance(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.profile, "profile", "", "AWS profile name (default: config, environment, or default profile)")
	cmd.Flags().StringVar(&f.homeRegion, "home-region", "", "Region used for account-level calls (default: config or us-east-1)")
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "AWS region(s) to audit (default: policy or home region)")
	cmd.Flags().BoolVar(&f.allRegions, "all-regions", false, "Audit every region enabled for the account")
	cmd.Flags().StringSliceVar(&f.checks, "check", nil, "Only run these check IDs (glob patterns allowed)")
	cmd.Flags().StringSliceVar(&f.skipChecks, "skip-check", nil, "Never run these check IDs (glob patterns allowed)")
	cmd.Flags().StringVar(&f.severity, "severity", "", "Minimum check severity: LOW, MEDIUM, HIGH, CRITICAL")
	cmd.Flags().IntVar(&f.workers, "workers", 0, fmt.Sprintf("Concurrent check tasks (default %d)", engine.DefaultWorkers))
	cmd.Flags().BoolVar(&f.noParallel, "no-parallel", false, "Run one task at a time")
	cmd.Flags().StringVar(&f.format, "format", formatTable, "Output format: table, json, csv, nist-53, nist-171, multi-framework, all")
	cmd.Flags().StringVar(&f.output, "output", "", "Write the full JSON response to this file path (in addition to stdout output)")
	cmd.Flags().StringVar(&f.policyPath, "policy", "", "Policy file (default: ./dp.yaml when present)")
	cmd.Flags().StringVar(&f.mappingsDir, "mappings-dir", "", "Directory with frameworks.json, nist_800_53.json, nist_800_171.json overrides")
	cmd.Flags().BoolVar(&f.controls, "controls", false, "With --format=table, also print framework rollups and the cross-framework matrix")
	cmd.Flags().StringVar(&f.explain, "explain", "", "Print the breakdown of one control ID instead of the results table")
	cmd.Flags().BoolVar(&f.onlyFailing, "only-failing", false, "With --format=table, hide PASS and SKIPPED rows")
	cmd.Flags().BoolVar(&f.color, "color", false, "Colour severities and statuses in table output")

	return cmd
}

func (a *app) runCompliance(cmd *cobra.Command, f complianceFlags) error {
	catalog := checkpack.Catalog()
	stdout := cmd.OutOrStdout()

	pol, err := loadPolicy(f.policyPath, catalog.IDs())
	if err != nil {
		return err
	}

	req := models.RunRequest{
		Credentials: a.credentials(f.profile, f.homeRegion),
		Regions:     f.regions,
		AllRegions:  f.allRegions,
		Checks:      f.checks,
		SkipChecks:  f.skipChecks,
		MinSeverity: f.severity,
		Workers:     f.workers,
		Format:      models.ReportFormat(f.format),
	}
	if f.noParallel {
		parallel := false
		req.Parallel = &parallel
	}
	if f.format == formatTable {
		req.Format = models.ReportFormatJSON
	}
	policy.ApplyToRequest(pol, &req)

	paths := mappingPaths(f.mappingsDir, pol)
	eng := engine.New(catalog,
		engine.WithConnectorFactory(a.connect),
		engine.WithClientFactory(a.clients),
		engine.WithMappingPaths(paths),
		engine.WithLogger(a.logger),
	)

	resp, err := eng.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("compliance audit failed: %w", err)
	}

	if f.output != "" {
		if err := writeResponseToFile(f.output, resp); err != nil {
			return err
		}
	}

	switch {
	case f.explain != "":
		err = printExplanation(stdout, f, paths, resp)
	case f.format == formatTable:
		err = printTable(stdout, f, paths, resp)
	default:
		err = printFormat(stdout, req.Format, resp)
	}
	if err != nil {
		return err
	}

	if policy.ShouldFail(resp.Results, pol) {
		fmt.Fprintf(cmd.ErrOrStderr(), "policy: failing checks at or above %s\n",
			strings.ToUpper(pol.Enforcement.FailOnSeverity))
		return errSilentFailure
	}
	return nil
}

// loadPolicy loads and validates the policy at path, or ./dp.yaml when path
// is empty. No policy file is not an error.
func loadPolicy(path string, catalogIDs []string) (*policy.PolicyConfig, error) {
	if path == "" {
		path = policy.FindPolicy(".")
		if path == "" {
			return nil, nil
		}
	}
	cfg, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", path, err)
	}
	if errs := policy.Validate(cfg, catalogIDs); len(errs) > 0 {
		return nil, fmt.Errorf("invalid policy %s: %w", path, errors.Join(errs...))
	}
	return cfg, nil
}

// mappingPaths resolves mapping overrides: --mappings-dir first, then the
// policy file, then the embedded tables.
func mappingPaths(dir string, pol *policy.PolicyConfig) mappings.Paths {
	var paths mappings.Paths
	if dir != "" {
		paths = mappings.PathsFromDir(dir)
	}
	if pol != nil {
		paths = paths.Merge(pol.Mappings)
	}
	return paths
}

// printFormat writes the rendered report(s) selected by format to w.
// json and all print the whole response.
func printFormat(w io.Writer, format models.ReportFormat, resp *models.RunResponse) error {
	var body string
	switch format {
	case models.ReportFormatCSV:
		body = resp.CSVReport
	case models.ReportFormatNIST53:
		body = resp.NIST80053Report
	case models.ReportFormatNIST171:
		body = resp.NIST800171Report
	case models.ReportFormatMultiFramework:
		body = resp.CrossFrameworkMatrix
	default:
		return printJSON(w, resp)
	}
	_, err := io.WriteString(w, body)
	return err
}

// printTable renders the results table and summary, and with --controls the
// framework rollups and matrix.
func printTable(w io.Writer, f complianceFlags, paths mappings.Paths, resp *models.RunResponse) error {
	fmt.Fprintf(w, "Account: %-14s  Regions: %d  Checks: %d  Fingerprint: %s\n\n",
		resp.AccountID, len(resp.Regions), resp.Summary.Total, resp.ResultsFingerprint)

	output.RenderResults(w, resp.Results, output.TableOptions{
		Colored:         f.color,
		OnlyProblems:    f.onlyFailing,
		IncludeResource: true,
	})
	output.RenderSummary(w, resp)

	if !f.controls {
		return nil
	}
	set, err := mappings.Load(paths)
	if err != nil {
		return err
	}
	rep := report.New(resp.Results, set)
	for _, fw := range []models.Framework{models.FrameworkNIST80053, models.FrameworkNIST800171} {
		rollups, err := rep.Rollup(fw)
		if err != nil {
			return err
		}
		if err := report.WriteRollupTable(w, fw, rollups); err != nil {
			return err
		}
	}
	return report.WriteMatrixTable(w, rep.Matrix())
}

func printExplanation(w io.Writer, f complianceFlags, paths mappings.Paths, resp *models.RunResponse) error {
	set, err := mappings.Load(paths)
	if err != nil {
		return err
	}
	rep := report.New(resp.Results, set)
	controlID := strings.TrimSpace(f.explain)
	rollups := rep.Control(controlID)

	var checkIDs []string
	for _, ru := range rollups {
		checkIDs = append(checkIDs, ru.CheckIDs...)
	}
	results := rep.ResultsFor(checkIDs)

	if f.format == formatTable {
		render.RenderControlExplanation(w, controlID, rollups, results)
		return nil
	}
	return render.WriteExplainJSON(w, controlID, rollups, results)
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResponseToFile serialises resp as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeResponseToFile(path string, resp *models.RunResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write response file %q: %w", path, err)
	}
	return nil
}

// ── dp aws checks list ──────────────────────────────────────────────────────

// checkRow is one line of dp aws checks list.
type checkRow struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Severity   models.Severity `json:"severity"`
	Scope      models.Scope    `json:"scope"`
	Generic    int             `json:"generic_controls"`
	NIST80053  int             `json:"nist_800_53_controls"`
	NIST800171 int             `json:"nist_800_171_controls"`
}

func newChecksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Inspect the built-in check catalog",
	}

	var (
		format      string
		mappingsDir string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List every check with its severity, scope, and mapped control counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := listChecks(mappingPaths(mappingsDir, nil))
			if err != nil {
				return err
			}
			if format == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			printChecksTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	list.Flags().StringVar(&format, "format", formatTable, `Output format: "table" or "json"`)
	list.Flags().StringVar(&mappingsDir, "mappings-dir", "", "Directory with mapping table overrides")
	cmd.AddCommand(list)
	return cmd
}

func listChecks(paths mappings.Paths) ([]checkRow, error) {
	set, err := mappings.Load(paths)
	if err != nil {
		return nil, err
	}
	var rows []checkRow
	for _, c := range checkpack.Catalog().All() {
		rows = append(rows, checkRow{
			ID:         c.ID(),
			Name:       c.Name(),
			Severity:   c.Severity(),
			Scope:      c.Scope(),
			Generic:    len(set.Generic.Controls(c.ID())),
			NIST80053:  len(set.NIST80053.Controls(c.ID())),
			NIST800171: len(set.NIST800171.Controls(c.ID())),
		})
	}
	return rows, nil
}

func printChecksTable(w io.Writer, rows []checkRow) {
	fmt.Fprintf(w, "%-34s  %-10s  %-10s  %4s  %6s  %7s  %s\n", "CHECK ID", "SEVERITY", "SCOPE", "CIS", "800-53", "800-171", "NAME")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range rows {
		fmt.Fprintf(w, "%-34s  %-10s  %-10s  %4d  %6d  %7d  %s\n",
			r.ID, r.Severity, r.Scope, r.Generic, r.NIST80053, r.NIST800171, r.Name)
	}
}

// ── dp version ──────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dp version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), version.Info())
			return err
		},
	}
}
