package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	checkpack "github.com/pankaj-dahiya-devops/compliance-proxy/internal/checkpacks/aws"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/policy"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/common"
)

// DoctorResult is the structured output of dp doctor. It can be serialised to
// JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Regions     int    `json:"regions,omitempty"`
		Error       string `json:"error,omitempty"`
		// LocalProfiles lists the profiles found in ~/.aws/credentials and
		// ~/.aws/config.
		LocalProfiles []string `json:"local_profiles,omitempty"`
		ProfilesError string   `json:"profiles_error,omitempty"`
	} `json:"aws"`

	Mappings struct {
		Valid bool `json:"valid"`
		// Controls counts distinct control IDs per framework table.
		Controls map[models.Framework]int `json:"controls,omitempty"`
		// UnknownChecks lists table keys that name no catalog check.
		UnknownChecks []string `json:"unknown_checks,omitempty"`
		Error         string   `json:"error,omitempty"`
	} `json:"mappings"`

	Policy struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

// doctorOptions selects what dp doctor inspects.
type doctorOptions struct {
	format      string
	creds       common.Credentials
	mappingsDir string
	policyPath  string
	// profiles lists local shared-config profiles; nil uses
	// common.DiscoverProfiles.
	profiles func() ([]string, error)
}

func newDoctorCmd(a *app) *cobra.Command {
	var (
		opts    doctorOptions
		profile string
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.credentials(profile, "")
			opts.creds = common.Credentials{
				AccessKey:    c.AccessKey,
				SecretKey:    c.SecretKey,
				SessionToken: c.SessionToken,
				Profile:      c.Profile,
				Region:       c.Region,
			}
			result, err := runDoctor(cmd.Context(), a.connect, cmd.OutOrStdout(), opts)
			if err != nil {
				// Rendering failure.
				return err
			}
			if !result.OverallHealthy {
				return errSilentFailure
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", formatTable, `Output format: "table" or "json"`)
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().StringVar(&opts.mappingsDir, "mappings-dir", "", "Directory with mapping table overrides to validate")
	cmd.Flags().StringVar(&opts.policyPath, "policy", "", "Policy file to validate (default: ./dp.yaml when present)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy.
func runDoctor(ctx context.Context, connect common.ConnectorFactory, w io.Writer, opts doctorOptions) (DoctorResult, error) {
	result := collectDoctorResult(ctx, connect, opts)

	switch opts.format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, connect common.ConnectorFactory, opts doctorOptions) DoctorResult {
	var result DoctorResult
	catalogIDs := checkpack.Catalog().IDs()

	// AWS: credentials → STS account ID → region discovery.
	result.AWS.Profile = opts.creds.Profile
	discover := opts.profiles
	if discover == nil {
		discover = common.DiscoverProfiles
	}
	if profiles, err := discover(); err != nil {
		result.AWS.ProfilesError = err.Error()
	} else {
		result.AWS.LocalProfiles = profiles
	}

	conn, err := connect(ctx, opts.creds)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = conn.AccountID()
		if p, ok := conn.(interface{ Profile() string }); ok && result.AWS.Profile == "" {
			result.AWS.Profile = p.Profile()
		}
		regions, err := conn.ListRegions(ctx)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
			result.AWS.Regions = len(regions)
		}
	}

	// Mappings: parse every table, then cross-check keys against the catalog.
	var paths mappings.Paths
	if opts.mappingsDir != "" {
		paths = mappings.PathsFromDir(opts.mappingsDir)
	}

	// Policy: stat → load → validate (file is optional).
	path := opts.policyPath
	if path == "" {
		path = "./" + policy.DefaultFile
	}
	_, statErr := os.Stat(path)
	if statErr == nil {
		result.Policy.Path = path
		result.Policy.Present = true
		cfg, loadErr := policy.LoadPolicy(path)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else {
			paths = paths.Merge(cfg.Mappings)
			errs := policy.Validate(cfg, catalogIDs)
			if len(errs) == 0 {
				result.Policy.Valid = true
			} else {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			}
		}
	} else if !os.IsNotExist(statErr) || opts.policyPath != "" {
		// An explicit --policy that does not exist, or a stat error other
		// than "not found", counts as present but unreadable.
		result.Policy.Path = path
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	set, err := mappings.Load(paths)
	if err != nil {
		result.Mappings.Error = err.Error()
	} else {
		result.Mappings.Controls = make(map[models.Framework]int, len(models.Frameworks))
		for _, fw := range models.Frameworks {
			table, _ := set.Table(fw)
			result.Mappings.Controls[fw] = len(table.ControlIDs())
		}
		result.Mappings.UnknownChecks = set.UnknownChecks(catalogIDs)
		result.Mappings.Valid = len(result.Mappings.UnknownChecks) == 0
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		result.Mappings.Valid &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	switch {
	case result.AWS.ProfilesError != "":
		doctorPrint(w, "Local profiles", "WARN", result.AWS.ProfilesError)
	case len(result.AWS.LocalProfiles) == 0:
		doctorPrint(w, "Local profiles", "none", "")
	default:
		detail := strings.Join(result.AWS.LocalProfiles, ", ")
		if result.AWS.Profile != "" && !slices.Contains(result.AWS.LocalProfiles, result.AWS.Profile) {
			detail += "; " + result.AWS.Profile + " not listed"
		}
		doctorPrint(w, "Local profiles", fmt.Sprintf("%d found", len(result.AWS.LocalProfiles)), detail)
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", fmt.Sprintf("%d enabled", result.AWS.Regions))
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nMappings:")
	switch {
	case result.Mappings.Error != "":
		doctorPrint(w, "Tables loaded", "FAIL", result.Mappings.Error)
	default:
		doctorPrint(w, "Tables loaded", "OK", "")
		for _, fw := range models.Frameworks {
			doctorPrint(w, "  "+string(fw), "OK", fmt.Sprintf("%d controls", result.Mappings.Controls[fw]))
		}
		if result.Mappings.Valid {
			doctorPrint(w, "Check IDs known", "OK", "")
		} else {
			for _, id := range result.Mappings.UnknownChecks {
				doctorPrint(w, "Check IDs known", "FAIL", "unknown check "+id)
			}
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, "dp.yaml present", "Not found (optional)", "")
	} else {
		doctorPrint(w, "dp.yaml present", "YES", result.Policy.Path)
		if result.Policy.Valid {
			doctorPrint(w, "Policy valid", "OK", "")
		} else {
			for _, e := range result.Policy.Errors {
				doctorPrint(w, "Policy valid", "FAIL", e)
			}
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
