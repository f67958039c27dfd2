package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudpatrol/awsscan/internal/config"
	"github.com/cloudpatrol/awsscan/internal/feeds"
	"github.com/cloudpatrol/awsscan/internal/providers/aws/common"
)

// DoctorResult is the structured output of awsscan doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Config struct {
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"config"`

	Feed struct {
		URL       string `json:"url"`
		Reachable bool   `json:"reachable"`
		Error     string `json:"error,omitempty"`
	} `json:"feed"`

	OverallHealthy bool `json:"overall_healthy"`
}

// feedProbe checks whether the CVE feed at baseURL answers HTTP requests.
type feedProbe func(ctx context.Context, baseURL string) error

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			feedURL, _ := cmd.Flags().GetString("feed-url")
			result, err := runDoctor(
				cmd.Context(),
				common.NewDefaultAWSClientProvider(),
				probeFeedHTTP,
				cmd.OutOrStdout(),
				format,
				profile,
				feedURL,
			)
			if err != nil {
				// Rendering failure — let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("feed-url", "", "Base URL of the CVE feed to probe (default: "+feeds.DefaultBaseURL+")")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy; runDoctor itself never returns an error for an
// unhealthy result so that no error text leaks to callers (such as main).
func runDoctor(ctx context.Context, provider common.AWSClientProvider, probe feedProbe, w io.Writer, format, profile, feedURL string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, probe, profile, feedURL)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a
// DoctorResult. It performs no rendering; callers decide how to present
// the result.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, probe feedProbe, profile, feedURL string) DoctorResult {
	var result DoctorResult

	// AWS: credentials → STS account ID → region discovery.
	// An empty profile string selects the default credential chain.
	if profile != "" {
		result.AWS.Profile = profile
	}
	profileCfg, err := provider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		_, err = provider.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
		}
	}

	// Configuration: stat → load → validate (file is optional).
	_, statErr := os.Stat(config.DefaultPath)
	if statErr == nil {
		result.Config.Present = true
		if _, loadErr := config.Load(config.DefaultPath); loadErr != nil {
			result.Config.Errors = []string{loadErr.Error()}
		} else {
			result.Config.Valid = true
		}
	} else if !os.IsNotExist(statErr) {
		// Stat error other than "not found" — treat as present but unreadable.
		result.Config.Present = true
		result.Config.Errors = []string{statErr.Error()}
	}

	// Feed: reachability probe. Informational only; finding harvest
	// degrades to null enrichment when the feed is down, so an
	// unreachable feed does not make the environment unhealthy.
	if feedURL == "" {
		feedURL = feeds.DefaultBaseURL
	}
	result.Feed.URL = feedURL
	if err := probe(ctx, feedURL); err != nil {
		result.Feed.Error = err.Error()
	} else {
		result.Feed.Reachable = true
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		(!result.Config.Present || result.Config.Valid)

	return result
}

// probeFeedHTTP issues a GET against a well-known CVE path. Any HTTP
// response counts as reachable; enrichment treats non-200 responses as
// a soft miss anyway.
func probeFeedHTTP(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/CVE-2019-0708", nil)
	if err != nil {
		return fmt.Errorf("build feed probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe feed: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nConfiguration:")
	if !result.Config.Present {
		doctorPrint(w, config.DefaultPath+" present", "Not found (optional)", "")
	} else {
		doctorPrint(w, config.DefaultPath+" present", "YES", "")
		if result.Config.Valid {
			doctorPrint(w, "Config valid", "OK", "")
		} else {
			for _, e := range result.Config.Errors {
				doctorPrint(w, "Config valid", "FAIL", e)
			}
		}
	}

	fmt.Fprintln(w, "\nCVE Feed:")
	if result.Feed.Reachable {
		doctorPrint(w, "Reachable", "OK", result.Feed.URL)
	} else {
		doctorPrint(w, "Reachable", "FAIL", result.Feed.Error)
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
