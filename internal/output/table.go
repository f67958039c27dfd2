package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/cloudpatrol/awsscan/internal/models"
)

// PrintScanResult renders the entities created by a scan workflow to w.
func PrintScanResult(w io.Writer, res *models.ScanResult) {
	fmt.Fprintf(w, "Profile:   %s\n", res.Profile)
	fmt.Fprintf(w, "Account:   %s\n", res.AccountID)
	fmt.Fprintf(w, "Region:    %s\n", res.Region)
	if len(res.TaggedInstances) > 0 {
		fmt.Fprintf(w, "Tagged:    %d instance(s)\n", len(res.TaggedInstances))
	}
	fmt.Fprintf(w, "Target:    %s\n", res.TargetArn)
	fmt.Fprintf(w, "Template:  %s\n", res.TemplateArn)
	fmt.Fprintf(w, "Run:       %s\n", res.RunArn)
	if res.TopicArn != "" {
		fmt.Fprintf(w, "Topic:     %s (%d events)\n", res.TopicArn, len(res.SubscribedEvents))
	}
}

// PrintFindings renders a human-readable findings table to w.
func PrintFindings(w io.Writer, records []models.FindingRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	fmt.Fprintf(w, "%-22s  %-13s  %-5s  %s\n", "ID", "SEVERITY", "CVE", "TITLE")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range records {
		cve := "-"
		if r.Feeds != nil {
			cve = "yes"
		}
		fmt.Fprintf(w, "%-22s  %-13s  %-5s  %s\n",
			r.ID,
			r.Report.Severity,
			cve,
			truncate(r.Report.Title, 45),
		)
	}
	fmt.Fprintf(w, "\n%d finding(s)\n", len(records))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
