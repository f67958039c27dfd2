package models

import "encoding/json"

// FindingReport is the distilled detail of a single Inspector finding.
// It carries exactly the fields extracted from DescribeFindings output;
// everything else the service returns is dropped.
type FindingReport struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

// FindingRecord is one entry of the generated report.
//
// Feeds holds the raw CVE feed document for findings whose ID is a CVE
// identifier. It is the JSON literal null when the feed lookup returned no
// data, and nil (omitted from output) for non-CVE findings.
type FindingRecord struct {
	ID     string          `json:"id"`
	Report FindingReport   `json:"report"`
	Feeds  json.RawMessage `json:"feeds,omitempty"`
}

// ScanResult summarises the remote entities created by one scan workflow.
// All state lives in Inspector; this is only what the caller needs to track
// the run and harvest its findings later.
type ScanResult struct {
	Profile          string   `json:"profile"`
	AccountID        string   `json:"account_id"`
	Region           string   `json:"region"`
	TaggedInstances  []string `json:"tagged_instances,omitempty"`
	TargetArn        string   `json:"target_arn"`
	TemplateArn      string   `json:"template_arn"`
	RunArn           string   `json:"run_arn"`
	RulePackageArns  []string `json:"rule_package_arns"`
	TopicArn         string   `json:"topic_arn,omitempty"`
	SubscribedEvents []string `json:"subscribed_events,omitempty"`
}
