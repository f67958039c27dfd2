package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudpatrol/awsscan/internal/rulepacks"
)

// DefaultPath is where commands look for a scan configuration when no
// --config flag is given. The file is optional.
const DefaultPath = "awsscan.yaml"

// Config is the optional scan configuration file. Every field has a flag
// counterpart; flags win when both are set.
type Config struct {
	Version int `yaml:"version"`

	// TagKey overrides the default "awsscan" tag key used for instance
	// tagging and resource-group scoping.
	TagKey string `yaml:"tag_key"`

	// TopicArn is the SNS topic that receives run-lifecycle notifications.
	TopicArn string `yaml:"topic_arn"`

	// Severities filters harvested findings. Valid values are the
	// Inspector severities: Low, Medium, High, Informational, Undefined.
	Severities []string `yaml:"severities"`

	// AgentIDs restricts finding harvest to specific instances.
	AgentIDs []string `yaml:"agent_ids"`

	// FeedBaseURL overrides the public CVE feed endpoint.
	FeedBaseURL string `yaml:"feed_base_url"`

	// ReportPath is the default output file for generated reports.
	ReportPath string `yaml:"report_path"`

	// S3Bucket/S3Key enable report upload when set.
	S3Bucket string `yaml:"s3_bucket"`
	S3Key    string `yaml:"s3_key"`

	// RulePackages overlays the built-in region table. A region listed
	// here fully replaces the built-in entry for that region.
	RulePackages map[string][]RulePackageEntry `yaml:"rule_packages"`
}

// RulePackageEntry is one rules package in a config-file overlay.
type RulePackageEntry struct {
	Name string `yaml:"name"`
	ARN  string `yaml:"arn"`
}

// Load reads, parses, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that have a closed domain.
func (c *Config) Validate() error {
	valid := map[string]bool{
		"Low": true, "Medium": true, "High": true,
		"Informational": true, "Undefined": true,
	}
	for _, s := range c.Severities {
		if !valid[s] {
			return fmt.Errorf("invalid severity %q", s)
		}
	}
	for region, packs := range c.RulePackages {
		for _, p := range packs {
			if p.ARN == "" {
				return fmt.Errorf("rule package %q in region %q has no arn", p.Name, region)
			}
		}
	}
	return nil
}

// RuleTable returns the built-in rules-package table with this config's
// overlay applied.
func (c *Config) RuleTable() rulepacks.Table {
	if len(c.RulePackages) == 0 {
		return rulepacks.Default()
	}
	extra := make(rulepacks.Table, len(c.RulePackages))
	for region, entries := range c.RulePackages {
		packs := make([]rulepacks.RulePackage, 0, len(entries))
		for _, e := range entries {
			packs = append(packs, rulepacks.RulePackage{Name: e.Name, ARN: e.ARN})
		}
		extra[region] = packs
	}
	return rulepacks.Default().Merge(extra)
}
