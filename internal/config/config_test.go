package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "awsscan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
version: 1
tag_key: scanme
topic_arn: arn:aws:sns:us-east-1:111122223333:scan-events
severities: [High, Medium]
agent_ids: [i-0abc, i-0def]
report_path: out.json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TagKey != "scanme" {
		t.Errorf("TagKey = %q; want scanme", cfg.TagKey)
	}
	if len(cfg.Severities) != 2 || cfg.Severities[0] != "High" {
		t.Errorf("Severities = %v", cfg.Severities)
	}
	if cfg.ReportPath != "out.json" {
		t.Errorf("ReportPath = %q", cfg.ReportPath)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	path := writeConfig(t, "version: 2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("want error for version 2, got nil")
	}
}

func TestLoad_InvalidSeverity(t *testing.T) {
	path := writeConfig(t, "version: 1\nseverities: [Critical]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("want error for unknown severity, got nil")
	}
}

func TestLoad_RulePackageMissingARN(t *testing.T) {
	path := writeConfig(t, `
version: 1
rule_packages:
  us-east-1:
    - name: broken
`)
	if _, err := Load(path); err == nil {
		t.Fatal("want error for rule package without arn, got nil")
	}
}

func TestRuleTable_OverlayReplacesRegion(t *testing.T) {
	cfg := &Config{
		Version: 1,
		RulePackages: map[string][]RulePackageEntry{
			"us-east-1": {{Name: "only", ARN: "arn:only"}},
		},
	}

	table := cfg.RuleTable()
	arns, err := table.Resolve("us-east-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(arns) != 1 || arns[0] != "arn:only" {
		t.Errorf("arns = %v; want [arn:only]", arns)
	}

	// Built-in regions outside the overlay stay resolvable.
	if _, err := table.Resolve("us-west-2"); err != nil {
		t.Errorf("Resolve(us-west-2): %v", err)
	}
}

func TestRuleTable_NoOverlayIsDefault(t *testing.T) {
	cfg := &Config{Version: 1}
	if _, err := cfg.RuleTable().Resolve("eu-west-1"); err != nil {
		t.Errorf("Resolve(eu-west-1): %v", err)
	}
}
