package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudpatrol/awsscan/internal/providers/aws/assessment"
)

// runCommand executes the root command with args in a fresh temp working
// directory (no awsscan.yaml) and returns the captured output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	tmp := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	execErr := root.Execute()
	return buf.String(), execErr
}

// ── rules command ─────────────────────────────────────────────────────────────

func TestRulesCmd_ListsAllRegions(t *testing.T) {
	out, err := runCommand(t, "rules")
	if err != nil {
		t.Fatalf("rules command returned error: %v", err)
	}
	for _, want := range []string{
		"us-east-1:",
		"us-west-2:",
		"eu-west-1:",
		"ap-northeast-1:",
		"Common Vulnerabilities and Exposures",
		"arn:aws:inspector:us-east-1:316112463485:rulespackage/0-gEjTy7T7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
}

func TestRulesCmd_SingleRegion(t *testing.T) {
	out, err := runCommand(t, "rules", "--region", "eu-west-1")
	if err != nil {
		t.Fatalf("rules command returned error: %v", err)
	}
	if !strings.Contains(out, "eu-west-1:") {
		t.Errorf("output missing eu-west-1;\ngot:\n%s", out)
	}
	if strings.Contains(out, "us-east-1:") {
		t.Errorf("output must only show the requested region;\ngot:\n%s", out)
	}
}

func TestRulesCmd_UnknownRegion(t *testing.T) {
	_, err := runCommand(t, "rules", "--region", "mars-north-1")
	if err == nil {
		t.Fatal("expected error for unknown region")
	}
	if !strings.Contains(err.Error(), "mars-north-1") {
		t.Errorf("error should name the region; got: %v", err)
	}
}

func TestRulesCmd_ConfigOverlay(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "awsscan.yaml")
	cfgYAML := `version: 1
rule_packages:
  eu-central-1:
    - name: Custom Pack
      arn: arn:aws:inspector:eu-central-1:111122223333:rulespackage/0-custom
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"rules", "--config", cfgPath, "--region", "eu-central-1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("rules command returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Custom Pack") {
		t.Errorf("output missing overlay pack;\ngot:\n%s", out)
	}
	if !strings.Contains(out, "rulespackage/0-custom") {
		t.Errorf("output missing overlay ARN;\ngot:\n%s", out)
	}
}

// ── scan command validation ───────────────────────────────────────────────────

// Validation failures must surface before any AWS call is attempted; these
// run with no credentials configured.
func TestScanCmd_MissingTagValue(t *testing.T) {
	_, err := runCommand(t, "scan", "--target-name", "t", "--template-name", "tpl")
	if err == nil {
		t.Fatal("expected error when --tag-value is missing")
	}
	if !strings.Contains(err.Error(), "tag value") {
		t.Errorf("error should mention the tag value; got: %v", err)
	}
}

func TestScanCmd_MissingNames(t *testing.T) {
	_, err := runCommand(t, "scan", "--tag-value", "nightly")
	if err == nil {
		t.Fatal("expected error when names are missing")
	}
	if !strings.Contains(err.Error(), "names are required") {
		t.Errorf("unexpected error: %v", err)
	}
}

// ── loadConfig ────────────────────────────────────────────────────────────────

func TestLoadConfig_DefaultAbsent(t *testing.T) {
	tmp := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d; want 1", cfg.Version)
	}
	if cfg.TagKey != "" {
		t.Errorf("TagKey = %q; want empty", cfg.TagKey)
	}
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for an explicit path that does not exist")
	}
}

func TestLoadConfig_ExplicitValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ntag_key: security-scan\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TagKey != "security-scan" {
		t.Errorf("TagKey = %q; want security-scan", cfg.TagKey)
	}
}

// ── flag surface ──────────────────────────────────────────────────────────────

func TestScanCmd_TagKeyHelpMentionsDefault(t *testing.T) {
	cmd := newScanCmd()
	flag := cmd.Flags().Lookup("tag-key")
	if flag == nil {
		t.Fatal("scan command missing --tag-key flag")
	}
	if !strings.Contains(flag.Usage, assessment.DefaultTagKey) {
		t.Errorf("--tag-key usage should mention the default key; got %q", flag.Usage)
	}
}

func TestReportCmd_Flags(t *testing.T) {
	cmd := newReportCmd()
	for _, name := range []string{
		"profile", "region", "run-arn", "agent-id", "severity",
		"output", "s3-bucket", "s3-key", "feed-url", "config", "report",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("report command missing --%s flag", name)
		}
	}
}
