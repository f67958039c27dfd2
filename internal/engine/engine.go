package engine

import (
	"context"

	"github.com/cloudpatrol/awsscan/internal/models"
)

// ScanOptions configures one scan workflow: tag instances, create the
// assessment target and template, start a run, and subscribe its
// lifecycle notifications.
type ScanOptions struct {
	// Profile is the named AWS profile to use. Empty means the default profile.
	Profile string

	// Region overrides the profile's home region. The region also selects
	// the rules packages when RulePackageArns is empty.
	Region string

	// InstanceIDs are tagged with {TagKey: TagValue} before the scan.
	// When empty, tagging is skipped (instances already carry the tag).
	InstanceIDs []string

	// TagKey defaults to the assessment package's fixed key.
	TagKey string

	// TagValue scopes both the instance tag and the resource group.
	TagValue string

	// TargetName and TemplateName name the created Inspector entities.
	TargetName   string
	TemplateName string

	// RulePackageArns overrides rules-package resolution entirely.
	// When empty the region is resolved against the rules-package table.
	RulePackageArns []string

	// DurationSeconds is the assessment run duration; zero means the
	// default (one hour).
	DurationSeconds int32

	// TopicArn receives run-lifecycle notifications. When empty and
	// TopicName is set, the topic is created (or looked up) by name.
	// When both are empty no subscription is made.
	TopicArn  string
	TopicName string
}

// ReportOptions configures finding harvest and report generation.
type ReportOptions struct {
	// Profile / Region select the account and region to harvest from.
	Profile string
	Region  string

	// AgentIDs and Severities build the findings filter; RunArns restricts
	// the harvest to specific assessment runs.
	AgentIDs   []string
	Severities []string
	RunArns    []string

	// OutputPath, when set, writes the report file.
	OutputPath string

	// S3Bucket/S3Key, when set, additionally upload the report.
	S3Bucket string
	S3Key    string
}

// Engine is the central orchestration interface. It coordinates profile
// loading, rules-package resolution, the assessment service, and report
// assembly. Engine must not call the AWS SDK or the feed service
// directly; it delegates to the provider and service interfaces.
type Engine interface {
	RunScan(ctx context.Context, opts ScanOptions) (*models.ScanResult, error)
	GenerateReport(ctx context.Context, opts ReportOptions) ([]models.FindingRecord, error)
}
