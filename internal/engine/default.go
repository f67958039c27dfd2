package engine

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"

	"github.com/cloudpatrol/awsscan/internal/models"
	"github.com/cloudpatrol/awsscan/internal/providers/aws/assessment"
	"github.com/cloudpatrol/awsscan/internal/providers/aws/common"
	"github.com/cloudpatrol/awsscan/internal/report"
	"github.com/cloudpatrol/awsscan/internal/rulepacks"
)

// ServiceFactory creates an assessment.Service from a region-scoped
// aws.Config. Swap this in tests to inject a fake service.
type ServiceFactory func(cfg aws.Config) assessment.Service

// ReportUploader uploads a generated report to remote storage.
// *report.S3Uploader is the production implementation.
type ReportUploader interface {
	Upload(ctx context.Context, bucket, key string, records []models.FindingRecord) error
}

// UploaderFactory creates a ReportUploader from a region-scoped aws.Config.
type UploaderFactory func(cfg aws.Config) ReportUploader

// DefaultEngine is the production implementation of Engine.
// It coordinates the scan workflow and report generation and never calls
// the AWS SDK or the feed service directly.
type DefaultEngine struct {
	provider  common.AWSClientProvider
	table     rulepacks.Table
	services  ServiceFactory
	uploaders UploaderFactory
	log       *logrus.Entry
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied
// provider, rules-package table, and factories.
func NewDefaultEngine(
	provider common.AWSClientProvider,
	table rulepacks.Table,
	services ServiceFactory,
	uploaders UploaderFactory,
) *DefaultEngine {
	return &DefaultEngine{
		provider:  provider,
		table:     table,
		services:  services,
		uploaders: uploaders,
		log:       logrus.WithField("component", "engine"),
	}
}

// RunScan implements Engine. Steps run strictly in sequence and any
// remote failure aborts the workflow where it stands: an already-created
// resource group, target, or template is left in place for the caller to
// inspect or reuse.
func (e *DefaultEngine) RunScan(ctx context.Context, opts ScanOptions) (*models.ScanResult, error) {
	if opts.TagValue == "" {
		return nil, fmt.Errorf("tag value is required")
	}
	if opts.TargetName == "" || opts.TemplateName == "" {
		return nil, fmt.Errorf("target and template names are required")
	}

	profile, err := e.provider.LoadProfile(ctx, opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", opts.Profile, err)
	}

	region := opts.Region
	if region == "" {
		region = profile.Region
	}

	ruleArns := opts.RulePackageArns
	if len(ruleArns) == 0 {
		ruleArns, err = e.table.Resolve(region)
		if err != nil {
			return nil, err
		}
	}

	svc := e.services(e.provider.ConfigForRegion(profile, region))
	e.log.WithFields(logrus.Fields{"profile": profile.ProfileName, "region": region}).
		Info("starting scan workflow")

	if len(opts.InstanceIDs) > 0 {
		if err := svc.TagInstances(ctx, opts.InstanceIDs, opts.TagValue, opts.TagKey); err != nil {
			return nil, err
		}
	}

	targetArn, err := svc.CreateTarget(ctx, opts.TargetName, opts.TagValue, opts.TagKey)
	if err != nil {
		return nil, err
	}

	templateArn, err := svc.CreateTemplate(ctx, targetArn, opts.TemplateName, ruleArns, opts.DurationSeconds)
	if err != nil {
		return nil, err
	}

	runArn, err := svc.StartRun(ctx, templateArn)
	if err != nil {
		return nil, err
	}

	topicArn := opts.TopicArn
	if topicArn == "" && opts.TopicName != "" {
		topicArn, err = svc.EnsureTopic(ctx, opts.TopicName)
		if err != nil {
			return nil, err
		}
	}

	var subscribed []string
	if topicArn != "" {
		subscribed, err = svc.Subscribe(ctx, templateArn, topicArn)
		if err != nil {
			return nil, err
		}
	}

	return &models.ScanResult{
		Profile:          profile.ProfileName,
		AccountID:        profile.AccountID,
		Region:           region,
		TaggedInstances:  opts.InstanceIDs,
		TargetArn:        targetArn,
		TemplateArn:      templateArn,
		RunArn:           runArn,
		RulePackageArns:  ruleArns,
		TopicArn:         topicArn,
		SubscribedEvents: subscribed,
	}, nil
}

// GenerateReport implements Engine. It harvests findings, optionally
// writes them to a local file, and optionally uploads them to S3. The
// harvested records are returned in harvest order either way.
func (e *DefaultEngine) GenerateReport(ctx context.Context, opts ReportOptions) ([]models.FindingRecord, error) {
	profile, err := e.provider.LoadProfile(ctx, opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", opts.Profile, err)
	}

	region := opts.Region
	if region == "" {
		region = profile.Region
	}
	cfg := e.provider.ConfigForRegion(profile, region)

	svc := e.services(cfg)
	records, err := svc.ListFindings(ctx, opts.AgentIDs, opts.Severities, opts.RunArns)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		if err := report.WriteReport(records, opts.OutputPath); err != nil {
			return nil, err
		}
		e.log.WithFields(logrus.Fields{"path": opts.OutputPath, "findings": len(records)}).
			Info("report written")
	}

	if opts.S3Bucket != "" && opts.S3Key != "" {
		uploader := e.uploaders(cfg)
		if err := uploader.Upload(ctx, opts.S3Bucket, opts.S3Key, records); err != nil {
			return nil, err
		}
		e.log.WithFields(logrus.Fields{"bucket": opts.S3Bucket, "key": opts.S3Key}).
			Info("report uploaded")
	}

	return records, nil
}
