package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	inspectorsvc "github.com/aws/aws-sdk-go-v2/service/inspector"
	inspectortypes "github.com/aws/aws-sdk-go-v2/service/inspector/types"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sirupsen/logrus"

	"github.com/cloudpatrol/awsscan/internal/feeds"
	"github.com/cloudpatrol/awsscan/internal/models"
)

// cvePattern classifies finding IDs as CVE identifiers: year 1999 onward,
// sequence number of four or more digits, or a four-digit 0-prefixed
// sequence whose value is at least 0021. Case-sensitive.
var cvePattern = regexp.MustCompile(`^(CVE-(1999|2\d{3})-(0\d{2}[1-9]|[1-9]\d{3,}))$`)

// DefaultService is the production Service. All AWS access goes through
// the narrow clients created by its factory; feed enrichment goes through
// the injected feeds.Client.
type DefaultService struct {
	clients *assessmentClients
	feeds   feeds.Client
	log     *logrus.Entry
}

// NewDefaultService returns a DefaultService wired to production AWS SDK
// clients built from cfg.
func NewDefaultService(cfg aws.Config, feedClient feeds.Client) *DefaultService {
	return newService(newDefaultClients(cfg), feedClient)
}

// NewDefaultServiceWithFactory returns a DefaultService that uses f to
// create its clients. Pass a fake factory in tests.
func NewDefaultServiceWithFactory(cfg aws.Config, f clientFactory, feedClient feeds.Client) *DefaultService {
	return newService(f(cfg), feedClient)
}

func newService(clients *assessmentClients, feedClient feeds.Client) *DefaultService {
	return &DefaultService{
		clients: clients,
		feeds:   feedClient,
		log:     logrus.WithField("component", "assessment"),
	}
}

// TagInstances implements Service. The whole batch is tagged in one call;
// a rejection from EC2 fails the batch with no per-instance retry.
func (s *DefaultService) TagInstances(ctx context.Context, instanceIDs []string, tagValue, tagKey string) error {
	if tagKey == "" {
		tagKey = DefaultTagKey
	}
	_, err := s.clients.EC2.CreateTags(ctx, &ec2svc.CreateTagsInput{
		Resources: instanceIDs,
		Tags: []ec2types.Tag{
			{Key: aws.String(tagKey), Value: aws.String(tagValue)},
		},
	})
	if err != nil {
		return fmt.Errorf("tag %d instance(s) with %s=%s: %w", len(instanceIDs), tagKey, tagValue, err)
	}
	s.log.WithFields(logrus.Fields{"instances": len(instanceIDs), "tag": tagKey + "=" + tagValue}).
		Info("instances tagged")
	return nil
}

// CreateTarget implements Service. The resource group is created first;
// if target creation then fails the group is left behind (no rollback).
func (s *DefaultService) CreateTarget(ctx context.Context, targetName, tagValue, tagKey string) (string, error) {
	if tagKey == "" {
		tagKey = DefaultTagKey
	}

	groupOut, err := s.clients.Inspector.CreateResourceGroup(ctx, &inspectorsvc.CreateResourceGroupInput{
		ResourceGroupTags: []inspectortypes.ResourceGroupTag{
			{Key: aws.String(tagKey), Value: aws.String(tagValue)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create resource group for %s=%s: %w", tagKey, tagValue, err)
	}

	targetOut, err := s.clients.Inspector.CreateAssessmentTarget(ctx, &inspectorsvc.CreateAssessmentTargetInput{
		AssessmentTargetName: aws.String(targetName),
		ResourceGroupArn:     groupOut.ResourceGroupArn,
	})
	if err != nil {
		return "", fmt.Errorf("create assessment target %q: %w", targetName, err)
	}

	arn := aws.ToString(targetOut.AssessmentTargetArn)
	s.log.WithField("target_arn", arn).Info("assessment target created")
	return arn, nil
}

// CreateTemplate implements Service.
func (s *DefaultService) CreateTemplate(ctx context.Context, targetArn, templateName string, rulePackageArns []string, durationSeconds int32) (string, error) {
	if durationSeconds == 0 {
		durationSeconds = DefaultDurationSeconds
	}
	if durationSeconds < 0 {
		return "", fmt.Errorf("assessment duration must be positive, got %d", durationSeconds)
	}

	out, err := s.clients.Inspector.CreateAssessmentTemplate(ctx, &inspectorsvc.CreateAssessmentTemplateInput{
		AssessmentTargetArn:    aws.String(targetArn),
		AssessmentTemplateName: aws.String(templateName),
		DurationInSeconds:      aws.Int32(durationSeconds),
		RulesPackageArns:       rulePackageArns,
	})
	if err != nil {
		return "", fmt.Errorf("create assessment template %q: %w", templateName, err)
	}

	arn := aws.ToString(out.AssessmentTemplateArn)
	s.log.WithFields(logrus.Fields{"template_arn": arn, "duration_s": durationSeconds}).
		Info("assessment template created")
	return arn, nil
}

// StartRun implements Service.
func (s *DefaultService) StartRun(ctx context.Context, templateArn string) (string, error) {
	out, err := s.clients.Inspector.StartAssessmentRun(ctx, &inspectorsvc.StartAssessmentRunInput{
		AssessmentTemplateArn: aws.String(templateArn),
	})
	if err != nil {
		return "", fmt.Errorf("start assessment run from %s: %w", templateArn, err)
	}

	arn := aws.ToString(out.AssessmentRunArn)
	s.log.WithField("run_arn", arn).Info("assessment run started")
	return arn, nil
}

// Subscribe implements Service. FINDING_REPORTED is deliberately left out:
// it fires once per finding and findings are harvested in bulk afterwards
// instead.
func (s *DefaultService) Subscribe(ctx context.Context, templateArn, topicArn string) ([]string, error) {
	events := []inspectortypes.InspectorEvent{
		inspectortypes.InspectorEventAssessmentRunStarted,
		inspectortypes.InspectorEventAssessmentRunCompleted,
		inspectortypes.InspectorEventAssessmentRunStateChanged,
		// inspectortypes.InspectorEventFindingReported,
	}

	subscribed := make([]string, 0, len(events))
	for _, event := range events {
		_, err := s.clients.Inspector.SubscribeToEvent(ctx, &inspectorsvc.SubscribeToEventInput{
			Event:       event,
			ResourceArn: aws.String(templateArn),
			TopicArn:    aws.String(topicArn),
		})
		if err != nil {
			return subscribed, fmt.Errorf("subscribe %s to %s: %w", event, topicArn, err)
		}
		subscribed = append(subscribed, string(event))
	}

	s.log.WithFields(logrus.Fields{"topic_arn": topicArn, "events": len(subscribed)}).
		Info("run notifications subscribed")
	return subscribed, nil
}

// EnsureTopic implements Service.
func (s *DefaultService) EnsureTopic(ctx context.Context, name string) (string, error) {
	out, err := s.clients.SNS.CreateTopic(ctx, &snssvc.CreateTopicInput{
		Name: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("create SNS topic %q: %w", name, err)
	}
	return aws.ToString(out.TopicArn), nil
}

// ListFindings implements Service. It pages through ListFindings driven
// solely by the service's pagination token, describing each page with
// locale EN_US and enriching CVE-identified findings from the feed.
//
// The loop has no page cap: a service that keeps returning tokens keeps
// the loop running. This mirrors the upstream contract and is an accepted
// risk rather than something to guard against locally.
func (s *DefaultService) ListFindings(ctx context.Context, agentIDs, severities, runArns []string) ([]models.FindingRecord, error) {
	filter := &inspectortypes.FindingFilter{
		AgentIds:   agentIDs,
		Severities: toSeverities(severities),
	}

	var records []models.FindingRecord
	var token *string
	pages := 0

	for {
		in := &inspectorsvc.ListFindingsInput{
			AssessmentRunArns: runArns,
			Filter:            filter,
		}
		if token != nil {
			in.NextToken = token
		}

		out, err := s.clients.Inspector.ListFindings(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("list findings (page %d): %w", pages+1, err)
		}
		pages++

		if len(out.FindingArns) > 0 {
			detail, err := s.clients.Inspector.DescribeFindings(ctx, &inspectorsvc.DescribeFindingsInput{
				FindingArns: out.FindingArns,
				Locale:      inspectortypes.LocaleEnUs,
			})
			if err != nil {
				return nil, fmt.Errorf("describe findings (page %d): %w", pages, err)
			}
			for _, finding := range detail.Findings {
				records = append(records, s.buildRecord(ctx, finding))
			}
		}

		if aws.ToString(out.NextToken) == "" {
			break
		}
		token = out.NextToken
	}

	s.log.WithFields(logrus.Fields{"pages": pages, "findings": len(records)}).
		Info("findings harvested")
	return records, nil
}

// buildRecord extracts the report fields from one finding and attaches the
// CVE feed document when the finding ID is a CVE identifier. A feed lookup
// that yields nothing produces an explicit null, never an error: the
// finding is reported either way.
func (s *DefaultService) buildRecord(ctx context.Context, finding inspectortypes.Finding) models.FindingRecord {
	rec := models.FindingRecord{
		ID: aws.ToString(finding.Id),
		Report: models.FindingReport{
			Title:          aws.ToString(finding.Title),
			Description:    aws.ToString(finding.Description),
			Severity:       string(finding.Severity),
			Recommendation: aws.ToString(finding.Recommendation),
		},
	}

	if cvePattern.MatchString(rec.ID) {
		feed, err := s.feeds.Fetch(ctx, rec.ID)
		if err != nil || feed == nil {
			rec.Feeds = json.RawMessage("null")
		} else {
			rec.Feeds = feed
		}
	}
	return rec
}

func toSeverities(severities []string) []inspectortypes.Severity {
	out := make([]inspectortypes.Severity, 0, len(severities))
	for _, s := range severities {
		out = append(out, inspectortypes.Severity(s))
	}
	return out
}
