package assessment

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	inspectorsvc "github.com/aws/aws-sdk-go-v2/service/inspector"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
)

// inspectorAPIClient is the narrow Inspector Classic interface used by the
// assessment service. It covers target/template creation, run control,
// event subscription, and finding retrieval.
type inspectorAPIClient interface {
	CreateResourceGroup(ctx context.Context, params *inspectorsvc.CreateResourceGroupInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.CreateResourceGroupOutput, error)
	CreateAssessmentTarget(ctx context.Context, params *inspectorsvc.CreateAssessmentTargetInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.CreateAssessmentTargetOutput, error)
	CreateAssessmentTemplate(ctx context.Context, params *inspectorsvc.CreateAssessmentTemplateInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.CreateAssessmentTemplateOutput, error)
	StartAssessmentRun(ctx context.Context, params *inspectorsvc.StartAssessmentRunInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.StartAssessmentRunOutput, error)
	SubscribeToEvent(ctx context.Context, params *inspectorsvc.SubscribeToEventInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.SubscribeToEventOutput, error)
	ListFindings(ctx context.Context, params *inspectorsvc.ListFindingsInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.ListFindingsOutput, error)
	DescribeFindings(ctx context.Context, params *inspectorsvc.DescribeFindingsInput, optFns ...func(*inspectorsvc.Options)) (*inspectorsvc.DescribeFindingsOutput, error)
}

// ec2TagAPIClient is the narrow EC2 interface used for instance tagging.
// Only CreateTags is required.
type ec2TagAPIClient interface {
	CreateTags(ctx context.Context, params *ec2svc.CreateTagsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.CreateTagsOutput, error)
}

// snsTopicAPIClient is the narrow SNS interface used to provision the
// notification topic when the caller supplies a name instead of an ARN.
type snsTopicAPIClient interface {
	CreateTopic(ctx context.Context, params *snssvc.CreateTopicInput, optFns ...func(*snssvc.Options)) (*snssvc.CreateTopicOutput, error)
}

// assessmentClients bundles all AWS service clients used by the
// assessment service.
type assessmentClients struct {
	Inspector inspectorAPIClient
	EC2       ec2TagAPIClient
	SNS       snsTopicAPIClient
}

// clientFactory creates assessmentClients from an AWS config.
// Injection point: tests replace this with a function returning fakes.
type clientFactory func(cfg aws.Config) *assessmentClients

// newDefaultClients creates production AWS SDK clients from the given config.
func newDefaultClients(cfg aws.Config) *assessmentClients {
	return &assessmentClients{
		Inspector: inspectorsvc.NewFromConfig(cfg),
		EC2:       ec2svc.NewFromConfig(cfg),
		SNS:       snssvc.NewFromConfig(cfg),
	}
}
