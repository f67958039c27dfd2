package assessment

import (
	"context"

	"github.com/cloudpatrol/awsscan/internal/models"
)

// DefaultTagKey is the tag key applied to instances and used to scope
// resource groups when the caller does not supply one.
const DefaultTagKey = "awsscan"

// DefaultDurationSeconds is the assessment run duration used when none is
// given (one hour). Upper and lower bounds are enforced by the service,
// not locally.
const DefaultDurationSeconds int32 = 3600

// Service exposes the Inspector Classic scan workflow. Every method maps
// to one remote operation (or, for ListFindings, one pagination loop);
// all workflow state lives in the remote service.
//
// Methods are synchronous and blocking. Remote failures propagate to the
// caller unwrapped in meaning: there is no retry, rollback, or partial-
// failure recovery anywhere in this interface.
type Service interface {
	// TagInstances applies {tagKey: tagValue} to all given instances in a
	// single CreateTags call. An empty tagKey means DefaultTagKey.
	TagInstances(ctx context.Context, instanceIDs []string, tagValue, tagKey string) error

	// CreateTarget creates a resource group scoped to {tagKey: tagValue}
	// and an assessment target bound to it, returning the target ARN.
	// A failure after the resource group is created leaves it orphaned.
	CreateTarget(ctx context.Context, targetName, tagValue, tagKey string) (string, error)

	// CreateTemplate binds target, rules packages, and duration into an
	// assessment template and returns its ARN. A zero durationSeconds
	// means DefaultDurationSeconds; negative values are rejected locally.
	CreateTemplate(ctx context.Context, targetArn, templateName string, rulePackageArns []string, durationSeconds int32) (string, error)

	// StartRun launches one assessment run from the template and returns
	// the run ARN immediately; it does not wait for completion.
	StartRun(ctx context.Context, templateArn string) (string, error)

	// Subscribe registers the run-lifecycle events against topicArn, one
	// SubscribeToEvent call per event, and returns the event names it
	// subscribed.
	Subscribe(ctx context.Context, templateArn, topicArn string) ([]string, error)

	// EnsureTopic creates (or returns the existing) SNS topic with the
	// given name and returns its ARN. SNS CreateTopic is idempotent for
	// an unchanged name.
	EnsureTopic(ctx context.Context, name string) (string, error)

	// ListFindings harvests all findings produced by runArns, filtered by
	// agent IDs and severities, with full detail and CVE feed enrichment.
	ListFindings(ctx context.Context, agentIDs, severities, runArns []string) ([]models.FindingRecord, error)
}
