// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"qualification-workers/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// Publisher is the slice of SNS the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// HotLeadNotifier publishes tier A qualifications to an SNS topic.
type HotLeadNotifier struct {
	publisher Publisher
	topicARN  string
}

func NewHotLeadNotifier(publisher Publisher, topicARN string) *HotLeadNotifier {
	return &HotLeadNotifier{publisher: publisher, topicARN: topicARN}
}

func (n *HotLeadNotifier) NotifyHotLead(ctx context.Context, alert models.HotLeadAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode hot lead alert: %w", err)
	}

	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.topicARN),
		Subject:  awssdk.String(fmt.Sprintf("Hot lead (score %d)", alert.Score)),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"organizationId": {DataType: awssdk.String("String"), StringValue: awssdk.String(alert.OrganizationID)},
			"tier":           {DataType: awssdk.String("String"), StringValue: awssdk.String(string(alert.Tier))},
		},
	})
	if err != nil {
		return fmt.Errorf("publish hot lead alert: %w", err)
	}
	return nil
}
