package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"qualification-workers/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func TestHotLeadNotifier(t *testing.T) {
	pub := &mockPublisher{}
	n := NewHotLeadNotifier(pub, "arn:aws:sns:us-east-1:123456789012:hot-leads")

	err := n.NotifyHotLead(context.Background(), models.HotLeadAlert{
		OrganizationID: "org-1",
		LeadID:         "l-1",
		Score:          92,
		Tier:           models.TierA,
		KeyFactors:     []string{"Immediate timeline"},
	})
	require.NoError(t, err)
	require.Len(t, pub.inputs, 1)

	in := pub.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:hot-leads", awssdk.ToString(in.TopicArn))
	assert.Equal(t, "Hot lead (score 92)", awssdk.ToString(in.Subject))
	assert.Equal(t, "A", awssdk.ToString(in.MessageAttributes["tier"].StringValue))

	var alert models.HotLeadAlert
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(in.Message)), &alert))
	assert.Equal(t, "l-1", alert.LeadID)
	assert.Equal(t, []string{"Immediate timeline"}, alert.KeyFactors)
}

func TestHotLeadNotifier_PublishError(t *testing.T) {
	n := NewHotLeadNotifier(&mockPublisher{err: errors.New("throttled")}, "arn")
	err := n.NotifyHotLead(context.Background(), models.HotLeadAlert{OrganizationID: "org-1", Tier: models.TierA})
	assert.ErrorContains(t, err, "throttled")
}
