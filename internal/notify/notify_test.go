package notify

import (
	"context"
	"errors"
	"testing"

	"dealership/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

func testApp() model.Application {
	return model.Application{
		TrackingID:      "DLR-8F3A2C1D",
		FirstName:       "Raj",
		LastName:        "Kumar",
		Email:           "raj@x.com",
		PaymentAmount:   decimal.NewFromInt(25000),
		RejectionReason: "Incomplete documents",
	}
}

func TestSESNotifier_SendsToApplicant(t *testing.T) {
	m := &mockSender{}
	n := &sesNotifier{client: m, from: "noreply@dealers.example", log: zap.NewNop()}

	m.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@dealers.example" &&
			len(in.Destination.ToAddresses) == 1 && in.Destination.ToAddresses[0] == "raj@x.com" &&
			aws.ToString(in.Message.Subject.Data) == "Your dealership application DLR-8F3A2C1D is now Payment Pending"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil)

	err := n.StatusChanged(context.Background(), testApp(), model.StatusHistory{Status: model.StatusPaymentPending})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestSESNotifier_PropagatesError(t *testing.T) {
	m := &mockSender{}
	n := &sesNotifier{client: m, from: "noreply@dealers.example", log: zap.NewNop()}
	m.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := n.StatusChanged(context.Background(), testApp(), model.StatusHistory{Status: model.StatusApproved})
	assert.ErrorContains(t, err, "throttled")
}

func TestRender(t *testing.T) {
	_, body := render(testApp(), model.StatusHistory{Status: model.StatusPaymentPending})
	assert.Contains(t, body, "INR 25000.00")

	_, body = render(testApp(), model.StatusHistory{Status: model.StatusRejected, Note: "Incomplete documents"})
	assert.Contains(t, body, "Reason: Incomplete documents")
	assert.NotContains(t, body, "Note from our team")

	_, body = render(testApp(), model.StatusHistory{Status: model.StatusAdditionalInfoRequired, Note: "Send GST certificate"})
	assert.Contains(t, body, "Note from our team: Send GST certificate")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLog(zap.NewNop()).StatusChanged(context.Background(), testApp(), model.StatusHistory{Status: model.StatusApproved}))
}
