// Package notify tells applicants when their application changes status.
package notify

import (
	"context"
	"fmt"
	"strings"

	"dealership/internal/model"
	"dealership/internal/workflow"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type Notifier interface {
	StatusChanged(ctx context.Context, app model.Application, entry model.StatusHistory) error
}

// sender is the slice of the SES client used here.
type sender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesNotifier struct {
	client sender
	from   string
	log    *zap.Logger
}

// NewSES loads the default AWS credential chain for region.
func NewSES(ctx context.Context, region, from string, log *zap.Logger) (Notifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &sesNotifier{client: ses.NewFromConfig(cfg), from: from, log: log}, nil
}

func (n *sesNotifier) StatusChanged(ctx context.Context, app model.Application, entry model.StatusHistory) error {
	subject, body := render(app, entry)
	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.from),
		Destination: &types.Destination{ToAddresses: []string{app.Email}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	n.log.Debug("status email sent",
		zap.String("tracking_id", app.TrackingID),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

type logNotifier struct {
	log *zap.Logger
}

// NewLog only records what would have been sent.
func NewLog(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) StatusChanged(_ context.Context, app model.Application, entry model.StatusHistory) error {
	subject, _ := render(app, entry)
	n.log.Info("status notification",
		zap.String("tracking_id", app.TrackingID),
		zap.String("to", app.Email),
		zap.String("subject", subject))
	return nil
}

func render(app model.Application, entry model.StatusHistory) (string, string) {
	label := workflow.Label(entry.Status)
	subject := fmt.Sprintf("Your dealership application %s is now %s", app.TrackingID, label)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s %s,\n\n", app.FirstName, app.LastName)
	fmt.Fprintf(&b, "The status of your dealership application %s has changed to: %s.\n", app.TrackingID, label)
	switch entry.Status {
	case model.StatusAdditionalInfoRequired:
		b.WriteString("\nOur team needs more information. Please open the tracking page and reply with the requested details.\n")
	case model.StatusPaymentPending:
		fmt.Fprintf(&b, "\nPlease complete the dealership fee payment of INR %s via UPI and submit the transaction details on the tracking page.\n", app.PaymentAmount.StringFixed(2))
	case model.StatusRejected:
		if app.RejectionReason != "" {
			fmt.Fprintf(&b, "\nReason: %s\n", app.RejectionReason)
		}
	}
	if entry.Note != "" && entry.Status != model.StatusRejected {
		fmt.Fprintf(&b, "\nNote from our team: %s\n", entry.Note)
	}
	b.WriteString("\nRegards,\nDealership Team\n")
	return subject, b.String()
}
