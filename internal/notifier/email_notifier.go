package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/models"
)

// sesAPI is the slice of the SES client the notifier uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier sends email through Amazon SES.
type EmailNotifier struct {
	client sesAPI
	sender string
	log    *zap.Logger
}

func NewEmailNotifier(ctx context.Context, cfg config.EmailConfig, log *zap.Logger) (*EmailNotifier, error) {
	if cfg.SenderEmail == "" {
		return nil, errors.New("sender email address is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return newEmailNotifier(ses.NewFromConfig(awsCfg), cfg.SenderEmail, log), nil
}

func newEmailNotifier(client sesAPI, sender string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{client: client, sender: sender, log: log}
}

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(`
        <html>
        <body>
            <p>Dear {{.Name}},</p>
            <p>Thank you for joining Bhujal. You can now register your borewells and help map groundwater across the country.</p>
            <p>Best regards,</p>
            <p>The Bhujal Team</p>
        </body>
        </html>`))

	borewellHTML = template.Must(template.New("borewell").Parse(`
        <html>
        <body>
            <p>Dear {{.Customer.Name}},</p>
            <p>Your borewell has been registered.</p>
            <ul>
                <li>Location: {{.Borewell.Latitude}}, {{.Borewell.Longitude}}</li>
                <li>Well type: {{.Borewell.WellType}}</li>
                <li>Depth: {{.Borewell.ExactDepth}}</li>
            </ul>
            <p>Best regards,</p>
            <p>The Bhujal Team</p>
        </body>
        </html>`))
)

func (n *EmailNotifier) CustomerRegistered(ctx context.Context, customer models.Customer) error {
	subject := "Welcome to Bhujal"
	text := fmt.Sprintf(
		"Dear %s,\n\nThank you for joining Bhujal. You can now register your borewells "+
			"and help map groundwater across the country.\n\nBest regards,\nThe Bhujal Team",
		customer.Name)
	html, err := render(welcomeHTML, customer)
	if err != nil {
		return err
	}
	return n.send(ctx, customer, subject, text, html)
}

func (n *EmailNotifier) BorewellRegistered(ctx context.Context, customer models.Customer, borewell models.Borewell) error {
	subject := "Your borewell has been registered"
	text := fmt.Sprintf(
		"Dear %s,\n\nYour borewell has been registered.\n\n"+
			"Location: %s, %s\nWell type: %s\nDepth: %d\n\nBest regards,\nThe Bhujal Team",
		customer.Name, borewell.Latitude, borewell.Longitude, borewell.WellType, borewell.ExactDepth)
	html, err := render(borewellHTML, struct {
		Customer models.Customer
		Borewell models.Borewell
	}{customer, borewell})
	if err != nil {
		return err
	}
	return n.send(ctx, customer, subject, text, html)
}

// render executes an html/template so customer-supplied values come out escaped.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (n *EmailNotifier) send(ctx context.Context, customer models.Customer, subject, text, html string) error {
	recipient := customer.Email
	if recipient == "" {
		return errors.New("recipient email address is empty")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(html),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(text),
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.log.Info("email sent", zap.Uint("customer_id", customer.ID), zap.String("subject", subject))
	return nil
}
