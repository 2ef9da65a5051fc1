package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends account notifications via Amazon SES. With no from
// address configured the service is disabled and every send is a logged
// no-op, so local setups need no AWS credentials.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWelcomeEmail greets a newly registered learner.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	greeting := toName
	if greeting == "" {
		greeting = "there"
	}

	subject := "Welcome to Recall Trainer"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #0071e3;">Welcome to Recall Trainer</h1>
		<p>Hi %s,</p>
		<p>Your account is ready. Pick a deck, work through a batch, and let the
		recall loop do the rest.</p>
		<p style="text-align: center;">
			<a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #0071e3; color: white; text-decoration: none; border-radius: 5px;">Start Training</a>
		</p>
		<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
	</div>
</body>
</html>
`, greeting, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your Recall Trainer account is ready. Pick a deck, work through a batch,
and let the recall loop do the rest.

%s

---
This is an automated email. Please do not reply.
`, greeting, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendAdminPromotionEmail notifies an account it now holds the admin role.
func (s *EmailService) SendAdminPromotionEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): admin promotion to %s", toEmail)
		return nil
	}

	greeting := toName
	if greeting == "" {
		greeting = "there"
	}

	reportsLink := s.appBaseURL + "/admin/reports"
	subject := "You now have admin access on Recall Trainer"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #0071e3;">Admin Access Granted</h1>
		<p>Hi %s,</p>
		<p>Your account was promoted to admin. You can now open the learning
		reports dashboard:</p>
		<p style="word-break: break-all;"><a href="%s">%s</a></p>
		<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
	</div>
</body>
</html>
`, greeting, reportsLink, reportsLink)

	textBody := fmt.Sprintf(`Hi %s,

Your account was promoted to admin. You can now open the learning reports
dashboard:

%s

---
This is an automated email. Please do not reply.
`, greeting, reportsLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
