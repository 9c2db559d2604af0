// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/infrastructure/email/templates"
	"github.com/magnetiq/magnetiq-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendWhitepaperLinkEmail(toEmail, whitepaperTitle, linkURL string, expiresAt time.Time) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendWhitepaperLinkEmail composes and sends the download confirmation email
// carrying the publication link.
func (c *ResendClient) SendWhitepaperLinkEmail(toEmail, whitepaperTitle, linkURL string, expiresAt time.Time) error {
	subject := fmt.Sprintf("Your download link for %q", whitepaperTitle)

	content := templates.GetWhitepaperLinkContent(templates.WhitepaperLinkProps{
		WhitepaperTitle: whitepaperTitle,
		LinkURL:         linkURL,
		ExpiresAt:       expiresAt,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "Your whitepaper download link",
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send whitepaper link email via Resend: %w", err)
	}

	return nil
}
