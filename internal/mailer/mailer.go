package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// APIError represents a mail provider API error response.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail provider error [%s]: %s", e.Name, e.Message)
}

// Mailer sends program emails. Delivery details stay behind this interface;
// callers only know the message intent.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, name, region, link string) error
	SendWelcome(ctx context.Context, to, name, region string) error
}

// sendEmailRequest matches the Resend send email API request body.
type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type apiMailer struct {
	baseURL string
	apiKey  string
	from    string
	appURL  string
	client  *http.Client
}

// NewFromEnv builds the provider-backed mailer, or a log-only mailer when
// MAIL_API_KEY is unset so local development works without an account.
func NewFromEnv() Mailer {
	apiKey := os.Getenv("MAIL_API_KEY")
	if apiKey == "" {
		log.Println("MAIL_API_KEY not set, emails will be logged instead of sent")
		return &logMailer{}
	}

	baseURL := os.Getenv("MAIL_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "Partner Incentive Program <noreply@example.com>"
	}

	return &apiMailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *apiMailer) SendMagicLink(ctx context.Context, to, name, region, link string) error {
	subject := "Your sign-in link"
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Use the link below to sign in to the %s partner incentive console. It expires in 15 minutes and can be used once.</p><p><a href="%s">Sign in</a></p>`,
		name, region, link)
	text := fmt.Sprintf("Hi %s,\n\nSign in to the %s partner incentive console: %s\n\nThe link expires in 15 minutes and can be used once.", name, region, link)
	return m.send(ctx, sendEmailRequest{From: m.from, To: []string{to}, Subject: subject, HTML: html, Text: text})
}

func (m *apiMailer) SendWelcome(ctx context.Context, to, name, region string) error {
	subject := "Welcome to the partner incentive program"
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your registration for the %s region has been received. An administrator will review it shortly; you will be able to sign in once approved.</p>`,
		name, region)
	return m.send(ctx, sendEmailRequest{From: m.from, To: []string{to}, Subject: subject, HTML: html})
}

func (m *apiMailer) send(ctx context.Context, payload sendEmailRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
		apiErr.Name = "unknown_error"
		apiErr.Message = string(raw)
	}
	return apiErr
}

// logMailer is the no-provider fallback used in development.
type logMailer struct{}

func (l *logMailer) SendMagicLink(_ context.Context, to, _, _, link string) error {
	log.Printf("[mailer] magic link for %s: %s", to, link)
	return nil
}

func (l *logMailer) SendWelcome(_ context.Context, to, _, region string) error {
	log.Printf("[mailer] welcome email for %s (%s)", to, region)
	return nil
}
