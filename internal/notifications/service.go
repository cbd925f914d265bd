package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/content"
	"inkwell/internal/scoring"
)

const userAgent = "inkwell/1.0"

// ApprovalRequest carries everything the review email needs.
type ApprovalRequest struct {
	WorkflowID string
	Article    content.Article
	Report     scoring.Report
	Category   string
	Token      string
}

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	SendApprovalRequest(ctx context.Context, req ApprovalRequest) error
	TestNotification(ctx context.Context) error
}

// NewService builds a mail-backed notification service when mail delivery is
// configured. Otherwise a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.MailEnabled() {
		return noopService{}
	}

	timeout := time.Duration(cfg.Mail.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &mailService{
		endpoint:  strings.TrimSpace(cfg.Mail.Endpoint),
		apiToken:  strings.TrimSpace(cfg.Mail.APIToken),
		from:      strings.TrimSpace(cfg.Mail.From),
		to:        strings.TrimSpace(cfg.Mail.To),
		publicURL: strings.TrimSpace(cfg.PublicURL),
		client:    &http.Client{Timeout: timeout},
	}
}

type mailService struct {
	endpoint  string
	apiToken  string
	from      string
	to        string
	publicURL string
	client    *http.Client
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (m *mailService) SendApprovalRequest(ctx context.Context, req ApprovalRequest) error {
	if strings.TrimSpace(req.WorkflowID) == "" || strings.TrimSpace(req.Token) == "" {
		return fmt.Errorf("approval request requires workflow id and token")
	}

	html, err := renderApprovalEmail(m.publicURL, req)
	if err != nil {
		return fmt.Errorf("render approval email: %w", err)
	}

	title := req.Article.Title
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	subject := fmt.Sprintf("[Quality: %d/100] %s", req.Report.OverallScore, title)
	return m.send(ctx, subject, html)
}

func (m *mailService) TestNotification(ctx context.Context) error {
	return m.send(ctx, "inkwell test notification",
		"<p>Notification delivery is working.</p>")
}

func (m *mailService) send(ctx context.Context, subject, html string) error {
	body, err := json.Marshal(mailPayload{
		From:    m.from,
		To:      m.to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if m.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiToken)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) SendApprovalRequest(context.Context, ApprovalRequest) error { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
