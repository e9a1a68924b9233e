// Package consult assembles and dispatches consultation requests: a
// deterministic plain-text rendering of the latest analysis result carried
// to a human specialist over a pluggable transport.
package consult

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
)

// Request is one consultation submission.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Sender dispatches a consultation request to the specialist backend.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// RenderSummary renders an analysis result as the plain-text consultation
// message. The layout is fixed: arch type line, bulleted potential issues,
// summary line, bulleted footwear suggestions, bulleted clinical
// recommendations, confidence line. A nil result renders N/A placeholders.
func RenderSummary(res *analysis.Result) string {
	var b strings.Builder

	if res == nil {
		b.WriteString("Foot Arch Type: N/A\n")
		b.WriteString("Potential Issues: N/A\n")
		b.WriteString("Summary: N/A\n")
		b.WriteString("Footwear Suggestions: N/A\n")
		b.WriteString("Clinical Recommendations: N/A\n")
		b.WriteString("Confidence Score: N/A\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Foot Arch Type: %s\n", res.ArchType)

	b.WriteString("Potential Issues:\n")
	if len(res.PotentialIssues) == 0 {
		b.WriteString("None detected\n")
	} else {
		for _, issue := range res.PotentialIssues {
			fmt.Fprintf(&b, "- %s (%s): %s\n", issue.Issue, issue.Severity, issue.Description)
		}
	}

	fmt.Fprintf(&b, "Summary: %s\n", res.Summary)

	b.WriteString("Footwear Suggestions:\n")
	writeBullets(&b, res.FootwearSuggestions)

	b.WriteString("Clinical Recommendations:\n")
	writeBullets(&b, res.ClinicalRecommendations)

	fmt.Fprintf(&b, "Confidence Score: %s\n", strconv.FormatFloat(res.ConfidenceScore, 'f', -1, 64))

	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("None provided\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// WebhookSender posts consultation requests as JSON to a configured
// endpoint.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSender creates a sender for the given webhook URL.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts the request and fails on any non-2xx response.
func (s *WebhookSender) Send(ctx context.Context, req Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal consultation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to submit consultation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("consultation endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	slog.Info("Consultation request submitted", "email", req.Email)
	return nil
}

// LogSender records consultation requests to the log without dispatching
// them anywhere. It stands in when no webhook is configured.
type LogSender struct{}

// Send logs the request and succeeds.
func (LogSender) Send(ctx context.Context, req Request) error {
	slog.Info("Consultation request recorded (no transport configured)",
		"name", req.Name, "email", req.Email, "message_len", len(req.Message))
	return nil
}
