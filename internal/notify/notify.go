// Package notify delivers one-time codes out of band.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Notifier sends a message to a contact address. A single attempt, no retry
// policy; callers decide whether failure is fatal.
type Notifier interface {
	Send(ctx context.Context, to, message string) error
}

// SMSGateway posts messages to an HTTP SMS gateway.
type SMSGateway struct {
	url        string
	token      string
	sender     string
	httpClient *http.Client
}

func NewSMSGateway(url, token, sender string) *SMSGateway {
	return &SMSGateway{
		url:        url,
		token:      token,
		sender:     sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *SMSGateway) Send(ctx context.Context, to, message string) error {
	payload, err := json.Marshal(map[string]string{
		"from": g.sender,
		"to":   to,
		"text": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// LogNotifier writes the message to the log instead of sending it. Used when
// no gateway is configured so a tester can pick the code up from the logs.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, to, message string) error {
	slog.Warn("sms gateway not configured, logging message instead", "to", to, "message", message)
	return nil
}
