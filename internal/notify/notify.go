// Package notify sends outbound notification requests. The core only
// decides whether and when to request; transport, retries and rate-limit
// tiers belong to the provider.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pitwatch/internal/models"
)

// Request is one outbound notification.
type Request struct {
	Category    models.AlertCategory
	Message     string
	Destination string
}

// Notifier delivers a request. Implementations own transport concerns.
type Notifier interface {
	Send(ctx context.Context, req Request) error
}

// Disabled drops every request; used when no phone number is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, Request) error { return nil }

// TextBelt posts SMS through the textbelt.com HTTP API.
type TextBelt struct {
	BaseURL string
	Key     string
	client  *http.Client
}

// DefaultTextBeltURL is the public endpoint.
const DefaultTextBeltURL = "https://textbelt.com/text"

// NewTextBelt returns a client with a modest request timeout.
func NewTextBelt(baseURL, key string) *TextBelt {
	if baseURL == "" {
		baseURL = DefaultTextBeltURL
	}
	if key == "" {
		key = "textbelt" // free tier
	}
	return &TextBelt{
		BaseURL: baseURL,
		Key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one SMS. A non-2xx response is a delivery error; the caller
// has already recorded the attempt and must not retry through the core.
func (t *TextBelt) Send(ctx context.Context, req Request) error {
	form := url.Values{
		"phone":   {req.Destination},
		"message": {"BBQ: " + req.Message},
		"key":     {t.Key},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send sms: provider returned %s", resp.Status)
	}
	return nil
}
