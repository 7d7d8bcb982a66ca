// Package mailer wraps the third-party transactional email API.  The
// rest of the system only sees the Sender interface, so tests and the
// dispatcher do not care which provider is behind it.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	ToName  string `json:"to_name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Result carries the provider-side identifier of an accepted message.
type Result struct {
	MessageID string `json:"message_id"`
}

// Sender sends one email.  Implementations must be safe for repeated
// sequential calls; the dispatcher never calls Send concurrently.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// HTTPClient talks to the transactional email API over HTTP JSON.
type HTTPClient struct {
	APIKey string
	URL    string
	Client *http.Client
}

// NewHTTPClient builds an HTTPClient with a sane request timeout.
func NewHTTPClient(apiKey, url string) *HTTPClient {
	return &HTTPClient{
		APIKey: apiKey,
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type apiResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
}

// Send posts the message to the provider and returns its message id.
// Non-2xx responses and provider-level rejections are returned as
// errors; the caller records them on the audit trail.
func (c *HTTPClient) Send(ctx context.Context, msg Message) (Result, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("mail api responded with status %d", resp.StatusCode)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	var out apiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Result{}, err
	}
	if out.Status != "" && out.Status != "sent" && out.Status != "queued" {
		return Result{}, fmt.Errorf("mail api rejected message: %s", out.Detail)
	}
	return Result{MessageID: out.MessageID}, nil
}

// MockSender accepts every message without any network call.  Used in
// dev environments where no mail API credentials are configured.
type MockSender struct{}

// Send pretends the message was delivered and fabricates a message id.
func (MockSender) Send(_ context.Context, _ Message) (Result, error) {
	return Result{MessageID: fmt.Sprintf("mock_%d", time.Now().UnixNano())}, nil
}
