package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers one rendered message to one channel address. The push
// transport is opaque to this package; implementations report failure via
// the returned error and make no idempotency guarantee.
type Sender interface {
	Send(ctx context.Context, address string, msg *Message) error
}

// ErrMissingCredentials is returned when the push transport is enabled but
// its endpoint or token is not configured. This is a deployment defect, not
// a data condition, so dispatcher construction fails fast.
var ErrMissingCredentials = errors.New("push transport credentials not configured")

// PushSender delivers messages over an HTTP push API.
type PushSender struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewPushSender creates a sender for the given push endpoint.
func NewPushSender(endpoint, token string, timeout time.Duration) (*PushSender, error) {
	if endpoint == "" || token == "" {
		return nil, ErrMissingCredentials
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &PushSender{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// pushRequest is the wire format of one push delivery.
type pushRequest struct {
	To      string   `json:"to"`
	Message *Message `json:"message"`
}

// Send posts the message to the push API.
func (s *PushSender) Send(ctx context.Context, address string, msg *Message) error {
	body, err := json.Marshal(pushRequest{To: address, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push API returned %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
