// Package sms delivers OTP messages either through the in-house HTTP SMS gateway or, in
// simulation mode, to the server log and the dev outbox.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single gateway call when the caller supplies no client.
const DefaultTimeout = 15 * time.Second

const (
	userAgent  = "sms-otp-authenticator HttpClient"
	maxBodyLog = 512
	statusSent = http.StatusCreated
)

// Sender delivers one text message to one phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// InhouseClient sends SMS through the in-house gateway: a JSON POST answered with 201.
type InhouseClient struct {
	URI        string
	APIKey     string
	SenderID   string
	HTTPClient *http.Client
}

type inhouseRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// NewInhouseClient returns a client for the gateway at uri. httpClient is shared across
// calls; nil gets a client with DefaultTimeout.
func NewInhouseClient(httpClient *http.Client, uri, apiKey, senderID string) *InhouseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &InhouseClient{
		URI:        uri,
		APIKey:     apiKey,
		SenderID:   senderID,
		HTTPClient: httpClient,
	}
}

// Send posts the message to the gateway. Any failure is returned as a *DeliveryError;
// the request is not retried.
func (c *InhouseClient) Send(ctx context.Context, phone, message string) error {
	if c.URI == "" {
		return &DeliveryError{Cause: "gateway URI not configured"}
	}
	raw, err := json.Marshal(inhouseRequest{From: c.SenderID, To: phone, Text: message})
	if err != nil {
		return &DeliveryError{Cause: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URI, bytes.NewReader(raw))
	if err != nil {
		return &DeliveryError{Cause: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &DeliveryError{Cause: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	if resp.StatusCode != statusSent {
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Cause:      fmt.Sprintf("gateway answered status=%d body=%s", resp.StatusCode, string(body)),
		}
	}
	return nil
}
