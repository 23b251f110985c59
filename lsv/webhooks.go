package lsv

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
)

// Webhook event types.
const (
	EventDocumentCreated = "document.created"
	EventDocumentUpdated = "document.updated"
	EventDocumentDeleted = "document.deleted"
	EventVaultCreated    = "vault.created"
	EventVaultDeleted    = "vault.deleted"
)

// Webhook is a delivery endpoint registered for event notifications.
//
// Secret is populated only on the create response; it is the caller's one
// chance to record it for verifying deliveries.
type Webhook struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebhookEvent is a single delivery posted to a registered endpoint.
type WebhookEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	Data      map[string]any `json:"data"`
}

// DecodeData decodes the loosely-typed event payload into out, which should
// be a pointer to a struct with fields named after the payload keys.
func (e *WebhookEvent) DecodeData(out any) error {
	if err := mapstructure.Decode(e.Data, out); err != nil {
		return fmt.Errorf("lsv: decoding event data: %w", err)
	}
	return nil
}

// WebhooksService manages webhook endpoints.
type WebhooksService struct {
	client *Client
}

// CreateWebhookInput describes an endpoint to register.
type CreateWebhookInput struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// Validate reports whether the input is complete enough to submit.
func (in CreateWebhookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.URL, validation.Required),
		validation.Field(&in.Events, validation.Required, validation.Length(1, 0)),
	)
}

type listWebhooksResponse struct {
	Webhooks []Webhook `json:"webhooks"`
	Total    int       `json:"total"`
}

// Create registers a webhook endpoint. The response carries the endpoint
// secret; it is not retrievable afterwards.
func (s *WebhooksService) Create(ctx context.Context, in CreateWebhookInput) (*Webhook, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("lsv: invalid webhook input: %w", err)
	}

	var hook Webhook
	if err := s.client.do(ctx, http.MethodPost, webhooksPath, nil, in, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

// Get retrieves a webhook by ID.
func (s *WebhooksService) Get(ctx context.Context, id string) (*Webhook, error) {
	var hook Webhook
	if err := s.client.do(ctx, http.MethodGet, webhookPath(id), nil, nil, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

// List retrieves the account's webhooks.
func (s *WebhooksService) List(ctx context.Context, opts *ListOptions) ([]Webhook, error) {
	var out listWebhooksResponse
	if err := s.client.do(ctx, http.MethodGet, webhooksPath, opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Webhooks, nil
}

// Delete unregisters a webhook. Pending deliveries are dropped.
func (s *WebhooksService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, webhookPath(id), nil, nil, nil)
}

func webhookPath(id string) string {
	return webhooksPath + "/" + url.PathEscape(id)
}

// VerifyWebhookSignature checks that a delivery was produced for the given
// endpoint secret and lies inside the replay window.
//
// Deliveries are signed like API requests, minus method and path: the
// signature covers TIMESTAMP \n NONCE \n SHA256HEX(BODY) and travels in the
// same three headers. Comparison is constant-time.
func VerifyWebhookSignature(secret string, payload []byte, headers SignatureHeaders) error {
	ts, err := time.Parse(signatureTimestampLayout, headers.Timestamp)
	if err != nil {
		return ErrWebhookTimestamp
	}

	if age := time.Since(ts); age > MaxTimestampAge || age < -MaxTimestampAge {
		return ErrWebhookTimestamp
	}

	sum := sha256.Sum256(payload)
	expected := SignPayload(secret,
		headers.Timestamp+"\n"+headers.Nonce+"\n"+hex.EncodeToString(sum[:]))

	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return ErrWebhookSignature
	}
	return nil
}

// ParseWebhookEvent verifies a delivery and decodes its payload. Use it in
// the HTTP handler that receives deliveries:
//
//	headers := lsv.SignatureHeadersFromHTTP(r.Header)
//	event, err := lsv.ParseWebhookEvent(secret, body, headers)
func ParseWebhookEvent(secret string, payload []byte, headers SignatureHeaders) (*WebhookEvent, error) {
	if err := VerifyWebhookSignature(secret, payload, headers); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("lsv: decoding webhook event: %w", err)
	}
	return &event, nil
}

// WebhookHandler returns an http.Handler that receives Locksafe webhook
// deliveries, verifies them against the endpoint secret, and passes each
// verified event to handle.
//
// Deliveries that fail the signature or replay-window check are rejected
// with 401 before handle runs; payloads that verify but do not decode are
// rejected with 400. A delivery is acknowledged with 204 once handle
// returns, so handle should finish quickly and defer slow work.
func WebhookHandler(secret string, handle func(ctx context.Context, event *WebhookEvent)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		event, err := ParseWebhookEvent(secret, payload, SignatureHeadersFromHTTP(r.Header))
		switch {
		case errors.Is(err, ErrWebhookSignature), errors.Is(err, ErrWebhookTimestamp):
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		case err != nil:
			http.Error(w, "malformed event", http.StatusBadRequest)
			return
		}

		handle(r.Context(), event)
		w.WriteHeader(http.StatusNoContent)
	})
}
