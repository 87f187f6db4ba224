package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiError carries the provider's HTTP status for retry classification.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("mail api returned %d: %s", e.Status, e.Body)
}

// Transient treats throttling and provider-side failures as retryable;
// 4xx (bad key, rejected recipient) are not.
func (e *apiError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// APITransport delivers through the primary transactional provider's
// HTTPS API. It sits first in the default fallback chain.
type APITransport struct {
	baseURL  string
	apiKey   string
	from     string
	fromName string
	client   *http.Client
}

// NewAPITransport builds the provider client.
func NewAPITransport(baseURL, apiKey, from, fromName string, timeout time.Duration) *APITransport {
	return &APITransport{
		baseURL:  baseURL,
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name identifies the transport in logs and metrics.
func (t *APITransport) Name() string { return "api" }

type apiAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentID   string `json:"content_id"`
	Disposition string `json:"disposition"`
}

type apiRequest struct {
	From        string          `json:"from"`
	To          []string        `json:"to"`
	Subject     string          `json:"subject"`
	HTML        string          `json:"html"`
	Attachments []apiAttachment `json:"attachments,omitempty"`
}

// Send posts the message to the provider.
func (t *APITransport) Send(ctx context.Context, msg *Message) error {
	payload := apiRequest{
		From:    fmt.Sprintf("%s <%s>", t.fromName, t.from),
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, img := range msg.Inline {
		payload.Attachments = append(payload.Attachments, apiAttachment{
			Filename:    img.Filename,
			Content:     base64.StdEncoding.EncodeToString(img.Data),
			ContentID:   img.Filename,
			Disposition: "inline",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail api request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &apiError{Status: resp.StatusCode, Body: string(respBody)}
}
