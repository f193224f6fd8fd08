package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPSender posts messages to a JSON mail API (transactional mail providers with a
// {from, to, subject, html} endpoint).
type HTTPSender struct {
	APIKey     string
	BaseURL    string
	From       string
	FromName   string
	HTTPClient *http.Client
}

// NewHTTPSender returns a sender for the given endpoint and API key.
func NewHTTPSender(apiKey, baseURL, from, fromName string) *HTTPSender {
	return &HTTPSender{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		FromName:   fromName,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type apiRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type apiResponse struct {
	ID string `json:"id"`
}

// Send posts the message. Does not log the body.
func (c *HTTPSender) Send(ctx context.Context, to, subject, htmlBody string) (*Receipt, error) {
	if c.APIKey == "" || c.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	from := c.From
	if c.FromName != "" {
		from = fmt.Sprintf("%q <%s>", c.FromName, c.From)
	}
	raw, err := json.Marshal(apiRequest{From: from, To: []string{to}, Subject: subject, HTML: htmlBody})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	var out apiResponse
	// A missing or non-JSON body still means the message was accepted.
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return &Receipt{MessageID: out.ID}, nil
}
