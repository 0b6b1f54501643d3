package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"haulcheck/internal/domain"
)

// Client calls the external identity/license verification provider over
// JSON/HTTP. Network and provider errors surface as Success=false verdicts
// per the verifier port contract; the error return carries detail for logs.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyRequest struct {
	DocumentType string            `json:"document_type"`
	Fields       map[string]string `json:"fields"`
}

type verifyResponse struct {
	Valid   bool           `json:"valid"`
	Details map[string]any `json:"details"`
}

func (c *Client) Verify(ctx context.Context, kind domain.DocumentKind, identifyingFields map[string]string) (domain.VerifierVerdict, error) {
	verdict := domain.VerifierVerdict{Kind: kind}

	body, err := json.Marshal(verifyRequest{
		DocumentType: kind.String(),
		Fields:       identifyingFields,
	})
	if err != nil {
		return verdict, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verifications", bytes.NewReader(body))
	if err != nil {
		return verdict, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return verdict, fmt.Errorf("verifier call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return verdict, fmt.Errorf("verifier status %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return verdict, fmt.Errorf("decode verify response: %w", err)
	}

	verdict.Success = true
	verdict.Valid = decoded.Valid
	verdict.Payload = decoded.Details
	return verdict, nil
}
