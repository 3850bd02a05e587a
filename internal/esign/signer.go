// Package esign integrates the external e-signature provider used at contract
// confirmation.
package esign

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Signer submits a signed agreement to the provider and returns its signature
// reference. It implements core.Signer.
type Signer struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func NewSigner(endpoint string, timeout time.Duration, log *slog.Logger) *Signer {
	return &Signer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type signRequest struct {
	Document string `json:"document"` // base64
}

type signResponse struct {
	Reference string `json:"reference"`
}

func (s *Signer) Sign(ctx context.Context, data []byte) (string, error) {
	body, err := json.Marshal(signRequest{
		Document: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", fmt.Errorf("encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/signatures", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	var out signResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if out.Reference == "" {
		return "", fmt.Errorf("provider returned empty reference")
	}

	return out.Reference, nil
}

// SimulatedSigner derives a stable reference from the document digest. Used in
// development when no provider endpoint is configured.
type SimulatedSigner struct{}

func (SimulatedSigner) Sign(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return "sim-" + hex.EncodeToString(sum[:8]), nil
}
