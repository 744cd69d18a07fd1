package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Remote calls an inference service hosting the serialized model.
//
// Request:  POST <endpoint>/predict {"features": [[f0, f1, f2, f3]]}
// Response: {"predictions": [[s0, s1, ...]]}
type Remote struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Predictor = (*Remote)(nil)

// NewRemote creates a client; a nil http client gets a 15s timeout default.
func NewRemote(endpoint, apiKey string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Remote{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     client,
	}
}

func (r *Remote) Predict(ctx context.Context, features []float64) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"features": [][]float64{features},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Predictions [][]float64 `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("expected 1 prediction row, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}
