package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animathic/backend/internal/domain"
)

const replicatePredictionsURL = "https://api.replicate.com/v1/predictions"

// ReplicateBackend is the primary SpecBackend: a hosted structured-output
// model reached via Replicate's prediction API, grounded directly on
// GPT4oAdapter's submit/poll/extract loop.
type ReplicateBackend struct {
	name         string
	apiToken     string
	modelVersion string
	httpClient   *http.Client
	logger       *zap.Logger
	pollInterval time.Duration
	maxPolls     int
}

// NewReplicateBackend constructs a ReplicateBackend for modelVersion
// (a Replicate "owner/model:version" identifier).
func NewReplicateBackend(name, apiToken, modelVersion string, logger *zap.Logger) *ReplicateBackend {
	return &ReplicateBackend{
		name:         name,
		apiToken:     apiToken,
		modelVersion: modelVersion,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		logger:       logger,
		pollInterval: 5 * time.Second,
		maxPolls:     24,
	}
}

func (b *ReplicateBackend) Name() string { return b.name }

type replicateRequest struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

type replicateResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// GenerateSpec submits a structured-output prediction, polls until
// completion, and parses the JSON response into an AnimationSpec.
func (b *ReplicateBackend) GenerateSpec(ctx context.Context, req Request) (*domain.AnimationSpec, error) {
	payload := replicateRequest{
		Version: b.modelVersion,
		Input: map[string]interface{}{
			"messages": []map[string]string{
				{"role": "system", "content": systemInstruction()},
				{"role": "user", "content": buildUserPrompt(req)},
			},
			"temperature":           0.4,
			"max_completion_tokens": 4096,
		},
	}

	resp, err := b.submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	if resp.Status != "succeeded" && len(resp.Output) == 0 {
		resp, err = b.poll(ctx, resp.ID)
		if err != nil {
			return nil, err
		}
	}

	if len(resp.Output) == 0 {
		return nil, newBackendError(Unavailable, "no output from backend %s", b.name)
	}

	var raw strings.Builder
	for _, chunk := range resp.Output {
		raw.WriteString(chunk)
	}

	spec, err := parseSpecJSON(raw.String())
	if err != nil {
		return nil, newBackendError(Malformed, "%s: %v", b.name, err)
	}
	return spec, nil
}

func (b *ReplicateBackend) submit(ctx context.Context, payload replicateRequest) (*replicateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newBackendError(Unavailable, "marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, replicatePredictionsURL, bytes.NewReader(body))
	if err != nil {
		return nil, newBackendError(Unavailable, "build request: %v", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Prefer", "wait")

	return b.do(httpReq)
}

func (b *ReplicateBackend) poll(ctx context.Context, predictionID string) (*replicateResponse, error) {
	url := fmt.Sprintf("%s/%s", replicatePredictionsURL, predictionID)

	for attempt := 0; attempt < b.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, newBackendError(Timeout, "context cancelled while polling: %v", ctx.Err())
		case <-time.After(b.pollInterval):
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, newBackendError(Unavailable, "build poll request: %v", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+b.apiToken)

		resp, err := b.do(httpReq)
		if err != nil {
			b.logger.Warn("replicate backend: poll failed, retrying", zap.String("backend", b.name), zap.Error(err))
			continue
		}

		switch resp.Status {
		case "succeeded":
			return resp, nil
		case "failed", "canceled":
			return nil, newBackendError(Unavailable, "%s: prediction %s: %s", b.name, resp.Status, resp.Error)
		}
	}
	return nil, newBackendError(Timeout, "%s: polling exhausted after %d attempts", b.name, b.maxPolls)
}

func (b *ReplicateBackend) do(httpReq *http.Request) (*replicateResponse, error) {
	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := httpReq.Context().Err(); ctxErr != nil {
			return nil, newBackendError(Timeout, "%s: %v", b.name, ctxErr)
		}
		return nil, newBackendError(Unavailable, "%s: request failed: %v", b.name, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, newBackendError(Unavailable, "%s: read response: %v", b.name, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, newBackendError(RateLimited, "%s: rate limited", b.name)
	}
	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return nil, newBackendError(Unavailable, "%s: API error (status %d): %s", b.name, httpResp.StatusCode, string(body))
	}

	var parsed replicateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, newBackendError(Malformed, "%s: parse response: %v", b.name, err)
	}
	return &parsed, nil
}

// Health performs a lightweight reachability probe against Replicate.
func (b *ReplicateBackend) Health(ctx context.Context) (bool, int64) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.replicate.com/v1/account", nil)
	if err != nil {
		return false, 0
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiToken)

	resp, err := b.httpClient.Do(httpReq)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return false, latency
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500, latency
}

// extractJSON strips a markdown code fence if the model wrapped its JSON
// output in one, grounded on this package's own extractJSON helper.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 3 && strings.HasPrefix(s, "```") {
		start := strings.IndexByte(s, '\n')
		if start == -1 {
			return s
		}
		start++
		rest := s[start:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return s
}

func parseSpecJSON(raw string) (*domain.AnimationSpec, error) {
	cleaned := extractJSON(raw)
	var spec domain.AnimationSpec
	if err := json.Unmarshal([]byte(cleaned), &spec); err != nil {
		tail := cleaned
		if len(tail) > 200 {
			tail = tail[:200]
		}
		return nil, fmt.Errorf("unmarshal spec: %w (JSON: %s)", err, tail)
	}
	return &spec, nil
}
