package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"testbrain/internal/infrastructure/metrics"
)

// HFEngine calls a Hugging Face feature-extraction endpoint such as BAAI/bge-m3.
type HFEngine struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewHFEngine(endpoint, model, apiKey string) *HFEngine {
	if endpoint == "" {
		endpoint = DefaultConfig().Endpoint
	}
	if model == "" {
		model = "bge-m3"
	}
	return &HFEngine{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type hfRequest struct {
	Inputs []string `json:"inputs"`
}

func (e *HFEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return vectors[0], nil
}

// EmbedBatch sends all texts in one request; the response is one vector per input.
func (e *HFEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	metrics.IncEmbedding(e.Name())

	body, err := json.Marshal(hfRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.IncError("embedding", "http_do")
		return nil, fmt.Errorf("hf request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.IncError("embedding", fmt.Sprintf("hf_status_%d", resp.StatusCode))
		return nil, fmt.Errorf("hf returned status %d: %s", resp.StatusCode, string(b))
	}

	var out [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.IncError("embedding", "decode_response")
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("hf returned %d embeddings for %d inputs", len(out), len(texts))
	}
	return out, nil
}

func (e *HFEngine) Name() string {
	return "hf:" + e.model
}
