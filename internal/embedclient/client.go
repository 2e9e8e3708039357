// Package embedclient is an OpenAI-compatible HTTP client for a remote
// embedding endpoint (e.g. Ollama's /v1/embeddings route). Ported 1:1 in
// behavior from original_source/embeddings.py's EmbeddingClient, using
// stdlib net/http the way the teacher's own Ollama embedder does for its
// OpenAI-compatible calls.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Client embeds batches of text against a remote OpenAI-compatible
// endpoint. A failed batch returns a nil slice for each text in it rather
// than aborting the whole run — callers (the indexer's embedding pass)
// treat nil as "try again on the next pass" rather than as fatal.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
	dimensions int
	batchSize  int
	maxChars   int
	log        *slog.Logger
}

// New constructs a Client. apiURL is normalized to end in "/embeddings"
// the way the original client does, so a bare Ollama host URL works.
func New(apiURL, model string, dimensions, batchSize, maxChars int, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	apiURL = strings.TrimRight(apiURL, "/")
	if !strings.HasSuffix(apiURL, "/embeddings") {
		apiURL += "/embeddings"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
		maxChars:   maxChars,
		log:        log,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponseItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data []embedResponseItem `json:"data"`
}

// EmbedBatch sends a single request for up to batchSize texts. Returns
// nil, nil on any failure (network, non-200, malformed body) — the
// indexer's embedding pass treats that as "retry next run", not fatal.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > c.maxChars {
			t = t[:c.maxChars]
		}
		truncated[i] = t
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: truncated})
	if err != nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("embedding request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.log.Debug("embedding request returned non-200", "status", resp.StatusCode, "body", string(respBody))
		return nil, nil
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Debug("embedding response decode failed", "error", err)
		return nil, nil
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	out := make([][]float32, len(parsed.Data))
	for i, item := range parsed.Data {
		out[i] = item.Embedding
	}
	return out, nil
}

// EmbedTexts embeds all texts, batching internally at batchSize. Each
// element of the result is nil if its batch failed.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		batch, err := c.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if batch == nil {
			for range texts[start:end] {
				results = append(results, nil)
			}
			continue
		}
		results = append(results, batch...)
	}
	return results, nil
}

// EmbedOne embeds a single text, returning nil on failure.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// CheckConnection verifies the endpoint is reachable and returns vectors
// of the configured dimension.
func (c *Client) CheckConnection(ctx context.Context) (bool, string) {
	result, err := c.EmbedOne(ctx, "test")
	if err != nil || result == nil {
		return false, fmt.Sprintf("could not reach embedding API at %s", c.apiURL)
	}
	if len(result) != c.dimensions {
		return false, fmt.Sprintf(
			"dimension mismatch: got %d, expected %d. Update embeddings.dimensions or reindex with --reembed.",
			len(result), c.dimensions)
	}
	return true, fmt.Sprintf("OK (model=%s, dimensions=%d)", c.model, len(result))
}
