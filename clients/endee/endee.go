// Package endee is an HTTP client for the Endee vector database. Endee
// serves search and stats responses as MessagePack with a JSON fallback;
// all other endpoints speak JSON.
package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/supportstack/triage/internal/retry"
)

// spaceTypes maps common metric names to Endee's space-type terminology.
var spaceTypes = map[string]string{
	"cosine":      "cosine",
	"euclidean":   "l2",
	"dot":         "ip",
	"dot_product": "ip",
}

// Client talks to one Endee server. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	BaseURL     string
	AuthToken   string
	HTTPClient  *http.Client
	RetryConfig retry.Config

	logger zerolog.Logger
}

// NewClient creates a client for the Endee server at baseURL. authToken may
// be empty when the server runs without authentication.
func NewClient(baseURL, authToken string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AuthToken:   authToken,
		HTTPClient:  http.DefaultClient,
		RetryConfig: retry.DefaultConfig(),
		logger:      logger,
	}
}

// CreateIndex creates a vector index. metric is one of cosine, euclidean,
// dot, or dot_product; unknown metrics fall back to cosine.
func (c *Client) CreateIndex(ctx context.Context, indexName string, dimension int, metric string) error {
	spaceType, ok := spaceTypes[metric]
	if !ok {
		spaceType = "cosine"
	}

	payload := createIndexRequest{
		IndexName: indexName,
		Dim:       dimension,
		SpaceType: spaceType,
	}

	_, err := c.do(ctx, http.MethodPost, "/api/v1/index/create", payload)
	if err != nil {
		return fmt.Errorf("failed to create index %q: %w", indexName, err)
	}
	return nil
}

// DeleteIndex removes an index and all its vectors.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/index/"+indexName, nil)
	if err != nil {
		return fmt.Errorf("failed to delete index %q: %w", indexName, err)
	}
	return nil
}

// InsertVectors inserts vectors into an index. The payload is the bare
// array, not an envelope.
func (c *Client) InsertVectors(ctx context.Context, indexName string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	_, err := c.do(ctx, http.MethodPost, "/api/v1/index/"+indexName+"/vector/insert", vectors)
	if err != nil {
		return fmt.Errorf("failed to insert %d vectors into %q: %w", len(vectors), indexName, err)
	}
	return nil
}

// Search returns up to topK nearest neighbors for the query vector, ordered
// most similar first.
func (c *Client) Search(ctx context.Context, indexName string, vector []float32, topK int) ([]SearchResult, error) {
	payload := searchRequest{Vector: vector, K: topK}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/index/"+indexName+"/search", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to search index %q: %w", indexName, err)
	}

	if isMsgpack(resp.contentType) {
		var results []SearchResult
		if err := msgpack.Unmarshal(resp.body, &results); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack search response: %w", err)
		}
		return results, nil
	}

	var envelope searchResponse
	if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}
	}
	return envelope.Results, nil
}

// ListIndexes returns the names of all indexes on the server.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/index/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}

	var envelope listIndexesResponse
	if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode index list: %w", err)
		}
	}
	return envelope.Indexes, nil
}

// IndexStats returns statistics for an index.
func (c *Client) IndexStats(ctx context.Context, indexName string) (*IndexStats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/index/"+indexName+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %q: %w", indexName, err)
	}

	var stats IndexStats
	if isMsgpack(resp.contentType) {
		if err := msgpack.Unmarshal(resp.body, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack stats: %w", err)
		}
	} else if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
	}
	return &stats, nil
}

// response is the raw outcome of a successful request.
type response struct {
	body        []byte
	contentType string
}

// do executes one request with the configured retry policy. Requests retry
// on network errors, 5xx, and 429.
func (c *Client) do(ctx context.Context, method, endpoint string, requestBody any) (*response, error) {
	opts := retry.Options{
		Config:       c.RetryConfig,
		ErrorChecker: isRetryableError,
		Logger: func(message string, args ...any) {
			c.logger.Debug().Msgf(message, args...)
		},
		APIName: "endee " + endpoint,
	}

	result, err := retry.Execute(ctx, opts, func(attempt int) (any, int, []byte, error) {
		var bodyReader io.Reader
		if requestBody != nil {
			encoded, err := json.Marshal(requestBody)
			if err != nil {
				return nil, 0, nil, fmt.Errorf("failed to marshal request: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, bodyReader)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to create HTTP request: %w", err)
		}
		if requestBody != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if c.AuthToken != "" {
			httpReq.Header.Set("Authorization", c.AuthToken)
		}

		httpResp, err := c.HTTPClient.Do(httpReq)
		if err != nil {
			return nil, 0, nil, err
		}
		defer httpResp.Body.Close()

		bodyBytes, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, httpResp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, httpResp.StatusCode, bodyBytes, &APIError{
				StatusCode: httpResp.StatusCode,
				Endpoint:   endpoint,
				Body:       string(bodyBytes),
			}
		}

		return &response{
			body:        bodyBytes,
			contentType: httpResp.Header.Get("Content-Type"),
		}, httpResp.StatusCode, bodyBytes, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*response), nil
}

// isRetryableError retries network failures, server errors, and rate limits.
func isRetryableError(err error, statusCode int, responseBody []byte) bool {
	if err != nil && statusCode == 0 {
		return true
	}
	if statusCode >= 500 {
		return true
	}
	return statusCode == http.StatusTooManyRequests
}

func isMsgpack(contentType string) bool {
	return strings.Contains(contentType, "msgpack")
}
