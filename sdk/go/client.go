// Package synapse provides the Go SDK for the hybrid semantic store.
package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the synapse hybrid store HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ClientConfig configures the synapse client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
}

// NewClient creates a new synapse client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		baseURL: config.BaseURL,
		token:   config.AuthToken,
	}
}

// SetToken sets the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// GetToken returns the current bearer token.
func (c *Client) GetToken() string {
	return c.token
}

// Ingest ingests a batch of triples into a namespace.
func (c *Client) Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	var resp IngestResponse
	if err := c.post(ctx, "/v1/ingest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a vector-only similarity search.
func (c *Client) Search(ctx context.Context, req *SearchRequest) ([]SearchResult, error) {
	var resp []SearchResult
	if err := c.post(ctx, "/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// HybridSearch runs a vector search fanned into graph expansion.
func (c *Client) HybridSearch(ctx context.Context, req *HybridSearchRequest) ([]ScoredURI, error) {
	var resp []ScoredURI
	if err := c.post(ctx, "/v1/hybrid-search", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Neighbors runs a breadth-first graph traversal from a uri.
func (c *Client) Neighbors(ctx context.Context, req *NeighborsRequest) ([]Neighbor, error) {
	var resp []Neighbor
	if err := c.post(ctx, "/v1/neighbors", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SPARQL runs a SPARQL query against a namespace and returns the raw JSON result.
func (c *Client) SPARQL(ctx context.Context, req *SPARQLRequest) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.post(ctx, "/v1/sparql", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Reason applies RDFS/OWL-RL inference over a namespace.
func (c *Client) Reason(ctx context.Context, req *ReasonRequest) (*ReasonResponse, error) {
	var resp ReasonResponse
	if err := c.post(ctx, "/v1/reason", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteNamespace deletes a namespace and all of its stored data.
func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	return c.delete(ctx, "/v1/namespaces/"+namespace)
}

// post makes a POST request.
func (c *Client) post(ctx context.Context, path string, body, resp interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		data, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(data))
	}

	if resp != nil {
		return json.NewDecoder(httpResp.Body).Decode(resp)
	}

	return nil
}

// delete makes a DELETE request with no body.
func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		data, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(data))
	}

	return nil
}
