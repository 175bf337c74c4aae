package embedding

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/synapseos/hybridstore/internal/jsonx"
	"go.uber.org/zap"
)

// RemoteEmbedder calls an external embedding service over HTTP. Results are
// cached in memory keyed by text, bounded to avoid unbounded growth.
type RemoteEmbedder struct {
	apiURL  string
	model   string
	apiKey  string
	dim     int
	client  *http.Client
	logger  *zap.Logger
	cache   map[string][]float32
	cacheMu sync.RWMutex
}

// NewRemoteEmbedder creates a remote embedder against apiURL's /embed
// endpoint. apiKey may be empty for unauthenticated services.
func NewRemoteEmbedder(apiURL, model, apiKey string, dim int, logger *zap.Logger) *RemoteEmbedder {
	return &RemoteEmbedder{
		apiURL: apiURL,
		model:  model,
		apiKey: apiKey,
		dim:    dim,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.Named("embedding.remote"),
		cache:  make(map[string][]float32),
	}
}

type embedRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (s *RemoteEmbedder) Embed(text string) ([]float32, error) {
	s.cacheMu.RLock()
	if emb, ok := s.cache[text]; ok {
		s.cacheMu.RUnlock()
		return emb, nil
	}
	s.cacheMu.RUnlock()

	body, err := jsonx.Marshal(embedRequest{Text: text, Model: s.model})
	if err != nil {
		return nil, fmt.Errorf("embedding: encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: remote service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: remote service returned %d", resp.StatusCode)
	}

	var result embedResponse
	dec := jsonx.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}

	s.cacheMu.Lock()
	s.cache[text] = result.Embedding
	if len(s.cache) > 1000 {
		count := 0
		for k := range s.cache {
			if count > 500 {
				break
			}
			delete(s.cache, k)
			count++
		}
	}
	s.cacheMu.Unlock()

	return result.Embedding, nil
}

func (s *RemoteEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		emb, err := s.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (s *RemoteEmbedder) Dim() int { return s.dim }

func (s *RemoteEmbedder) Close() error {
	s.cacheMu.Lock()
	s.cache = make(map[string][]float32)
	s.cacheMu.Unlock()
	return nil
}
