// Package embedding selects and drives the text-to-vector embedder used by
// hybridstore.Ingest and hybridstore.HybridSearch.
package embedding

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Embedder converts text into a fixed-dimension vector suitable for
// insertion into internal/vectorindex.
type Embedder interface {
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
	Dim() int
	Close() error
}

// Config selects and parameterizes an embedding provider.
type Config struct {
	Provider string // "mock", "local", or "remote"
	Dim      int    // embedding dimension, default 384

	// remote provider settings
	APIURL   string
	Model    string
	APIKey   string

	// local provider settings
	TokenizerDir string
}

// ConfigFromEnv reads EMBEDDING_PROVIDER, VECTOR_DIMENSIONS,
// EMBEDDING_API_URL, EMBEDDING_MODEL, EMBEDDING_API_KEY and
// EMBEDDING_TOKENIZER_DIR.
func ConfigFromEnv() Config {
	cfg := Config{
		Provider:     getEnv("EMBEDDING_PROVIDER", "local"),
		Dim:          384,
		APIURL:       os.Getenv("EMBEDDING_API_URL"),
		Model:        getEnv("EMBEDDING_MODEL", "default"),
		APIKey:       os.Getenv("EMBEDDING_API_KEY"),
		TokenizerDir: os.Getenv("EMBEDDING_TOKENIZER_DIR"),
	}
	if n, err := strconv.Atoi(os.Getenv("VECTOR_DIMENSIONS")); err == nil && n > 0 {
		cfg.Dim = n
	}
	if os.Getenv("MOCK_EMBEDDINGS") == "true" {
		cfg.Provider = "mock"
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// New constructs an Embedder from cfg.
func New(cfg Config, logger *zap.Logger) (Embedder, error) {
	if cfg.Dim == 0 {
		cfg.Dim = 384
	}

	switch cfg.Provider {
	case "mock":
		return NewMockEmbedder(cfg.Dim), nil
	case "remote":
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("embedding: remote provider requires EMBEDDING_API_URL")
		}
		return NewRemoteEmbedder(cfg.APIURL, cfg.Model, cfg.APIKey, cfg.Dim, logger), nil
	case "local", "":
		return NewLocalEmbedder(cfg.TokenizerDir, cfg.Dim, logger), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Provider)
	}
}

// CosineSimilarity computes the cosine similarity between two vectors of
// equal length, returning 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

func normalizeVector(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
