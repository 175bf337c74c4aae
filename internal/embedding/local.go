package embedding

import (
	"strings"

	"go.uber.org/zap"
)

// LocalEmbedder produces deterministic, hash-based text embeddings without
// any external service call. The same text always yields the same vector,
// which is what ingest-time dedup and cache-lookup scenarios need; it is
// not a learned semantic embedding.
type LocalEmbedder struct {
	tokenizer *SimpleTokenizer
	logger    *zap.Logger
	dim       int
}

// NewLocalEmbedder creates a local embedder. tokenizerDir may be empty, in
// which case a minimal fallback tokenizer is used.
func NewLocalEmbedder(tokenizerDir string, dim int, logger *zap.Logger) *LocalEmbedder {
	var tok *SimpleTokenizer
	if tokenizerDir != "" {
		var err error
		tok, err = NewSimpleTokenizer(tokenizerDir)
		if err != nil {
			logger.Info("local embedder: falling back to builtin tokenizer", zap.Error(err))
			tok = NewFallbackTokenizer()
		}
	} else {
		tok = NewFallbackTokenizer()
	}

	return &LocalEmbedder{
		tokenizer: tok,
		logger:    logger.Named("embedding.local"),
		dim:       dim,
	}
}

func (e *LocalEmbedder) Embed(text string) ([]float32, error) {
	return e.hashEmbed(text), nil
}

func (e *LocalEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.hashEmbed(t)
	}
	return out, nil
}

func (e *LocalEmbedder) Dim() int { return e.dim }

func (e *LocalEmbedder) Close() error { return nil }

// hashEmbed distributes token hash values and position-sensitive character
// features across the embedding dimensions, then L2-normalizes.
func (e *LocalEmbedder) hashEmbed(text string) []float32 {
	vec := make([]float32, e.dim)

	text = strings.ToLower(strings.TrimSpace(text))
	tokens := e.tokenizer.Tokenize(text)

	for i, token := range tokens {
		for j := 0; j < 3 && j < e.dim; j++ {
			idx := (token + i*31 + j*17) % e.dim
			if idx < 0 {
				idx = -idx
			}
			vec[idx] += float32(token%256) / 256.0
		}
	}

	for i, char := range text {
		idx := (int(char)*7 + i*11) % e.dim
		if idx < 0 {
			idx = -idx
		}
		vec[idx] += float32(char) / 512.0
	}

	return normalizeVector(vec)
}
