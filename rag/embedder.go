package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/words"
	"github.com/philippgille/chromem-go"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder computes embeddings with an OpenAI compatible API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL uses the OpenAI default.
func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model}
}

// Embed returns the embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contains no data")
	}
	return resp.Data[0].Embedding, nil
}

// Func adapts the embedder to chromem.
func (e *OpenAIEmbedder) Func() chromem.EmbeddingFunc {
	return e.Embed
}

// DefaultHashDimensions is the vector size of a zero HashEmbedder.
const DefaultHashDimensions = 256

// HashEmbedder builds a normalised bag-of-words vector by hashing every
// lower-cased word into one of Dimensions buckets. It needs no network and
// is deterministic.
type HashEmbedder struct {
	Dimensions int
}

// Embed returns the embedding of text. Text without words maps to the first unit vector.
func (h HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dims := h.Dimensions
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	vec := make([]float32, dims)

	for _, seg := range words.SegmentAll([]byte(text)) {
		w := strings.ToLower(string(seg))
		if !strings.ContainsFunc(w, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
			continue
		}
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(w))
		vec[hasher.Sum32()%uint32(dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Func adapts the embedder to chromem.
func (h HashEmbedder) Func() chromem.EmbeddingFunc {
	return h.Embed
}
