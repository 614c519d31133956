package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/singleflight"
)

// OpenAIEmbeddingService implements the domain.EmbeddingService interface using OpenAI.
// Generated vectors are cached in Redis keyed by a hash of the input text;
// singleflight collapses concurrent requests for the same text.
type OpenAIEmbeddingService struct {
	embedder embeddings.Embedder
	cache    domain.Cache
	cacheTTL time.Duration
	sfGroup  singleflight.Group
}

// NewOpenAIEmbeddingService creates a new OpenAIEmbeddingService.
func NewOpenAIEmbeddingService(apiKey, modelName string, cacheAdapter domain.Cache, cacheTTL time.Duration) (*OpenAIEmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithEmbeddingModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from OpenAI LLM: %w", err)
	}

	if cacheTTL <= 0 {
		cacheTTL = 168 * time.Hour
	}

	return &OpenAIEmbeddingService{
		embedder: embedder,
		cache:    cacheAdapter,
		cacheTTL: cacheTTL,
	}, nil
}

// Generate creates an embedding for the given text using the OpenAI embedder.
func (s *OpenAIEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	cacheKey := cache.GenerateCacheKey("embedding", "openai", hashString(text))

	if s.cache != nil {
		cachedData, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			var embedding []float32
			decoder := gob.NewDecoder(bytes.NewReader([]byte(cachedData)))
			if errDecode := decoder.Decode(&embedding); errDecode == nil {
				return embedding, nil
			}
			// Undecodable entry: fall through and regenerate.
		}
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		rawEmbedding, fetchErr := s.embedder.EmbedQuery(ctx, text)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to generate embedding using OpenAI: %w", fetchErr)
		}
		if len(rawEmbedding) == 0 {
			return nil, fmt.Errorf("received empty embedding from OpenAI without error")
		}

		if s.cache != nil {
			var buffer bytes.Buffer
			if errEncode := gob.NewEncoder(&buffer).Encode(rawEmbedding); errEncode == nil {
				// Caching failures are non-fatal; the embedding is still returned.
				_ = s.cache.Set(ctx, cacheKey, buffer.String(), s.cacheTTL)
			}
		}
		return rawEmbedding, nil
	})
	if err != nil {
		return nil, err
	}

	if embedding, ok := res.([]float32); ok {
		return embedding, nil
	}
	return nil, fmt.Errorf("unexpected type from singleflight.Do for openai embedding: %T", res)
}

// hashString returns the hex SHA-256 of s, used for cache keys.
func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

var _ domain.EmbeddingService = (*OpenAIEmbeddingService)(nil)
