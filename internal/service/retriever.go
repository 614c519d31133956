package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// ChunkRetriever fetches candidate content chunks from the vector index.
// It runs once, synchronously, before any fan-out: the distributor has a
// hard dependency on its output.
type ChunkRetriever struct {
	files    domain.SourceFileRepository
	index    domain.VectorIndex
	embedder domain.EmbeddingService
	epsilon  float64
	maxTopK  int
	logger   *zap.Logger
}

// NewChunkRetriever creates a new ChunkRetriever.
func NewChunkRetriever(
	files domain.SourceFileRepository,
	index domain.VectorIndex,
	embedder domain.EmbeddingService,
	epsilon float64,
	maxTopK int,
	logger *zap.Logger,
) *ChunkRetriever {
	if maxTopK <= 0 {
		maxTopK = 100
	}
	return &ChunkRetriever{
		files:    files,
		index:    index,
		embedder: embedder,
		epsilon:  epsilon,
		maxTopK:  maxTopK,
		logger:   logger,
	}
}

// Retrieve returns questionCount chunks for the user. With a focus area
// it embeds the focus text, searches the index restricted to the user's
// enabled files, applies the adaptive relevance threshold and resizes to
// the target; without one it random-samples directly.
func (r *ChunkRetriever) Retrieve(ctx context.Context, focusArea string, questionCount int, userID string) ([]domain.RetrievedChunk, error) {
	fileIDs, err := r.files.GetEnabledFileIDs(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list enabled files", err)
	}
	if len(fileIDs) == 0 {
		return nil, domain.NewNoEnabledFilesError(userID)
	}

	if focusArea == "" {
		chunks, err := r.index.RandomSample(ctx, fileIDs, questionCount, userID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to sample chunks", err)
		}
		if len(chunks) == 0 {
			return nil, domain.NewNoContentFoundError("No content found in enabled files")
		}
		return chunks, nil
	}

	embedding, err := r.embedder.Generate(ctx, focusArea)
	if err != nil {
		return nil, domain.NewInternalError("Failed to embed focus area", err)
	}

	topK := questionCount * 4
	if topK > r.maxTopK {
		topK = r.maxTopK
	}

	results, err := r.index.Search(ctx, embedding, topK, fileIDs, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to search vector index", err)
	}
	if len(results) == 0 {
		return nil, domain.NewNoContentFoundError(fmt.Sprintf("No content found for focus area %q", focusArea))
	}

	filtered := applyAdaptiveThreshold(results, r.epsilon)
	r.logger.Debug("Applied adaptive relevance threshold",
		zap.Int("candidates", len(results)),
		zap.Int("retained", len(filtered)),
		zap.Float64("epsilon", r.epsilon),
	)

	return resizeToTarget(filtered, questionCount), nil
}

// applyAdaptiveThreshold sorts chunks by descending score and keeps the
// prefix up to the largest adjacent score drop exceeding epsilon. If no
// drop exceeds epsilon, everything is kept.
func applyAdaptiveThreshold(chunks []domain.RetrievedChunk, epsilon float64) []domain.RetrievedChunk {
	if len(chunks) < 2 {
		return chunks
	}

	sorted := make([]domain.RetrievedChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	cutAfter := -1
	largestDrop := epsilon
	for i := 0; i < len(sorted)-1; i++ {
		drop := sorted[i].Score - sorted[i+1].Score
		if drop > largestDrop {
			largestDrop = drop
			cutAfter = i
		}
	}

	if cutAfter < 0 {
		return sorted
	}
	return sorted[:cutAfter+1]
}

// resizeToTarget returns exactly target chunks. A larger set is shuffled
// and truncated without replacement; a smaller one is padded by sampling
// with replacement, with every original chunk appearing at least once
// before any repeat.
func resizeToTarget(chunks []domain.RetrievedChunk, target int) []domain.RetrievedChunk {
	if len(chunks) == 0 || len(chunks) == target {
		return chunks
	}

	if len(chunks) > target {
		shuffled := make([]domain.RetrievedChunk, len(chunks))
		copy(shuffled, chunks)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled[:target]
	}

	result := make([]domain.RetrievedChunk, 0, target)
	result = append(result, chunks...)
	for len(result) < target {
		result = append(result, chunks[rand.Intn(len(chunks))])
	}
	rand.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}
