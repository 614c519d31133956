package vectorstore

import (
	"context"
	"fmt"

	"quizforge/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex implements the domain.VectorIndex interface over a
// Postgres chunks table with a pgvector embedding column. The index is
// partitioned per user; every query is scoped to a user id and a set of
// enabled file ids.
type PgvectorIndex struct {
	db *sqlx.DB
}

// NewPgvectorIndex creates a new instance of PgvectorIndex.
func NewPgvectorIndex(db *sqlx.DB) domain.VectorIndex {
	return &PgvectorIndex{db: db}
}

type chunkRow struct {
	ID      string  `db:"id"`
	Content string  `db:"content"`
	FileID  string  `db:"file_id"`
	Score   float64 `db:"score"`
}

// Search returns up to topK chunks ranked by cosine similarity to the
// query embedding, restricted to the user's given files.
func (x *PgvectorIndex) Search(ctx context.Context, embedding []float32, topK int, fileIDs []string, userID string) ([]domain.RetrievedChunk, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	query := `SELECT
		id,
		content,
		file_id,
		1 - (embedding <=> $1) AS score
	FROM chunks
	WHERE user_id = $2
	  AND file_id = ANY($3)
	ORDER BY embedding <=> $1
	LIMIT $4`

	var rows []chunkRow
	vec := pgvector.NewVector(embedding)
	if err := x.db.SelectContext(ctx, &rows, query, vec, userID, fileIDs, topK); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return toRetrievedChunks(rows), nil
}

// RandomSample returns up to count unranked chunks across the user's
// given files.
func (x *PgvectorIndex) RandomSample(ctx context.Context, fileIDs []string, count int, userID string) ([]domain.RetrievedChunk, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	query := `SELECT
		id,
		content,
		file_id,
		0 AS score
	FROM chunks
	WHERE user_id = $1
	  AND file_id = ANY($2)
	ORDER BY random()
	LIMIT $3`

	var rows []chunkRow
	if err := x.db.SelectContext(ctx, &rows, query, userID, fileIDs, count); err != nil {
		return nil, fmt.Errorf("random chunk sample failed: %w", err)
	}
	return toRetrievedChunks(rows), nil
}

func toRetrievedChunks(rows []chunkRow) []domain.RetrievedChunk {
	chunks := make([]domain.RetrievedChunk, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, domain.RetrievedChunk{
			ID:     r.ID,
			Text:   r.Content,
			FileID: r.FileID,
			Score:  r.Score,
		})
	}
	return chunks
}
