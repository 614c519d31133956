package repository

import (
	"context"
	"fmt"

	"quizforge/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SourceFileDatabaseAdapter implements domain.SourceFileRepository using sqlx.DB
type SourceFileDatabaseAdapter struct {
	db *sqlx.DB
}

// NewSourceFileDatabaseAdapter creates a new instance of SourceFileDatabaseAdapter
func NewSourceFileDatabaseAdapter(db *sqlx.DB) domain.SourceFileRepository {
	return &SourceFileDatabaseAdapter{db: db}
}

// GetEnabledFileIDs returns the ids of the user's files enabled for retrieval.
func (a *SourceFileDatabaseAdapter) GetEnabledFileIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	query := `SELECT id FROM source_files WHERE user_id = $1 AND enabled = TRUE`

	if err := a.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list enabled files for user %s: %w", userID, err)
	}
	return ids, nil
}
