package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Migrate creates the call_analyses table if needed.
func (r *AnalysisRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS call_analyses (
  id          VARCHAR(36)  NOT NULL PRIMARY KEY,
  transcript  LONGTEXT     NOT NULL,
  summary     TEXT         NOT NULL,
  sentiment   TEXT         NOT NULL,
  analyzed_at VARCHAR(32)  NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_call_analyses_created (created_at)
) CHARACTER SET utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts an analysis record, assigning an ID when missing
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO call_analyses
  (id, transcript, summary, sentiment, analyzed_at, created_at)
VALUES (?,?,?,?,?,?);
`
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	createdAt, err := domain.ParseTimestamp(a.AnalyzedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q, a.ID, a.Transcript, a.Summary, a.Sentiment, a.AnalyzedAt, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, transcript, summary, sentiment, analyzed_at
FROM call_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var a domain.Record
		if err := rows.Scan(&a.ID, &a.Transcript, &a.Summary, &a.Sentiment, &a.AnalyzedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
