package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
)

func TestOpenHistory_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, repo, err := OpenHistory(ctx, DriverSQLite, filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, repo.Save(ctx, &domain.Record{Transcript: "t", Summary: "s", Sentiment: "positive", AnalyzedAt: "2025-01-01T00:00:00.000000Z"}))
	got, err := repo.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestOpenHistory_UnknownDriver(t *testing.T) {
	_, _, err := OpenHistory(context.Background(), "oracle", "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported history driver")
}
