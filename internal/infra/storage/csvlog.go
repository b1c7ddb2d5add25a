package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
)

// DefaultCSVPath is relative to the working directory.
const DefaultCSVPath = "call_analysis.csv"

var csvHeader = []string{"Transcript", "Summary", "Sentiment", "AnalyzedAt"}

// CSVStore is the append-only analysis log. It holds no file handle between calls.
type CSVStore struct {
	path string
	now  func() time.Time
}

func NewCSVStore(path string) *CSVStore {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVStore{path: path, now: time.Now}
}

// WithClock swaps the time source, mostly for tests.
func (s *CSVStore) WithClock(now func() time.Time) *CSVStore {
	s.now = now
	return s
}

// Path returns the log file location.
func (s *CSVStore) Path() string { return s.path }

// Append writes one row and returns the AnalyzedAt value it stored.
// The header is written only when the file did not exist before this call.
func (s *CSVStore) Append(ctx context.Context, e analysis.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", analysis.ErrPersistence, err)
	}
	analyzedAt := analysis.FormatTimestamp(s.now())

	exists := true
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: stat %s: %v", analysis.ErrPersistence, s.path, err)
		}
		exists = false
	}

	// encode first so header and row go out in a single append-mode write
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if !exists {
		_ = w.Write(csvHeader)
	}
	_ = w.Write([]string{e.Transcript, e.Summary, e.Sentiment, analyzedAt})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: encode row: %v", analysis.ErrPersistence, err)
	}

	if err := appendFile(s.path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: %v", analysis.ErrPersistence, err)
	}
	return analyzedAt, nil
}

func appendFile(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// List returns up to limit records after skipping offset data rows, newest first.
// A missing file yields an empty list.
func (s *CSVStore) List(ctx context.Context, offset, limit int) ([]*analysis.Record, error) {
	if limit <= 0 {
		return []*analysis.Record{}, nil
	}
	if offset < 0 {
		offset = 0
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*analysis.Record{}, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	var all []*analysis.Record
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if first {
			first = false
			if row[0] == csvHeader[0] && row[3] == csvHeader[3] {
				continue
			}
		}
		all = append(all, &analysis.Record{
			Transcript: row[0],
			Summary:    row[1],
			Sentiment:  row[2],
			AnalyzedAt: row[3],
		})
	}

	out := make([]*analysis.Record, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Paginate adapts List to 1-based pages.
func (s *CSVStore) Paginate(ctx context.Context, page, pageSize int) ([]*analysis.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.List(ctx, (page-1)*pageSize, pageSize)
}

// Check verifies the directory holding the log is present.
func (s *CSVStore) Check(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
