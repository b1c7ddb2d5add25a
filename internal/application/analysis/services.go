package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bryanwahyu/call-analyzer/internal/application"
	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
)

// Service runs the transcript → completion → interpretation → log pipeline.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	Completer domain.Completer
	Log       domain.LogStore
	History   domain.Repository // optional mirror
	Archiver  domain.Archiver   // optional
	Clock     application.Clock
}

// Output is one analyzed transcript plus how the reply was read.
type Output struct {
	domain.Record
	Outcome domain.Outcome
	Raw     string
}

// Analyze validates the transcript, calls the model once and persists the result.
// A blank transcript fails with ErrInvalidTranscript before any network call.
func (s *Service) Analyze(ctx context.Context, transcript string) (Output, error) {
	if strings.TrimSpace(transcript) == "" {
		return Output{}, domain.ErrInvalidTranscript
	}
	start := s.now()

	raw, err := s.Completer.Complete(ctx, transcript)
	if err != nil {
		return Output{}, err
	}

	res := domain.Interpret(raw)
	if res.Degraded() {
		slog.Warn("model reply was not the expected JSON object, using degraded record",
			"raw_len", len(raw))
	}

	analyzedAt, err := s.Log.Append(ctx, domain.Entry{
		Transcript: transcript,
		Summary:    res.Summary,
		Sentiment:  res.Sentiment,
	})
	if err != nil {
		return Output{}, err
	}

	out := Output{
		Record: domain.Record{
			Transcript: transcript,
			Summary:    res.Summary,
			Sentiment:  res.Sentiment,
			AnalyzedAt: analyzedAt,
		},
		Outcome: res.Outcome,
		Raw:     raw,
	}

	// CSV is canonical; the mirror is best effort
	if s.History != nil {
		rec := out.Record
		if err := s.History.Save(ctx, &rec); err != nil {
			slog.Warn("history mirror write failed", "error", err)
		} else {
			out.ID = rec.ID
		}
	}

	slog.Info("transcript analyzed",
		"outcome", res.Outcome,
		"sentiment", res.Sentiment,
		"analyzed_at", analyzedAt,
		"duration_ms", s.now().Sub(start).Milliseconds())
	return out, nil
}

type pager interface {
	Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error)
}

// ListAnalyses reads history newest first: the SQL mirror when present, else the log itself.
func (s *Service) ListAnalyses(ctx context.Context, page, pageSize int) (domain.Page, error) {
	var src pager
	if s.History != nil {
		src = s.History
	} else if p, ok := s.Log.(pager); ok {
		src = p
	} else {
		return domain.Page{}, fmt.Errorf("history %w", domain.ErrNotConfigured)
	}

	list, err := src.Paginate(ctx, page, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return domain.Page{Data: list, Page: page, PageSize: pageSize}, nil
}

type pathed interface {
	Path() string
}

// ArchiveLog uploads the current log file and returns its remote URL.
func (s *Service) ArchiveLog(ctx context.Context) (string, error) {
	if s.Archiver == nil {
		return "", fmt.Errorf("archive %w", domain.ErrNotConfigured)
	}
	p, ok := s.Log.(pathed)
	if !ok {
		return "", fmt.Errorf("archive %w: log store has no local file", domain.ErrNotConfigured)
	}
	return s.Archiver.Archive(ctx, p.Path())
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}
