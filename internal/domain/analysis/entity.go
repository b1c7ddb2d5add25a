package analysis

import "time"

// TimestampLayout is the canonical AnalyzedAt format: UTC, microseconds, literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// SentimentUnknown marks a degraded result.
const SentimentUnknown = "unknown"

// Outcome tells which interpretation stage produced a Result.
type Outcome string

const (
	OutcomeStrict   Outcome = "strict"
	OutcomeEmbedded Outcome = "embedded"
	OutcomeDegraded Outcome = "degraded"
)

// Result is the interpreted model reply.
type Result struct {
	Summary   string  `json:"summary"`
	Sentiment string  `json:"sentiment"`
	Outcome   Outcome `json:"-"`
}

// Degraded reports whether the reply could not be read as the two-field object.
func (r Result) Degraded() bool { return r.Outcome == OutcomeDegraded }

// Entry is what the log appender persists, minus the timestamp it assigns.
type Entry struct {
	Transcript string
	Summary    string
	Sentiment  string
}

// Record is one persisted analysis.
type Record struct {
	ID         string `json:"id,omitempty"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
	AnalyzedAt string `json:"analyzed_at"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Page is a slice of history records plus paging metadata.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// ParseTimestamp reads a value produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
