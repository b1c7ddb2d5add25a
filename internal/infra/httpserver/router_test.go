package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/call-analyzer/internal/application/analysis"
	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/call-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/call-analyzer/internal/infra/storage"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, transcript string) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubArchiver struct{ path string }

func (a *stubArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	a.path = localPath
	return "http://minio.test/bucket/" + filepath.Base(localPath), nil
}

func newTestServer(t *testing.T, c domain.Completer) (http.Handler, *storage.CSVStore) {
	t.Helper()
	store := storage.NewCSVStore(filepath.Join(t.TempDir(), "call_analysis.csv"))
	svc := &appanalysis.Service{Completer: c, Log: store}
	return NewRouter(svc, Options{CSVFile: store.Path()}), store
}

func do(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestIndex(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})
	rec := do(h, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), `name=transcript`)
	require.NotContains(t, rec.Body.String(), "<h3>Result</h3>")
}

func TestAnalyzeForm_RendersResult(t *testing.T) {
	c := &stubCompleter{reply: `{"summary":"Customer wants a refund.","sentiment":"negative"}`}
	h, store := newTestServer(t, c)

	form := url.Values{"transcript": {"Customer: <b>refund</b> please"}}
	rec := do(h, http.MethodPost, "/analyze", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	require.Contains(t, body, "Customer wants a refund.")
	require.Contains(t, body, "negative")
	require.Contains(t, body, "&lt;b&gt;refund&lt;/b&gt;")
	require.Contains(t, body, store.Path())
	require.Equal(t, 1, c.calls)

	list, err := store.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Customer: <b>refund</b> please", list[0].Transcript)
	require.Contains(t, body, list[0].AnalyzedAt)
}

func TestAnalyzeForm_AcceptsJSON(t *testing.T) {
	c := &stubCompleter{reply: `{"summary":"ok","sentiment":"positive"}`}
	h, _ := newTestServer(t, c)

	rec := do(h, http.MethodPost, "/analyze", "application/json", `{"transcript":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "positive")
}

func TestAnalyzeForm_BlankTranscript(t *testing.T) {
	cases := []struct {
		name, contentType, body string
	}{
		{"missing field", "application/x-www-form-urlencoded", "other=1"},
		{"whitespace", "application/x-www-form-urlencoded", "transcript=+++%0A"},
		{"json missing key", "application/json", `{"text":"hi"}`},
		{"json blank", "application/json", `{"transcript":"  "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &stubCompleter{}
			h, _ := newTestServer(t, c)
			rec := do(h, http.MethodPost, "/analyze", tc.contentType, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), "Please provide a 'transcript' (form or JSON)")
			require.Zero(t, c.calls)
		})
	}
}

func TestAnalyzeForm_UpstreamError(t *testing.T) {
	c := &stubCompleter{err: fmt.Errorf("%w: status 503", domain.ErrUpstream)}
	h, store := newTestServer(t, c)

	rec := do(h, http.MethodPost, "/analyze", "application/x-www-form-urlencoded", "transcript=hi")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error calling completion API:")

	list, err := store.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestAnalyzeForm_PersistenceError(t *testing.T) {
	c := &stubCompleter{reply: `{"summary":"s","sentiment":"neutral"}`}
	store := storage.NewCSVStore(t.TempDir()) // a directory cannot be appended to
	h := NewRouter(&appanalysis.Service{Completer: c, Log: store}, Options{})

	rec := do(h, http.MethodPost, "/analyze", "application/x-www-form-urlencoded", "transcript=hi")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error saving analysis:")
}

func TestAPIAnalyze_Success(t *testing.T) {
	c := &stubCompleter{reply: "Sure!\n```json\n{\"summary\":\"Billing issue resolved.\",\"sentiment\":\"positive\"}\n```"}
	h, _ := newTestServer(t, c)

	rec := do(h, http.MethodPost, "/api/analyze", "application/json", `{"transcript":"Agent: fixed it"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	m := decodeJSON(t, rec)
	require.Len(t, m, 4)
	require.Equal(t, "Agent: fixed it", m["transcript"])
	require.Equal(t, "Billing issue resolved.", m["summary"])
	require.Equal(t, "positive", m["sentiment"])
	ts, ok := m["analyzed_at"].(string)
	require.True(t, ok)
	_, err := domain.ParseTimestamp(ts)
	require.NoError(t, err)
}

func TestAPIAnalyze_DegradedReplyStillSucceeds(t *testing.T) {
	c := &stubCompleter{reply: "I could not produce JSON, sorry."}
	h, _ := newTestServer(t, c)

	rec := do(h, http.MethodPost, "/api/analyze", "", `{"transcript":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeJSON(t, rec)
	require.Equal(t, "I could not produce JSON, sorry.", m["summary"])
	require.Equal(t, domain.SentimentUnknown, m["sentiment"])
}

func TestAPIAnalyze_BadRequest(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"transcript": 42}`,
		`{"transcript": null}`,
		`{"transcript": "   "}`,
		`not json`,
		``,
	} {
		t.Run(body, func(t *testing.T) {
			c := &stubCompleter{}
			h, _ := newTestServer(t, c)
			rec := do(h, http.MethodPost, "/api/analyze", "application/json", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "send JSON with key 'transcript'", decodeJSON(t, rec)["error"])
			require.Zero(t, c.calls)
		})
	}
}

func TestAPIAnalyze_UpstreamError(t *testing.T) {
	c := &stubCompleter{err: fmt.Errorf("%w: status 401: invalid api key", domain.ErrUpstream)}
	h, _ := newTestServer(t, c)

	rec := do(h, http.MethodPost, "/api/analyze", "application/json", `{"transcript":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeJSON(t, rec)["error"].(string)
	require.Contains(t, msg, "invalid api key")
}

func TestAPIAnalyze_MissingCredential(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	client := openai.NewClient(openai.Options{BaseURL: srv.URL + "/v1"})
	h, _ := newTestServer(t, client)

	rec := do(h, http.MethodPost, "/api/analyze", "application/json", `{"transcript":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeJSON(t, rec)["error"].(string)
	require.True(t, errors.Is(client.Err(), domain.ErrConfiguration))
	require.NotEmpty(t, msg)
	require.Zero(t, hits)
}

func TestAPIAnalyses_ListsFromLog(t *testing.T) {
	c := &stubCompleter{reply: `{"summary":"s","sentiment":"neutral"}`}
	h, _ := newTestServer(t, c)
	for _, tr := range []string{"one", "two", "three"} {
		rec := do(h, http.MethodPost, "/api/analyze", "application/json", `{"transcript":"`+tr+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(h, http.MethodGet, "/api/analyses?page=1&page_size=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page domain.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.PageSize)
	require.Len(t, page.Data, 2)
	require.Equal(t, "three", page.Data[0].Transcript)
	require.Equal(t, "two", page.Data[1].Transcript)
}

func TestAPIArchive(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})
	rec := do(h, http.MethodPost, "/api/log/archive", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "archive not configured", decodeJSON(t, rec)["error"])

	store := storage.NewCSVStore(filepath.Join(t.TempDir(), "log.csv"))
	arch := &stubArchiver{}
	h = NewRouter(&appanalysis.Service{Completer: &stubCompleter{}, Log: store, Archiver: arch}, Options{})
	rec = do(h, http.MethodPost, "/api/log/archive", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://minio.test/bucket/log.csv", decodeJSON(t, rec)["url"])
	require.Equal(t, store.Path(), arch.path)
}

func TestAPI_CORSPreflight(t *testing.T) {
	store := storage.NewCSVStore(filepath.Join(t.TempDir(), "log.csv"))
	h := NewRouter(&appanalysis.Service{Completer: &stubCompleter{}, Log: store},
		Options{AllowedOrigins: []string{"http://app.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "", "").Code)
}
