package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/call-analyzer/internal/application/analysis"
	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/call-analyzer/internal/middleware"
)

const maxBodyBytes = 5 << 20

// Options are the router's non-service collaborators.
type Options struct {
	// CSVFile is shown on the result page.
	CSVFile        string
	AllowedOrigins []string
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	svc     *appanalysis.Service
	csvFile string
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	r := &Router{svc: svc, csvFile: opts.CSVFile}
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.LoggingMiddleware, middleware.MetricsMiddleware)

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.handleIndex)
	mux.Post("/analyze", r.wrapText(r.handleAnalyzeForm))

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
		rt.Post("/analyze", r.wrapJSON(r.handleAPIAnalyze))
		rt.Get("/analyses", r.wrapJSON(r.handleAnalysesList))
		rt.Post("/log/archive", r.wrapJSON(r.handleArchive))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTranscript):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// wrapText answers failures as plain text, for the HTML form flow.
func (r *Router) wrapText(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		var msg string
		switch {
		case status == http.StatusBadRequest:
			msg = "Please provide a 'transcript' (form or JSON)"
		case errors.Is(err, domain.ErrPersistence):
			msg = fmt.Sprintf("Error saving analysis: %v", err)
		default:
			msg = fmt.Sprintf("Error calling completion API: %v", err)
		}
		http.Error(w, msg, status)
	}
}

// wrapJSON answers failures as {"error": "..."}.
func (r *Router) wrapJSON(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusBadRequest {
			msg = "send JSON with key 'transcript'"
		}
		writeJSON(w, status, map[string]string{"error": msg})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (r *Router) render(w http.ResponseWriter, view indexView) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	if err := r.render(w, indexView{CSVFile: r.csvFile}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// POST /analyze
// Body: form field "transcript", or JSON {"transcript": "..."}
func (r *Router) handleAnalyzeForm(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	transcript, ok := transcriptFromRequest(req)
	if !ok || !middleware.HasTranscript(transcript) {
		return domain.ErrInvalidTranscript
	}

	out, err := r.analyze(req, transcript)
	if err != nil {
		return err
	}

	return r.render(w, indexView{
		CSVFile: r.csvFile,
		Result: &pageResult{
			Transcript: out.Transcript,
			Summary:    out.Summary,
			Sentiment:  out.Sentiment,
			AnalyzedAt: out.AnalyzedAt,
		},
	})
}

// transcriptFromRequest prefers a form field and falls back to a JSON body.
func transcriptFromRequest(req *http.Request) (string, bool) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if isJSONMediaType(mediaType) {
		var body struct {
			Transcript *string `json:"transcript"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Transcript == nil {
			return "", false
		}
		return *body.Transcript, true
	}

	// also parses urlencoded bodies; ErrNotMultipart is expected there
	_ = req.ParseMultipartForm(maxBodyBytes)
	if vals, ok := req.PostForm["transcript"]; ok && len(vals) > 0 {
		return vals[0], true
	}
	return "", false
}

func isJSONMediaType(mt string) bool {
	return mt == "application/json" || (len(mt) > 5 && mt[len(mt)-5:] == "+json")
}

type analyzeResponse struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
	AnalyzedAt string `json:"analyzed_at"`
}

// POST /api/analyze
// Body: {"transcript": "..."}; parsed as JSON whatever the Content-Type says.
func (r *Router) handleAPIAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	var body struct {
		Transcript *string `json:"transcript"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Transcript == nil {
		return domain.ErrInvalidTranscript
	}
	if !middleware.HasTranscript(*body.Transcript) {
		return domain.ErrInvalidTranscript
	}

	out, err := r.analyze(req, *body.Transcript)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, analyzeResponse{
		Transcript: out.Transcript,
		Summary:    out.Summary,
		Sentiment:  out.Sentiment,
		AnalyzedAt: out.AnalyzedAt,
	})
}

func (r *Router) analyze(req *http.Request, transcript string) (appanalysis.Output, error) {
	out, err := r.svc.Analyze(req.Context(), transcript)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return out, err
	}
	middleware.IncrementAnalyses(out.Outcome == domain.OutcomeDegraded)
	return out, nil
}

// GET /api/analyses?page=&page_size=
func (r *Router) handleAnalysesList(w http.ResponseWriter, req *http.Request) error {
	page := middleware.ValidatePage(req.URL.Query().Get("page"))
	size := middleware.ValidatePageSize(req.URL.Query().Get("page_size"))

	list, err := r.svc.ListAnalyses(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /api/log/archive
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	url, err := r.svc.ArchiveLog(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
