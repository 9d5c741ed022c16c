package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/budala187/nexora-context-backend/internal/core/ports"
	"github.com/budala187/nexora-context-backend/internal/observability/metrics"
)

// Options carries the transport-level knobs of the API server.
type Options struct {
	ServiceName    string
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
}

type Router struct {
	retrievalUC ports.RetrievalService
	ingestUC    ports.DocumentIngestor
	reader      ports.DocumentReader
	metrics     *metrics.HTTPServerMetrics
	opts        Options
}

func NewRouter(
	retrievalUC ports.RetrievalService,
	ingestUC ports.DocumentIngestor,
	reader ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "api"
	}
	return &Router{
		retrievalUC: retrievalUC,
		ingestUC:    ingestUC,
		reader:      reader,
		metrics:     m,
		opts:        opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/query", rt.query)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)

	var handler http.Handler = mux
	handler = authMiddleware(handler, rt.opts.APIKey)
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	if rt.opts.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, 100*time.Millisecond)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	started := time.Now()
	answer, err := rt.retrievalUC.Answer(r.Context(), req.Query, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		outcome := "answered"
		if answer.Confidence == 0 {
			outcome = "not_found"
		}
		rt.metrics.RecordRetrieval(rt.opts.ServiceName, outcome, answer.EvidenceCount, answer.Confidence, time.Since(started))
		for _, branch := range answer.FailedBranches {
			rt.metrics.RecordBranchFailure(rt.opts.ServiceName, branch)
		}
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		r.FormValue("user_id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapDomainError(err)
	logFn := slog.Warn
	if status >= http.StatusInternalServerError {
		logFn = slog.Error
	}
	logFn("request_failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, map[string]string{"error": message})
}
