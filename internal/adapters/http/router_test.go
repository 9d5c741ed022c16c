package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

type retrievalFake struct {
	answer *domain.RefinedAnswer
	err    error

	gotQuery  string
	gotUserID string
}

func (f *retrievalFake) Answer(_ context.Context, query, userID string) (*domain.RefinedAnswer, error) {
	f.gotQuery = query
	f.gotUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type ingestFake struct {
	doc *domain.Document
	err error

	gotUserID   string
	gotFilename string
	gotMime     string
	gotBody     string
}

func (f *ingestFake) Upload(_ context.Context, userID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	f.gotUserID = userID
	f.gotFilename = filename
	f.gotMime = mimeType
	raw, _ := io.ReadAll(body)
	f.gotBody = string(raw)
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type readerFake struct {
	doc *domain.Document
	err error
}

func (f *readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func newTestHandler(retrieval *retrievalFake, ingest *ingestFake, reader *readerFake, opts Options) http.Handler {
	if retrieval == nil {
		retrieval = &retrievalFake{answer: &domain.RefinedAnswer{Content: "ok", Confidence: 70}}
	}
	if ingest == nil {
		ingest = &ingestFake{doc: &domain.Document{ID: "doc-1"}}
	}
	if reader == nil {
		reader = &readerFake{doc: &domain.Document{ID: "doc-1"}}
	}
	return NewRouter(retrieval, ingest, reader, nil, opts).Handler()
}

func TestQueryReturnsRefinedAnswer(t *testing.T) {
	retrieval := &retrievalFake{
		answer: &domain.RefinedAnswer{Content: "Ada programmed the engine.", Confidence: 85, EvidenceCount: 4},
	}
	handler := newTestHandler(retrieval, nil, nil, Options{})

	body := strings.NewReader(`{"query":"who programmed the engine?","user_id":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got domain.RefinedAnswer
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Content != "Ada programmed the engine." || got.Confidence != 85 {
		t.Errorf("unexpected answer: %+v", got)
	}
	if retrieval.gotQuery != "who programmed the engine?" || retrieval.gotUserID != "user-1" {
		t.Errorf("usecase received query=%q user=%q", retrieval.gotQuery, retrieval.gotUserID)
	}
}

func TestQueryMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "retrieve answer", fmt.Errorf("query is required")), http.StatusBadRequest},
		{"temporary outage", domain.WrapError(domain.ErrTemporary, "synthesize", fmt.Errorf("model down")), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(&retrievalFake{err: tc.err}, nil, nil, Options{})

			req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"q","user_id":"u"}`))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, res.Code, res.Body.String())
			}
		})
	}
}

func TestQueryErrorBodyHidesCollaboratorDetail(t *testing.T) {
	cause := fmt.Errorf(`ollama chat status: 503 Service Unavailable: {"error":"model runner crashed at 10.0.3.7:11434"}`)
	retrieval := &retrievalFake{err: domain.WrapError(domain.ErrTemporary, "synthesize answer", cause)}
	handler := newTestHandler(retrieval, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"q","user_id":"u"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["error"] != "service temporarily unavailable" {
		t.Errorf("expected generic outage message, got %q", got["error"])
	}
}

func TestQueryRejectsInvalidJSON(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader("{not json"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentPassesOwnerAndFile(t *testing.T) {
	ingest := &ingestFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	handler := newTestHandler(nil, ingest, nil, Options{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("user_id", "user-1")
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("turbine manual"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.gotUserID != "user-1" || ingest.gotFilename != "notes.txt" {
		t.Errorf("ingest received user=%q filename=%q", ingest.gotUserID, ingest.gotFilename)
	}
	if ingest.gotBody != "turbine manual" {
		t.Errorf("ingest received body %q", ingest.gotBody)
	}
}

func TestUploadWithoutFileIsBadRequest(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("no multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentMapsNotFound(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id missing"))}
	handler := newTestHandler(nil, nil, reader, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestAuthRequiresBearerToken(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, Options{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"q","user_id":"u"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"q","user_id":"u"}`))
	req.Header.Set("Authorization", "Bearer secret")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", res.Code)
	}
}

func TestHealthzStaysOpenWithAuthEnabled(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, Options{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("expected request id echoed, got %q", got)
	}
}
