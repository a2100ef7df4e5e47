package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/nexthydra/internal/config"
	"github.com/dgallion1/nexthydra/internal/fetch"
	"github.com/dgallion1/nexthydra/internal/pipeline"
)

const testKey = "secret"

const shopHTML = `<html><head><title>Shop</title></head><body>
<script>self.__next_f.push([1,"{\"products\":[{\"name\":\"Lamp\",\"price\":30}]}"])</script>
<script>self.__next_f.push([2,"{\"broken\": "])</script>
</body></html>`

type stubFetcher struct {
	body string
}

func (f stubFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	return &fetch.Page{
		URL:        url,
		FinalURL:   url,
		StatusCode: http.StatusOK,
		Body:       []byte(f.body),
		FetchedAt:  time.Now(),
	}, nil
}

func testConfig() config.Config {
	return config.Config{
		APIKey:          testKey,
		WorkerCount:     1,
		MaxQueueSize:    4,
		MaxUploadBytes:  1 << 20,
		JobTTL:          time.Hour,
		ParseWorkers:    2,
		MaxNestingDepth: 64,
		DefaultKeyDepth: 3,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, stubFetcher{body: shopHTML}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg), orch
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "ok" {
		t.Errorf("expected status ok, got %v", got)
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testKey, http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestExtract_RawBody(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPost, "/api/extract", strings.NewReader(shopHTML), "text/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)

	records, ok := out["records"].([]any)
	if !ok || len(records) != 2 {
		t.Fatalf("expected 2 records, got %v", out["records"])
	}
	second := records[1].(map[string]any)
	if second["chunk_id"] != "error" {
		t.Errorf("expected error marker on broken chunk, got %v", second["chunk_id"])
	}

	summary := out["summary"].(map[string]any)
	if summary["error_chunks"] != float64(1) {
		t.Errorf("expected 1 error chunk, got %v", summary["error_chunks"])
	}
	pg := out["page"].(map[string]any)
	if pg["title"] != "Shop" {
		t.Errorf("expected page title Shop, got %v", pg["title"])
	}
}

func TestExtract_Multipart(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../../shop.html")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(shopHTML))
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/extract?scripts_only=true", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := decode(t, rec)["summary"].(map[string]any)
	if summary["chunks"] != float64(2) {
		t.Errorf("expected 2 chunks, got %v", summary["chunks"])
	}
}

func TestExtract_Limits(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	s, _ := newTestServer(t, cfg)

	rec := do(t, s, http.MethodPost, "/api/extract", strings.NewReader(shopHTML), "text/html")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/extract", strings.NewReader(""), "text/html")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", rec.Code)
	}
}

func TestCreateJob_Validation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	tests := []struct {
		name string
		body string
	}{
		{"not json", "url=x"},
		{"missing url", `{}`},
		{"relative", `{"url":"/shop"}`},
		{"bad scheme", `{"url":"ftp://example.com/"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/jobs", strings.NewReader(tt.body), "application/json")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/jobs", strings.NewReader(`{"url":"https://shop.example/"}`), "application/json")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)
	id, _ := created["job_id"].(string)
	if id == "" {
		t.Fatal("missing job_id")
	}
	if created["poll_url"] != "/api/jobs/"+id {
		t.Errorf("unexpected poll_url %v", created["poll_url"])
	}

	deadline := time.Now().Add(5 * time.Second)
	var status any
	for time.Now().Before(deadline) {
		status = decode(t, do(t, s, http.MethodGet, "/api/jobs/"+id, nil, ""))["status"]
		if status == string(pipeline.StatusPartial) || status == string(pipeline.StatusCompleted) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != string(pipeline.StatusPartial) {
		t.Fatalf("expected partial status, got %v", status)
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/records", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("records: expected 200, got %d", rec.Code)
	}
	if records := decode(t, rec)["records"].([]any); len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/search?pattern=NAME", nil, "")
	out := decode(t, rec)
	if out["count"] != float64(1) {
		t.Fatalf("expected 1 match, got %v", out["count"])
	}
	match := out["matches"].([]any)[0].(map[string]any)
	if want := "chunk_1.items[0].products[0].name"; match["path"] != want {
		t.Errorf("expected path %q, got %v", want, match["path"])
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/search?pattern=NAME&case_sensitive=true", nil, "")
	if out := decode(t, rec); out["count"] != float64(0) {
		t.Errorf("expected no case-sensitive matches, got %v", out["count"])
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/keys?max_depth=1", nil, "")
	keys := decode(t, rec)["keys"].(map[string]any)
	if keys["products"] != float64(1) || keys["name"] != nil {
		t.Errorf("unexpected keys at depth 1: %v", keys)
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/keys?max_depth=-1", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative depth, got %d", rec.Code)
	}
}

func TestJob_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	for _, path := range []string{"/api/jobs/nope", "/api/jobs/nope/records", "/api/jobs/nope/keys"} {
		if rec := do(t, s, http.MethodGet, path, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/extract", strings.NewReader(shopHTML), "text/html")

	out := decode(t, do(t, s, http.MethodGet, "/api/stats", nil, ""))
	parse := out["parse"].(map[string]any)
	if parse["count"] != float64(1) {
		t.Errorf("expected 1 parse sample, got %v", parse["count"])
	}
	if _, ok := out["queue_depth"]; !ok {
		t.Error("missing queue_depth")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"page.html", "page.html"},
		{"../../etc/passwd", "passwd"},
		{`a\..\b.html`, "a___b.html"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuth_MissingHeaderChallenge(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
		t.Errorf("expected Bearer challenge, got %q", got)
	}
	if got := decode(t, rec)["error"]; got != "missing authorization" {
		t.Errorf("unexpected error body %v", got)
	}
}
