package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Patocuak64/dentalsmart-client/internal/application"
	"github.com/Patocuak64/dentalsmart-client/internal/domain"
	"github.com/Patocuak64/dentalsmart-client/internal/ports"
)

type stubBackend struct {
	loginErr      error
	analyzeResult domain.AnalysisResult
	analyzeErr    error
	analyses      []domain.SavedAnalysis
	models        []domain.ModelInfo
}

func (s *stubBackend) Login(context.Context, string, string) (ports.LoginResult, error) {
	if s.loginErr != nil {
		return ports.LoginResult{}, s.loginErr
	}
	return ports.LoginResult{AccessToken: "tok123"}, nil
}

func (s *stubBackend) Register(context.Context, string, string) error { return nil }

func (s *stubBackend) Analyze(context.Context, ports.AnalyzeParams) (domain.AnalysisResult, error) {
	if s.analyzeErr != nil {
		return domain.AnalysisResult{}, s.analyzeErr
	}
	return s.analyzeResult, nil
}

func (s *stubBackend) ListAnalyses(context.Context, string) ([]domain.SavedAnalysis, error) {
	return s.analyses, nil
}

func (s *stubBackend) ListModels(context.Context) ([]domain.ModelInfo, error) {
	return s.models, nil
}

type stubStore map[string]string

func (s stubStore) Get(_ context.Context, key string) (string, error) { return s[key], nil }
func (s stubStore) Set(_ context.Context, key, value string) error    { s[key] = value; return nil }
func (s stubStore) Remove(_ context.Context, key string) error        { delete(s, key); return nil }

func newTestServer(t *testing.T, backend *stubBackend) *httptest.Server {
	t.Helper()
	workflow := application.NewWorkflow(application.Dependencies{
		Backend: backend,
		Store:   stubStore{},
	})
	server := httptest.NewServer(NewRouter(NewHandler(workflow)))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func loginTestUser(t *testing.T, server *httptest.Server) {
	t.Helper()
	resp := postJSON(t, server.URL+"/api/login", map[string]string{
		"email": "user@example.com", "password": "secret1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp := postJSON(t, server.URL+"/api/login", map[string]string{
		"email": "User@Example.com", "password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["email"] != "user@example.com" {
		t.Fatalf("body = %v", body)
	}
}

func TestLoginEndpointValidationFailure(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp := postJSON(t, server.URL+"/api/login", map[string]string{
		"email": "a..b@example.com", "password": "secret1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "error" {
		t.Fatalf("body = %v", body)
	}
	msg, _ := body["message"].(string)
	if !strings.Contains(msg, "consecutive dots") {
		t.Fatalf("message = %q", msg)
	}
}

func TestLoginEndpointRejectedCredentials(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{loginErr: domain.ErrInvalidCredentials})
	resp := postJSON(t, server.URL+"/api/login", map[string]string{
		"email": "user@example.com", "password": "wrong-pass",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestLoginEndpointMalformedBody(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp, err := http.Post(server.URL+"/api/login", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func analyzeUpload(t *testing.T, server *httptest.Server) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "pano.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake-radiograph")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	resp, err := http.Post(server.URL+"/api/analyze", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{
		analyzeResult: domain.AnalysisResult{
			ReportText: "2 findings",
			Summary:    domain.Summary{Total: 2, PerClass: map[string]int{"Caries": 2}},
		},
	})

	resp := analyzeUpload(t, server)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["report_text"] != "2 findings" {
		t.Fatalf("body = %v", body)
	}
}

func TestAnalyzeEndpointWithoutFile(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp, err := http.Post(server.URL+"/api/analyze", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAnalyzeEndpointBackendFailure(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{analyzeErr: domain.ErrBackend})
	resp := analyzeUpload(t, server)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSaveEndpointRequiresSession(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	resp, err := http.Post(server.URL+"/api/save", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStateEndpointHidesToken(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	loginTestUser(t, server)

	resp, err := http.Get(server.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeBody(t, resp)
	if body["step"] != "upload" || body["authenticated"] != true {
		t.Fatalf("body = %v", body)
	}
	if _, present := body["token"]; present {
		t.Fatal("state response carries the bearer token")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{
		analyses: []domain.SavedAnalysis{{ID: 7, FileName: "pano.png", CreatedAt: "2026-03-14T09:00:00"}},
	})
	loginTestUser(t, server)

	resp, err := http.Get(server.URL + "/api/history")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeBody(t, resp)
	analyses, ok := body["analyses"].([]any)
	if !ok || len(analyses) != 1 {
		t.Fatalf("body = %v", body)
	}
	if body["stale"] != false {
		t.Fatalf("stale = %v", body["stale"])
	}
}

func TestModelsEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{
		models: []domain.ModelInfo{{ID: "yolo11s", Name: "YOLOv11 Small", IsActive: true}},
	})

	resp, err := http.Get(server.URL + "/api/models")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeBody(t, resp)
	models, ok := body["models"].([]any)
	if !ok || len(models) != 1 {
		t.Fatalf("body = %v", body)
	}
}

func TestResetEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	loginTestUser(t, server)

	resp, err := http.Post(server.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, &stubBackend{})
	req, err := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("request id = %q", got)
	}
}
