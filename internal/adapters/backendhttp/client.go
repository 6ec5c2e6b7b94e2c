// Package backendhttp implements the detection backend port over the
// DentalSmart REST API.
package backendhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
	"github.com/Patocuak64/dentalsmart-client/internal/ports"
)

const defaultTimeout = 60 * time.Second

// Client talks to the DentalSmart backend. Analysis uploads can take
// tens of seconds on large radiographs, hence the generous default
// timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default().With(
			"service", "dentalsmart-client",
			"module", "backendhttp",
			"layer", "adapter",
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a bearer token. The endpoint accepts
// an OAuth2 password grant form with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (ports.LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return ports.LoginResult{}, fmt.Errorf("%w: %s", domain.ErrBackend,
			ExtractErrorMessage(body, "HTTP "+strconv.Itoa(resp.StatusCode)))
	}
	if resp.StatusCode >= 400 {
		return ports.LoginResult{}, fmt.Errorf("%w: %s", domain.ErrInvalidCredentials,
			ExtractErrorMessage(body, "incorrect email or password"))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ports.LoginResult{}, fmt.Errorf("%w: decode login response: %v", domain.ErrBackend, err)
	}
	if payload.AccessToken == "" {
		return ports.LoginResult{}, fmt.Errorf("%w: login response carried no access token", domain.ErrBackend)
	}
	return ports.LoginResult{AccessToken: payload.AccessToken}, nil
}

// Register creates an account. Conflicting addresses map to
// domain.ErrConflict so the caller can suggest logging in instead.
func (c *Client) Register(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("encode register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/register",
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict,
			ExtractErrorMessage(body, "email already registered"))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", domain.ErrBackend,
			ExtractErrorMessage(body, "HTTP "+strconv.Itoa(resp.StatusCode)))
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput,
			ExtractErrorMessage(body, "registration rejected"))
	}
	return nil
}

// Analyze uploads the radiograph as multipart form data. With a token
// the request goes to the authenticated endpoint and may carry the
// save flag; without one it goes to the public endpoint.
func (c *Client) Analyze(ctx context.Context, params ports.AnalyzeParams) (domain.AnalysisResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", params.Filename)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(params.Image); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.WriteField("confidence", strconv.FormatFloat(params.Confidence, 'f', -1, 64)); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.WriteField("return_image", "true"); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
	}
	if params.Persist {
		if err := mw.WriteField("save", "true"); err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build upload: %w", err)
	}

	endpoint := c.baseURL + "/analyze-public"
	if params.Token != "" {
		endpoint = c.baseURL + "/analyze"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if params.Token != "" {
		req.Header.Set("Authorization", "Bearer "+params.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "HTTP " + strconv.Itoa(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %s", domain.ErrSessionExpired,
				ExtractErrorMessage(body, msg))
		}
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", domain.ErrBackend, msg)
	}

	var payload struct {
		Report      string          `json:"report_text"`
		Stats       json.RawMessage `json:"stats"`
		Summary     json.RawMessage `json:"summary"`
		Detections  json.RawMessage `json:"detections"`
		TeethFDI    json.RawMessage `json:"teeth_fdi"`
		ImageBase64 string          `json:"image_base64"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: decode analyze response: %v", domain.ErrBackend, err)
	}

	result := domain.AnalysisResult{
		ReportText: payload.Report,
		Stats:      payload.Stats,
	}
	if len(payload.Summary) > 0 {
		var summary struct {
			Total    int            `json:"total"`
			PerClass map[string]int `json:"per_class"`
		}
		if err := json.Unmarshal(payload.Summary, &summary); err == nil {
			result.Summary = domain.Summary{Total: summary.Total, PerClass: summary.PerClass}
		}
	}
	if len(payload.Detections) > 0 {
		var detections []struct {
			ClassName  string  `json:"class_name"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(payload.Detections, &detections); err == nil {
			for _, d := range detections {
				result.Detections = append(result.Detections, domain.Detection{
					ClassName:  d.ClassName,
					Confidence: d.Confidence,
				})
			}
		}
	}
	if len(payload.TeethFDI) > 0 {
		var teeth map[string][]int
		if err := json.Unmarshal(payload.TeethFDI, &teeth); err == nil {
			result.TeethByCondition = teeth
		}
	}
	if payload.ImageBase64 != "" {
		img, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
		if err != nil {
			c.logger.WarnContext(ctx, "annotated image decode failed",
				"operation", "analyze", "outcome", "warning", "error", err.Error())
		} else {
			result.AnnotatedImage = img
		}
	}
	return result, nil
}

// ListAnalyses fetches the user's saved analyses, newest first.
func (c *Client) ListAnalyses(ctx context.Context, token string) ([]domain.SavedAnalysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses", nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionExpired,
			ExtractErrorMessage(body, "token rejected"))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %s", domain.ErrBackend,
			ExtractErrorMessage(body, "HTTP "+strconv.Itoa(resp.StatusCode)))
	}

	var analyses []domain.SavedAnalysis
	if err := json.Unmarshal(body, &analyses); err != nil {
		return nil, fmt.Errorf("%w: decode history response: %v", domain.ErrBackend, err)
	}
	return analyses, nil
}

// ListModels fetches the available detection models and their metrics.
func (c *Client) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models/available", nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s", domain.ErrBackend,
			ExtractErrorMessage(body, "HTTP "+strconv.Itoa(resp.StatusCode)))
	}

	var payload struct {
		Models []domain.ModelInfo `json:"models"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode models response: %v", domain.ErrBackend, err)
	}
	return payload.Models, nil
}

// ExtractErrorMessage pulls a human-readable message out of a backend
// error body. The backend reports either {"detail": "..."} or a list of
// validation errors {"detail": [{"msg": "..."}, ...]}; the latter is
// joined with " | ". Anything unreadable yields the fallback.
func ExtractErrorMessage(body []byte, fallback string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil && msg != "" {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				parts = append(parts, item.Msg)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " | ")
		}
	}
	return fallback
}
