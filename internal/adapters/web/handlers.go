package web

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Patocuak64/dentalsmart-client/internal/application"
	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

// maxUploadBytes bounds radiograph uploads; panoramic X-rays stay well
// under this.
const maxUploadBytes = 32 << 20

type Handler struct {
	workflow *application.Workflow
}

func NewHandler(workflow *application.Workflow) *Handler {
	return &Handler{workflow: workflow}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	session, err := h.workflow.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"email": session.Email})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	session, err := h.workflow.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]string{"email": session.Email})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.Logout(r.Context()); err != nil {
		mapDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}

// Analyze accepts a multipart upload, attaches it as the current
// radiograph and runs the analysis in one round trip.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		mapDomainError(w, domain.ErrNoImage)
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}
	if err := h.workflow.AttachImage(header.Filename, image); err != nil {
		mapDomainError(w, err)
		return
	}
	result, err := h.workflow.Analyze(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, analysisResponse(result))
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	result, err := h.workflow.SaveToHistory(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, analysisResponse(result))
}

func (h *Handler) Reset(w http.ResponseWriter, _ *http.Request) {
	if err := h.workflow.StartNew(); err != nil {
		mapDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "ready for next analysis")
}

func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.workflow.Snapshot())
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.workflow.History(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}
	analyses := history.Analyses
	if analyses == nil {
		analyses = []domain.SavedAnalysis{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"analyses": analyses,
		"stale":    history.Stale,
	})
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.workflow.Models(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}
	if models == nil {
		models = []domain.ModelInfo{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"models": models})
}

func analysisResponse(result *domain.AnalysisResult) map[string]any {
	resp := map[string]any{
		"report_text": result.ReportText,
		"summary":     result.Summary,
		"detections":  result.Detections,
		"teeth_fdi":   result.TeethByCondition,
	}
	if len(result.Stats) > 0 {
		resp["stats"] = json.RawMessage(result.Stats)
	}
	if len(result.AnnotatedImage) > 0 {
		resp["image_base64"] = base64.StdEncoding.EncodeToString(result.AnnotatedImage)
	}
	return resp
}
