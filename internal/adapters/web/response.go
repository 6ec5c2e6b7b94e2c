package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

type errorBody struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Status: "error", Code: status, Message: message})
}

// mapDomainError translates workflow errors to HTTP statuses. Unknown
// errors become 500 with a generic message so internals never leak.
func mapDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoImage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotLoggedIn),
		errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBusy),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrStaleRun):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBackend):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
