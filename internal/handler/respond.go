package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gritto/gritto/internal/apperror"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status and the {error:{code,message,details}} envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("internal error", err).(*apperror.Error)
	}

	status := statusFor(appErr.Kind)
	body := errorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}

	switch {
	case status >= http.StatusInternalServerError && appErr.Kind == apperror.KindUnavailable:
		body.Details = map[string]bool{"retryable": appErr.Retryable}
		slog.Error("upstream unavailable", "error", err, "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()))
	case status >= http.StatusInternalServerError:
		body.Message = "internal error"
		slog.Error("request failed", "error", err, "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()))
	}

	writeJSON(w, status, map[string]errorBody{"error": body})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("request body is required")
		}
		return apperror.Validation("invalid JSON body")
	}
	return nil
}
