// Package handler exposes the services over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jnst/layered-crud-template/internal/model"
)

const (
	contentTypeJSON = "Content-Type"
	applicationJSON = "application/json"

	successMessage  = "request processed successfully"
	internalMessage = "an internal server error occurred"
)

// Response is the envelope wrapping every API response.
type Response struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Data      any     `json:"data"`
	ErrorCode *string `json:"errorCode"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: successMessage, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Message: message, ErrorCode: &code})
}

// writeError is the single place translating errors into the client-facing envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs ValidationErrors

	switch {
	case errors.As(err, &verrs):
		slog.Warn("validation failed", slog.String("path", r.URL.Path), slog.String("message", verrs.Error()))
		writeFailure(w, http.StatusBadRequest, model.CodeValidation, verrs.Error())
	case model.IsValidation(err):
		slog.Warn("validation failed", slog.String("path", r.URL.Path), slog.String("message", err.Error()))
		writeFailure(w, http.StatusBadRequest, model.CodeValidation, err.Error())
	case errors.Is(err, errInvalidInput):
		slog.Warn("invalid input", slog.String("path", r.URL.Path), slog.String("message", err.Error()))
		writeFailure(w, http.StatusBadRequest, model.CodeInvalidInput, err.Error())
	default:
		if be, ok := model.AsBusinessError(err); ok {
			slog.Warn("business error",
				slog.String("path", r.URL.Path),
				slog.String("error_code", be.Code),
				slog.String("message", be.Message))
			writeFailure(w, http.StatusBadRequest, be.Code, be.Message)

			return
		}

		slog.Error("unhandled error", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeFailure(w, http.StatusInternalServerError, model.CodeInternal, internalMessage)
	}
}
