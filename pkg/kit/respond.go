package kit

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"FashionHub/pkg/apperr"
	"FashionHub/pkg/validate"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	WriteCodedError(w, r, status, "", msg, details)
}

func WriteCodedError(w http.ResponseWriter, r *http.Request, status int, code, msg string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      code,
		Details:   details,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// WriteAppError renders validation and coded errors with their own status;
// anything else is a 500 with a generic message.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		WriteCodedError(w, r, http.StatusUnprocessableEntity, apperr.CodeValidation,
			"validation failed", map[string]any{"fields": ve.Fields()})
		return
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		WriteCodedError(w, r, apperr.StatusOf(ae), ae.Code, apperr.UserMessage(ae), nil)
		return
	}

	WriteCodedError(w, r, http.StatusInternalServerError, apperr.CodeInternal, apperr.GenericMessage, nil)
}
