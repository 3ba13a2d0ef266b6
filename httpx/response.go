// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds request bodies decoded by DecodeJSON.
const MaxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse is the body of delete and informational endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Message: msg, Details: details})
}

// Message writes {"message": msg} with status 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindMissingField, apperr.KindInvalidFormat, apperr.KindUnknownCategory:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error body. Classified errors expose their
// message and field; anything else is logged and hidden behind a 500.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		JSONError(w, status, string(apperr.KindInternal), "internal server error", nil)
		return
	}
	var ae *apperr.Error
	errors.As(err, &ae)
	var details any
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		details = v
	case ae.Field != "":
		details = map[string]string{"field": ae.Field}
	}
	msg := ae.Message
	if ae.Field != "" {
		msg = ae.Field + ": " + msg
	}
	JSONError(w, status, string(kind), msg, details)
}

// DecodeJSON reads a JSON body into dst. A malformed body is an
// InvalidFormat error on the pseudo-field "body".
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.MissingField("body")
		}
		return &apperr.Error{Kind: apperr.KindInvalidFormat, Field: "body", Message: "malformed JSON", Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
