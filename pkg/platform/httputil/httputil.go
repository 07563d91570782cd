// Package httputil provides the JSON helpers handlers share: decode with a
// size cap, write a response, write a coded error.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "govgate/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decode reads a JSON body into dst, rejecting unknown fields and oversized
// payloads.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid JSON body")
	}
	return nil
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error to its HTTP status and writes a JSON error
// body. Uncoded errors surface as 500 internal without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	message := "internal error"
	var e *dErrors.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	WriteJSON(w, dErrors.HTTPStatus(err), errorResponse{Error: errorBody{
		Code:    string(dErrors.CodeOf(err)),
		Message: message,
	}})
}
