// Package httputil holds the response writers shared by every handler so JSON
// envelopes and content types stay consistent.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "selfreg/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON envelope for every error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteText writes a plain-text body with the given status.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// WriteErrorBody writes the error envelope with an explicit status.
func WriteErrorBody(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// WriteError translates a domain error into an error envelope. Internal errors
// never expose their message to the caller.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteErrorBody(w, http.StatusInternalServerError, string(dErrors.CodeInternal), http.StatusText(http.StatusInternalServerError))
		return
	}
	status := dErrors.ToHTTPStatus(de.Code)
	msg := de.Message
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	WriteErrorBody(w, status, string(de.Code), msg)
}

// DecodeJSON decodes a bounded JSON body into dst. An empty body is reported as
// io.EOF so callers can treat it as an absent payload.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
