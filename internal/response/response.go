// Package response provides shared response helpers for HTTP handlers.
// Upload endpoints answer in plain text; auxiliary endpoints use the JSON
// envelope.
package response

import (
	"encoding/json"
	"net/http"
)

// Plain-text bodies returned by the upload endpoint.
const (
	MsgMissingImage    = "Missing image file"
	MsgInternalError   = "Internal Server Error"
	MsgUploadSucceeded = "Image uploaded successfully: "
)

// Envelope is the standard JSON response envelope.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Text writes a plain-text body with the given HTTP status code.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Error: message})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// InternalError writes a 500 plain-text response. Error detail is never
// included; callers log it instead.
func InternalError(w http.ResponseWriter) {
	Text(w, http.StatusInternalServerError, MsgInternalError)
}
