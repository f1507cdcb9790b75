// Package httpx carries the JSON response and RFC7807 problem helpers shared
// by the report and rate-upload handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Rate uploads carry at most a month of quotes; anything larger is a client
// bug, not a bigger batch.
const maxBodyBytes = 1 << 20

// ProblemDetail is the RFC7807 error body every endpoint returns on failure.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes a request body into target, capped at maxBodyBytes and
// rejecting fields the DTO does not declare.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
