// Package problem renders RFC 7807 application/problem+json error responses.
package problem

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error response. Code is a stable machine-readable
// identifier that clients can branch on; Title and Detail are for humans.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// New builds a Problem with the blank type URI.
func New(status int, code, title, detail string) Problem {
	return Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Code:   code,
		Detail: detail,
	}
}

// Write serializes a Problem to the response with the proper content type.
func Write(w http.ResponseWriter, status int, code, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(New(status, code, title, detail))
}
