package middleware

import (
	"encoding/json"
	"net/http"
)

// problem mirrors handlers.Problem; middleware cannot import handlers since
// handlers read claims from this package.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="kanbu-acl"`)
	writeProblem(w, http.StatusUnauthorized, "Unauthorized", detail)
}
