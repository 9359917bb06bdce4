// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"net/http"
	"strconv"
	"strings"
)

// ContentTypeJSON is the media type of every canned mock response.
const ContentTypeJSON = "application/json"

// WriteRawJSON writes pre-encoded JSON with the given status code.
// The body is written as is; it is neither re-validated nor re-encoded.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteMethodNotAllowed writes a plain 405 response listing the allowed methods.
func WriteMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// WriteNotFound writes a plain 404 response.
func WriteNotFound(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
