package handler

import (
	"net/http"
	"strings"
)

// CheckAPIKey reports whether r carries expected as either an
// "x-api-key" header or an "Authorization: Bearer <token>" header,
// mirroring original_source/src/anthropic/router.rs's auth_middleware.
// Framework wirings call this once per request; credential issuance and
// rotation are out of scope for the core.
func CheckAPIKey(r *http.Request, expected string) bool {
	if expected == "" {
		return true
	}
	if key := r.Header.Get("x-api-key"); key == expected {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ") == expected
	}
	return false
}
