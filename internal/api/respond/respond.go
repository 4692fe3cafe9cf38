// Package respond writes the API's JSON bodies and the cache headers
// the read path depends on. Handlers never touch the ResponseWriter
// header map directly; everything goes through here so ETag, Vary, and
// Cache-Control stay consistent across endpoints.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WriteJSON serves a prebuilt JSON body from the read cache path. The
// ETag comes from the cache entry; cacheHit only switches the X-Cache
// header so operators can see hit rates from access logs.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("ETag", etag)
	h.Set("Vary", "Accept-Encoding")
	if cacheHit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	maxAge := int(ttl.Seconds())
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified answers a conditional read whose ETag still matches.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteJSONObject marshals v and writes it. Mutation responses and
// health checks use this; cached reads go through WriteJSON.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the error envelope every failure returns. Code is a
// stable machine-readable identifier; Message is written for the person
// who made the request, and ledger validation messages pass through it
// verbatim.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteError sends the error envelope. Errors are never cacheable.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
