package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/CardShopGo/pkg/httputil"
)

// CartKeyHeader carries the client-generated cart identifier. The storefront
// creates the key once and sends it on every cart request.
const CartKeyHeader = "X-Cart-Key"

// maxCartKeyLen bounds the accepted cart key so the header cannot be abused
// as a storage channel.
const maxCartKeyLen = 128

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// cartKey extracts and validates the cart key header. On failure it writes a
// 400 response and returns false, signaling the caller to return early.
func cartKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get(CartKeyHeader))
	if key == "" || len(key) > maxCartKeyLen {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_INPUT",
				Message: "a valid " + CartKeyHeader + " header is required",
			},
		})
		return "", false
	}
	return key, true
}
