package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/oselle/lookbook-api/internal/api/shared"
)

// APIKeyHeader is the request header carrying the client's key.
const APIKeyHeader = "x-api-key"

// APIKeyAuth rejects requests that do not present one of the configured
// keys. Keys are compared in constant time over their SHA-256 digests.
type APIKeyAuth struct {
	digests [][32]byte
}

// NewAPIKeyAuth creates the middleware from the configured key list.
func NewAPIKeyAuth(keys []string) *APIKeyAuth {
	digests := make([][32]byte, len(keys))
	for i, key := range keys {
		digests[i] = sha256.Sum256([]byte(key))
	}
	return &APIKeyAuth{digests: digests}
}

// Authenticate validates the x-api-key header before passing the request on.
func (a *APIKeyAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "x-api-key header required")
			return
		}

		idx, ok := a.match(key)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid API key")
			return
		}

		// The key's position in the configured list identifies the client in
		// logs without ever logging the key itself.
		ctx := shared.SetClientKeyID(r.Context(), fmt.Sprintf("key-%d", idx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// match returns the index of the configured key the request presented. Every
// digest is compared so timing does not reveal which key matched.
func (a *APIKeyAuth) match(key string) (int, bool) {
	digest := sha256.Sum256([]byte(key))
	idx, found := 0, false
	for i, want := range a.digests {
		if subtle.ConstantTimeCompare(want[:], digest[:]) == 1 && !found {
			idx, found = i, true
		}
	}
	return idx, found
}
