package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/logger"
)

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// apiKeys holds sha256 digests of the configured keys, compared in constant time.
type apiKeys [][sha256.Size]byte

func newAPIKeys(keys []string) apiKeys {
	var out apiKeys
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, sha256.Sum256([]byte(k)))
		}
	}
	return out
}

func (k apiKeys) valid(token string) bool {
	sum := sha256.Sum256([]byte(token))
	ok := 0
	for i := range k {
		ok |= subtle.ConstantTimeCompare(sum[:], k[i][:])
	}
	return ok == 1
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuthMiddleware rejects requests without a configured API key.
// With no keys configured it passes everything through.
func BearerAuthMiddleware(keys []string) func(http.Handler) http.Handler {
	valid := newAPIKeys(keys)

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			reject := func(reason string) {
				logger.FromContext(r.Context()).Info("request rejected",
					zap.String("path", r.URL.Path),
					zap.String("reason", reason))
				w.Header().Set("WWW-Authenticate", `Bearer realm="investigo"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, reason)
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				reject("missing authorization header")
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				reject("authorization header must use Bearer scheme")
				return
			}
			if !valid.valid(token) {
				reject("invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
