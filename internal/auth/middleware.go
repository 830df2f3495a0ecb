package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/stocktally/stocktally/internal/platform/httpx"
)

type uidContextKey struct{}

// ContextWithUID stores the authenticated uid in context.
func ContextWithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, uidContextKey{}, uid)
}

// UIDFromContext extracts the authenticated uid from context.
func UIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(uidContextKey{}).(string)
	return uid, ok && uid != ""
}

// TokenVerifier resolves a bearer token to a uid.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// uid in the request context. The token may arrive in the Authorization
// header or, for WebSocket handshakes, in the access_token query parameter.
func RequireUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			uid, err := verifier.VerifyToken(token)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUID(r.Context(), uid)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
