package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticVerifier struct {
	uid string
}

func (v staticVerifier) VerifyToken(token string) (string, error) {
	if token == "good-token" {
		return v.uid, nil
	}
	return "", errors.New("bad token")
}

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenUID string
	handler := RequireUser(staticVerifier{uid: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UIDFromContext(r.Context())
		require.True(t, ok)
		seenUID = uid
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seenUID
}

func TestRequireUserBearerHeader(t *testing.T) {
	handler, seenUID := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", *seenUID)
}

func TestRequireUserQueryParam(t *testing.T) {
	handler, seenUID := protected(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?access_token=good-token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", *seenUID)
}

func TestRequireUserMissingToken(t *testing.T) {
	handler, _ := protected(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserRejectedToken(t *testing.T) {
	handler, _ := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserMalformedHeader(t *testing.T) {
	handler, _ := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
