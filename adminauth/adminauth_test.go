package adminauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken_RoundTrips(t *testing.T) {
	s := New("secret", "preprocessing-orchestrator", time.Hour)

	tok, err := s.IssueToken("operator-1")
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.Subject)
	assert.Equal(t, "preprocessing-orchestrator", claims.Issuer)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	s1 := New("secret-one", "iss", time.Hour)
	s2 := New("secret-two", "iss", time.Hour)

	tok, err := s1.IssueToken("operator-1")
	require.NoError(t, err)

	_, err = s2.ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateToken_RejectsExpiredToken(t *testing.T) {
	s := New("secret", "iss", -time.Hour)

	tok, err := s.IssueToken("operator-1")
	require.NoError(t, err)

	_, err = s.ValidateToken(tok)
	assert.Error(t, err)
}

func TestMiddleware_RejectsMissingAuthorizationHeader(t *testing.T) {
	s := New("secret", "iss", time.Hour)
	handler := s.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/reset/B1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RejectsMalformedHeader(t *testing.T) {
	s := New("secret", "iss", time.Hour)
	handler := s.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/reset/B1", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_AcceptsValidBearerToken(t *testing.T) {
	s := New("secret", "iss", time.Hour)
	tok, err := s.IssueToken("operator-1")
	require.NoError(t, err)

	handler := s.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/reset/B1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
