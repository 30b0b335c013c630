package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/schoolpay/schoolpay-backend/pkg/auth"
	"github.com/schoolpay/schoolpay-backend/pkg/config"
)

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "schoolpay-test"}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(authTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	handler := Auth(authTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthSeedsCallerContext(t *testing.T) {
	cfg := authTestConfig()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), time.Hour, "trustee-42", "ops@school.example")
	require.NoError(t, err)

	var gotCaller, gotEmail string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = CallerIDFromContext(r.Context())
		gotEmail = CallerEmailFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "trustee-42", gotCaller)
	assert.Equal(t, "ops@school.example", gotEmail)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := authTestConfig()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, "trustee-42", "")
	require.NoError(t, err)

	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
