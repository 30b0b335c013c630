package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpay/schoolpay-backend/pkg/config"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.GatewayConfig{
		BaseURL:    baseURL,
		SigningKey: "test-signing-key",
		APIKey:     "test-api-key",
		Timeout:    2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), config.GatewayConfig{BaseURL: "http://x", APIKey: "k"}, nil)
	assert.ErrorIs(t, err, errSigningKeyRequired)

	_, err = NewClient(context.Background(), config.GatewayConfig{BaseURL: "http://x", SigningKey: "s"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(context.Background(), config.GatewayConfig{SigningKey: "s", APIKey: "k"}, nil)
	assert.ErrorIs(t, err, errBaseURLRequired)
}

func TestCreateCollectRequestSignsPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/create-collect-request", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"collect_request_id":  "CR_123",
			"Collect_request_url": "https://pay.example/CR_123",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.CreateCollectRequest(context.Background(), CreateCollectParams{
		SchoolID:    "school-1",
		Amount:      decimal.NewFromInt(1500),
		CallbackURL: "https://app.example/payment-callback",
	})
	require.NoError(t, err)
	assert.Equal(t, "CR_123", result.CollectRequestID)
	assert.Equal(t, "https://pay.example/CR_123", result.CollectRequestURL)

	assert.Equal(t, "school-1", received["school_id"])
	assert.Equal(t, "1500", received["amount"])

	// The sign field must be a JWT over the same payload fields.
	signed, ok := received["sign"].(string)
	require.True(t, ok, "sign must be present")
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "school-1", claims["school_id"])
	assert.Equal(t, "1500", claims["amount"])
}

func TestCreateCollectRequestMapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "upstream down"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateCollectRequest(context.Background(), CreateCollectParams{
		SchoolID: "school-1",
		Amount:   decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestCreateCollectRequestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // force connection refused

	client := newTestClient(t, server.URL)
	_, err := client.CreateCollectRequest(context.Background(), CreateCollectParams{
		SchoolID: "school-1",
		Amount:   decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
}

func TestCheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/collect-request/CR_9", r.URL.Path)
		require.Equal(t, "school-2", r.URL.Query().Get("school_id"))
		require.NotEmpty(t, r.URL.Query().Get("sign"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "SUCCESS",
			"amount": 1200,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payload, err := client.CheckStatus(context.Background(), "CR_9", "school-2")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", payload["status"])
}

func TestCheckStatusUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "collect request not found"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CheckStatus(context.Background(), "CR_missing", "school-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
}
