package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFullTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/account":
			assert.Equal(t, "valid-key", r.Header.Get("X-MBX-APIKEY"))
			assert.NotEmpty(t, r.URL.Query().Get("timestamp"))
			signed, _, found := strings.Cut(r.URL.RawQuery, "&signature=")
			require.True(t, found)
			assert.Equal(t, signQuery("valid-secret", signed), r.URL.Query().Get("signature"))
			w.Write([]byte(`{"canTrade":true,"balances":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tier, err := NewClient(srv.URL).Validate(context.Background(), "valid-key", "valid-secret")
	require.NoError(t, err)
	assert.Equal(t, TierFull, tier)
}

func TestValidateFallsBackToBasicTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/account":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`))
		case "/sapi/v1/account/apiRestrictions":
			w.Write([]byte(`{"enableReading":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tier, err := NewClient(srv.URL).Validate(context.Background(), "restricted-key", "secret")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, tier)
}

func TestValidateFallsBackToMinimalTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/ping" {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tier, err := NewClient(srv.URL).Validate(context.Background(), "bad-key", "bad-secret")
	require.NoError(t, err)
	assert.Equal(t, TierMinimal, tier)
}

func TestValidateTotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Validate(context.Background(), "key", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetAccountInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/account", r.URL.Path)
		w.Write([]byte(`{"canTrade":true,"accountType":"SPOT","balances":[{"asset":"BTC","free":"0.5","locked":"0"}]}`))
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL).GetAccountInfo(context.Background(), "key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "SPOT", info.AccountType)
	require.Len(t, info.Balances, 1)
	assert.Equal(t, "BTC", info.Balances[0].Asset)
}
