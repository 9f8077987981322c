package threecommas

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer verifies, for every request, that the Signature header
// matches a digest recomputed over the bytes actually received. This is the
// guard against re-serialization between signing and transmission.
func newTestServer(t *testing.T, secret string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		path := strings.TrimPrefix(r.URL.Path, APIPrefix)
		expected := Sign(secret, path, r.URL.RawQuery, string(body))
		assert.Equal(t, expected, r.Header.Get("Signature"), "signature does not cover transmitted bytes")
		assert.Equal(t, "test-key", r.Header.Get("APIKEY"))

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		handler(w, r)
	}))
}

func TestCreateBotSignsTransmittedBytes(t *testing.T) {
	srv := newTestServer(t, "test-secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/public/api/ver1/bots", r.URL.Path)
		w.Write([]byte(`{"id":12345,"name":"My Bot","is_enabled":true}`))
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret")
	bot, err := client.CreateBot(context.Background(), &BotPayload{
		AccountID:       7,
		Name:            "My Bot",
		Pairs:           []string{"USDT_BTC"},
		Strategy:        StrategyLong,
		Type:            BotTypeSimple,
		BaseOrderVolume: 100,
		TakeProfit:      2.5,
		MaxSafetyOrders: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12345), bot.ID)
	assert.True(t, bot.IsEnabled)
}

func TestListDealsSignsQuery(t *testing.T) {
	srv := newTestServer(t, "test-secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/api/ver1/bots/12345/deals", r.URL.Path)
		assert.Equal(t, "limit=50&offset=10", r.URL.RawQuery)
		w.Write([]byte(`[{"id":1,"bot_id":12345,"status":"completed","final_profit":"1.20"}]`))
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret")
	deals, err := client.ListDeals(context.Background(), 12345, 50, 10)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "1.20", deals[0].FinalProfit)
	assert.True(t, deals[0].Finished())
}

func TestRejectedCallMapsToRemoteError(t *testing.T) {
	srv := newTestServer(t, "test-secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"record_invalid","error_description":"Name has already been taken"}`))
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret")
	_, err := client.CreateBot(context.Background(), &BotPayload{Name: "dup"})
	require.Error(t, err)

	remoteErr, ok := err.(*RemoteError)
	require.True(t, ok)
	assert.False(t, remoteErr.Unreachable)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Contains(t, remoteErr.Body, "record_invalid")
}

func TestUnreachablePlatformMapsToRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "test-key", "test-secret")
	_, err := client.PauseBot(context.Background(), 12345)
	require.Error(t, err)

	remoteErr, ok := err.(*RemoteError)
	require.True(t, ok)
	assert.True(t, remoteErr.Unreachable)
	assert.Zero(t, remoteErr.StatusCode)
}

func TestDeleteBotNoBody(t *testing.T) {
	srv := newTestServer(t, "test-secret", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret")
	assert.NoError(t, client.DeleteBot(context.Background(), 12345))
}
