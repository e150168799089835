package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClient_Invoke(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second)
	err := c.Invoke(context.Background(), "qual o horário?", "sess-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "qual o horário?", got["chatInput"])
	assert.Equal(t, "sess-1", got["sessionId"])
	assert.Equal(t, "user-1", got["userId"])
}

func TestWebhookClient_InvokeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second)
	err := c.Invoke(context.Background(), "msg", "sess-1", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookClient_InvokeUnreachable(t *testing.T) {
	c := NewWebhookClient("http://127.0.0.1:1", time.Second)
	err := c.Invoke(context.Background(), "msg", "sess-1", "user-1")
	require.Error(t, err)
}
