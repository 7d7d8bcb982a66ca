package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Send(t *testing.T) {
	var gotAuth string
	var gotMsg Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "m-123", "status": "sent"})
	}))
	defer srv.Close()

	c := NewHTTPClient("secret-key", srv.URL)
	res, err := c.Send(context.Background(), Message{
		To:      "ada@example.com",
		ToName:  "Ada Lovelace",
		Subject: "Your accommodation at Grand Hotel",
		Body:    "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "m-123", res.MessageID)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "ada@example.com", gotMsg.To)
}

func TestHTTPClient_Send_QueuedAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "m-9", "status": "queued"})
	}))
	defer srv.Close()

	res, err := NewHTTPClient("k", srv.URL).Send(context.Background(), Message{To: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "m-9", res.MessageID)
}

func TestHTTPClient_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient("k", srv.URL).Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPClient_Send_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "bounced", "detail": "mailbox unavailable"})
	}))
	defer srv.Close()

	_, err := NewHTTPClient("k", srv.URL).Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox unavailable")
}

func TestMockSender(t *testing.T) {
	res, err := MockSender{}.Send(context.Background(), Message{To: "a@b.c"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)
}
