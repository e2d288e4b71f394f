package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncer_Announce(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := chat.NewAnnouncer(srv.URL, "xoxb-test", "C123", time.Second)
	msg := blocks.Message{Text: "Monthly report", Blocks: []blocks.Block{blocks.Header("Monthly report")}}
	require.NoError(t, a.Announce(context.Background(), msg))

	assert.Equal(t, "C123", got["channel"])
	assert.Equal(t, "Monthly report", got["text"])
	assert.Len(t, got["blocks"], 1)
}

func TestAnnouncer_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected in body", http.StatusOK, `{"ok":false,"error":"channel_not_found"}`},
		{"http error", http.StatusInternalServerError, ``},
		{"garbage body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := chat.NewAnnouncer(srv.URL, "t", "C1", time.Second)
			assert.Error(t, a.Announce(context.Background(), blocks.Plain("hi")))
		})
	}
}
