package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/auth"
)

type refreshableToken struct {
	token     atomic.Value
	refreshes atomic.Int32
}

func newRefreshableToken(initial string) *refreshableToken {
	t := &refreshableToken{}
	t.token.Store(initial)
	return t
}

func (t *refreshableToken) Token() string { return t.token.Load().(string) }

func (t *refreshableToken) Refresh(context.Context) error {
	t.refreshes.Add(1)
	t.token.Store("fresh")
	return nil
}

func TestListChatsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/all", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":10,"kind":"INDIVIDUAL"},{"id":20,"kind":"GROUP","name":"team"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, auth.StaticToken("tok"))
	chats, err := client.ListChats(context.Background())
	require.NoError(t, err)

	require.Len(t, chats, 2)
	assert.Equal(t, int64(10), chats[0].ID)
	assert.Equal(t, "team", chats[1].Name)
}

func TestChatMessagesBuildsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/42/messages", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":1,"chat_id":42,"content":"hi","kind":"CHAT"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, auth.StaticToken("tok"))
	msgs, err := client.ChatMessages(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestUnauthorizedTriggersOneRefreshAndReplay(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	tokens := newRefreshableToken("stale")
	client := NewClient(srv.URL, nil, tokens)

	_, err := client.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokens.refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestPersistentUnauthorizedSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := newRefreshableToken("stale")
	client := NewClient(srv.URL, nil, tokens)

	_, err := client.ListChats(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), tokens.refreshes.Load())
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, auth.StaticToken("tok"))
	err := client.DeleteMessage(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditMessageSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/messages/5", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data":{"id":5,"chat_id":10,"content":"hello","kind":"CHAT"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, auth.StaticToken("tok"))
	msg, err := client.EditMessage(context.Background(), 5, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
}

func TestServerErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, auth.StaticToken("tok"))
	_, err := client.ListChats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
