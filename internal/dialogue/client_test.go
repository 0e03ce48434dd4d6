package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendText(t *testing.T) {
	var got interactRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/state/user/session-1/interact", r.URL.Path)
		assert.Equal(t, "off", r.URL.Query().Get("logs"))
		assert.Equal(t, "VF.DM.key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`[
			{"type":"path","payload":{"path":"reprompt"}},
			{"type":"visual","payload":{"image":"x.png"}},
			{"type":"text","payload":{"message":"Taking you to the Food Court."}}
		]`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "VF.DM.key"})
	replies, err := c.SendText(context.Background(), "session-1", "take me to the food court")
	require.NoError(t, err)

	assert.Equal(t, "text", got.Action.Type)
	assert.Equal(t, "take me to the food court", got.Action.Payload)
	assert.True(t, got.Config.StripSSML)
	assert.False(t, got.Config.TTS)
	assert.Equal(t, []string{"block", "debug", "flow"}, got.Config.ExcludeTypes)

	msg, err := replies.Message()
	require.NoError(t, err)
	assert.Equal(t, "Taking you to the Food Court.", msg)
}

func TestClient_Launch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req interactRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "launch", req.Action.Type)
		assert.Empty(t, req.Action.Payload)
		_, _ = w.Write([]byte(`[{"type":"speak","payload":{"message":"Hi! Where would you like to go?"}}]`))
	}))
	defer srv.Close()

	replies, err := NewClient(Config{BaseURL: srv.URL}).Launch(context.Background(), "u")
	require.NoError(t, err)
	msg, err := replies.Message()
	require.NoError(t, err)
	assert.Equal(t, "Hi! Where would you like to go?", msg)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).SendText(context.Background(), "u", "hi")
	var dErr *Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, http.StatusUnauthorized, dErr.StatusCode)
}

func TestReplies_MessageByType(t *testing.T) {
	replies := Replies{
		{Type: "choice", Payload: json.RawMessage(`{"buttons":[]}`)},
		{Type: "text", Payload: json.RawMessage(`{"message":"  "}`)},
		{Type: "speak", Payload: json.RawMessage(`{"message":"second"}`)},
		{Type: "text", Payload: json.RawMessage(`{"message":"third"}`)},
		{Type: "end"},
	}

	msg, err := replies.Message()
	require.NoError(t, err)
	assert.Equal(t, "second", msg)

	_, err = Replies{{Type: "path"}}.Message()
	assert.ErrorIs(t, err, ErrNoMessage)
}
