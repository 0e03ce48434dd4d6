package dialogue

import (
	"encoding/json"
	"errors"
	"strings"
)

// Reply types emitted by the dialogue runtime that carry text for the user.
const (
	ReplyText  = "text"
	ReplySpeak = "speak"
)

// ErrNoMessage is returned when no reply carries a user-facing message.
var ErrNoMessage = errors.New("dialogue: no message in replies")

// Reply is one trace entry of an interaction response.
type Reply struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// Message returns the reply's message when it is a text or speak reply.
func (r Reply) Message() (string, bool) {
	if r.Type != ReplyText && r.Type != ReplySpeak {
		return "", false
	}
	var p messagePayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return "", false
	}
	msg := strings.TrimSpace(p.Message)
	return msg, msg != ""
}

// Replies is the ordered response of one interaction.
type Replies []Reply

// Message returns the first user-facing message, selected by reply type rather than position.
func (rs Replies) Message() (string, error) {
	for _, r := range rs {
		if msg, ok := r.Message(); ok {
			return msg, nil
		}
	}
	return "", ErrNoMessage
}
