package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	User Speaker = "user"
	Bot  Speaker = "bot"
)

// UnmarshalJSON accepts "user", "bot" and "assistant" in any case.
func (s *Speaker) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sp, err := ParseSpeaker(raw)
	if err != nil {
		return err
	}
	*s = sp
	return nil
}

// ParseSpeaker maps a caller-supplied role name to a Speaker.
func ParseSpeaker(raw string) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return User, nil
	case "bot", "assistant":
		return Bot, nil
	default:
		return "", fmt.Errorf("unknown speaker %q", raw)
	}
}

// Action is the navigation attached to a bot turn.
type Action struct {
	Route string `json:"route"`
}

// Turn is one message of the conversation transcript, oldest first.
type Turn struct {
	Speaker Speaker `json:"sender"`
	Text    string  `json:"text"`
	Action  *Action `json:"action,omitempty"`
}

// UnmarshalJSON also accepts the chat-completion style {role, content}.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Sender  string  `json:"sender"`
		Role    string  `json:"role"`
		Text    string  `json:"text"`
		Content string  `json:"content"`
		Action  *Action `json:"action"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	who := raw.Sender
	if who == "" {
		who = raw.Role
	}
	sp, err := ParseSpeaker(who)
	if err != nil {
		return err
	}
	text := raw.Text
	if text == "" {
		text = raw.Content
	}
	*t = Turn{Speaker: sp, Text: text, Action: raw.Action}
	return nil
}
