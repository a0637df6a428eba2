package telegram

import "strings"

// Update is the subset of a Bot API update the auth flow cares about.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64 `json:"message_id"`
	From      User  `json:"from"`
	Chat      Chat  `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

const startAuthPrefix = "/start auth_"

// ParseStartAuth extracts the session id from a "/start auth_<id>" command.
// Returns "" for a plain /start or anything else.
func ParseStartAuth(text string) string {
	if !strings.HasPrefix(text, startAuthPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(text, startAuthPrefix))
}

// BuildDeepLink builds the t.me link the browser shows for a pending
// deep-link session.
func BuildDeepLink(botUsername, sessionID string) string {
	return "https://t.me/" + botUsername + "?start=auth_" + sessionID
}
