package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// WidgetAuth is the payload the Telegram Login Widget hands to the browser.
// https://core.telegram.org/widgets/login#checking-authorization
type WidgetAuth struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// WidgetReplayWindow is the maximum accepted age of auth_date, in seconds.
const WidgetReplayWindow = 86400

// ValidateWidget recomputes the widget hash: HMAC-SHA256 over the
// data-check-string (every field except hash, sorted by key, joined as
// "key=value" lines) keyed with SHA256(botToken). The supplied hash is
// matched case-insensitively in constant time.
func ValidateWidget(data WidgetAuth, botToken string) bool {
	if botToken == "" || data.Hash == "" {
		return false
	}

	fields := map[string]string{
		"id":         strconv.FormatInt(data.ID, 10),
		"first_name": data.FirstName,
		"auth_date":  strconv.FormatInt(data.AuthDate, 10),
	}
	if data.LastName != "" {
		fields["last_name"] = data.LastName
	}
	if data.Username != "" {
		fields["username"] = data.Username
	}
	if data.PhotoURL != "" {
		fields["photo_url"] = data.PhotoURL
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	dataCheckString := strings.Join(lines, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(dataCheckString))
	expected := hex.EncodeToString(mac.Sum(nil))

	supplied := strings.ToLower(data.Hash)
	return hmac.Equal([]byte(supplied), []byte(expected))
}
