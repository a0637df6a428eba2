package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const signatureLength = 64

// ComputeSignature returns the hex HMAC-SHA256 of "sessionID:telegramID"
// under the relay webhook secret. The bot-side relay produces the same value,
// which is the proof that a confirmation actually came from the bot.
func ComputeSignature(sessionID, telegramID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID + ":" + telegramID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks a relay confirmation signature. Fails closed on
// empty secrets and malformed signatures; the comparison is constant time.
func ValidateSignature(sessionID, telegramID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	if len(signature) != signatureLength {
		return false
	}

	expected := ComputeSignature(sessionID, telegramID, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
