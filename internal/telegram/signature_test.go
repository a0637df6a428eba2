package telegram

import (
	"testing"
)

func TestComputeSignature(t *testing.T) {
	// Independently computed:
	// HMAC-SHA256("4f1f0c3a-8b1d-4a8e-9b1f-2c3d4e5f6a7b:987654321", "hook-secret")
	const want = "0726a1c1c7efb74c18d79430ed674ff6cb0418c604835bf05ce931fd69ad2e01"

	got := ComputeSignature("4f1f0c3a-8b1d-4a8e-9b1f-2c3d4e5f6a7b", "987654321", "hook-secret")
	if got != want {
		t.Errorf("ComputeSignature() = %q, want %q", got, want)
	}
}

func TestValidateSignature(t *testing.T) {
	const (
		sessionID  = "4f1f0c3a-8b1d-4a8e-9b1f-2c3d4e5f6a7b"
		telegramID = "987654321"
		secret     = "hook-secret"
	)
	valid := ComputeSignature(sessionID, telegramID, secret)

	tests := []struct {
		name       string
		sessionID  string
		telegramID string
		signature  string
		secret     string
		want       bool
	}{
		{
			name:       "valid signature",
			sessionID:  sessionID,
			telegramID: telegramID,
			signature:  valid,
			secret:     secret,
			want:       true,
		},
		{
			name:       "wrong secret",
			sessionID:  sessionID,
			telegramID: telegramID,
			signature:  valid,
			secret:     "other-secret",
			want:       false,
		},
		{
			name:       "tampered telegram id",
			sessionID:  sessionID,
			telegramID: "111111111",
			signature:  valid,
			secret:     secret,
			want:       false,
		},
		{
			name:       "tampered session id",
			sessionID:  "00000000-0000-0000-0000-000000000000",
			telegramID: telegramID,
			signature:  valid,
			secret:     secret,
			want:       false,
		},
		{
			name:       "empty secret",
			sessionID:  sessionID,
			telegramID: telegramID,
			signature:  valid,
			secret:     "",
			want:       false,
		},
		{
			name:       "empty signature",
			sessionID:  sessionID,
			telegramID: telegramID,
			signature:  "",
			secret:     secret,
			want:       false,
		},
		{
			name:       "truncated signature",
			sessionID:  sessionID,
			telegramID: telegramID,
			signature:  valid[:32],
			secret:     secret,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSignature(tt.sessionID, tt.telegramID, tt.signature, tt.secret)
			if got != tt.want {
				t.Errorf("ValidateSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
