package crypto

import (
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("GenerateCode() = %q, want 6 digits", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("GenerateCode() = %q, contains non-digit", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 50 {
		t.Errorf("GenerateCode() produced only %d distinct codes in 100 draws", len(seen))
	}
}

func TestGenerateSessionID(t *testing.T) {
	a := GenerateSessionID()
	b := GenerateSessionID()
	if a == b {
		t.Error("GenerateSessionID() returned the same id twice")
	}
	if len(a) != 36 {
		t.Errorf("GenerateSessionID() = %q, want UUID format", a)
	}
}

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "equal codes", a: "123456", b: "123456", want: true},
		{name: "different codes", a: "123456", b: "123457", want: false},
		{name: "different lengths", a: "123456", b: "12345", want: false},
		{name: "both empty", a: "", b: "", want: true},
		{name: "one empty", a: "123456", b: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecureCompare(tt.a, tt.b); got != tt.want {
				t.Errorf("SecureCompare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
