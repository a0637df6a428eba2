package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueVerify(t *testing.T) {
	issuer := NewIssuer("secret-key", time.Hour)

	signed, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	personID, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if personID != 42 {
		t.Errorf("Verify() = %d, want 42", personID)
	}
}

func TestVerifyRejections(t *testing.T) {
	issuer := NewIssuer("secret-key", time.Hour)
	signed, _ := issuer.Issue(42)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other-key", time.Hour)
		if _, err := other.Verify(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := NewIssuer("secret-key", time.Nanosecond)
		expired, _ := shortLived.Issue(42)
		time.Sleep(10 * time.Millisecond)
		if _, err := shortLived.Verify(expired); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		if _, err := issuer.Verify(signed + "x"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})
}
