package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/session"
	"github.com/pg19/portal-auth/internal/telegram"
)

func newTelegramFixture(messenger domain.Messenger) (*TelegramVerifier, *fakeDirectory) {
	dir := newFakeDirectory()
	v := NewTelegramVerifier(TelegramVerifierConfig{
		Store:         session.NewMemoryStore(),
		Directory:     dir,
		Messenger:     messenger,
		Logger:        testLogger(),
		BotUsername:   "pg19_bot",
		BotToken:      "test-token",
		WebhookSecret: "hook-secret",
	})
	return v, dir
}

func TestTelegramInit(t *testing.T) {
	ctx := context.Background()
	v, _ := newTelegramFixture(nil)

	result, err := v.Init(ctx)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if result.SessionID == "" {
		t.Error("Init() returned empty session id")
	}
	if want := "https://t.me/pg19_bot?start=auth_" + result.SessionID; result.DeepLink != want {
		t.Errorf("DeepLink = %q, want %q", result.DeepLink, want)
	}
	if result.ExpiresIn != 180 {
		t.Errorf("ExpiresIn = %d, want 180", result.ExpiresIn)
	}
}

func TestTelegramInitUnconfigured(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	v := NewTelegramVerifier(TelegramVerifierConfig{
		Store:     session.NewMemoryStore(),
		Directory: dir,
		Logger:    testLogger(),
	})

	if _, err := v.Init(ctx); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("Init() error = %v, want ErrUnavailable", err)
	}
}

func TestTelegramFullFlowSigned(t *testing.T) {
	ctx := context.Background()
	v, dir := newTelegramFixture(nil)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "987654321"})

	init, _ := v.Init(ctx)

	// Pending until the bot confirms.
	check, err := v.Check(ctx, init.SessionID)
	if err != nil || check.Status != TelegramStatusPending {
		t.Fatalf("Check() = %+v, %v, want pending", check, err)
	}

	conf := SignedConfirmation{
		SessionID:  init.SessionID,
		TelegramID: "987654321",
		Username:   "subscriber",
		Signature:  telegram.ComputeSignature(init.SessionID, "987654321", "hook-secret"),
	}
	if err := v.ConfirmSigned(ctx, conf); err != nil {
		t.Fatalf("ConfirmSigned() error = %v", err)
	}

	check, err = v.Check(ctx, init.SessionID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if check.Status != TelegramStatusVerified || check.Data == nil {
		t.Fatalf("Check() = %+v, want verified with data", check)
	}
	if check.Data.Person.ID != 9 {
		t.Errorf("Person.ID = %d, want 9", check.Data.Person.ID)
	}

	// Handed off exactly once.
	check, _ = v.Check(ctx, init.SessionID)
	if check.Status != TelegramStatusExpired {
		t.Errorf("second Check() status = %q, want expired", check.Status)
	}

	if dir.usernames[9] != "subscriber" {
		t.Errorf("username not recorded, got %q", dir.usernames[9])
	}
}

func TestTelegramConfirmSignedRejections(t *testing.T) {
	ctx := context.Background()
	v, dir := newTelegramFixture(nil)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "987654321"})

	init, _ := v.Init(ctx)

	t.Run("forged signature", func(t *testing.T) {
		conf := SignedConfirmation{
			SessionID:  init.SessionID,
			TelegramID: "987654321",
			Signature:  strings.Repeat("0", 64),
		}
		if err := v.ConfirmSigned(ctx, conf); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("ConfirmSigned() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		id := "7b7f3a90-1111-4222-8333-444455556666"
		conf := SignedConfirmation{
			SessionID:  id,
			TelegramID: "987654321",
			Signature:  telegram.ComputeSignature(id, "987654321", "hook-secret"),
		}
		if err := v.ConfirmSigned(ctx, conf); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ConfirmSigned() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unbound telegram account", func(t *testing.T) {
		conf := SignedConfirmation{
			SessionID:  init.SessionID,
			TelegramID: "111111111",
			Signature:  telegram.ComputeSignature(init.SessionID, "111111111", "hook-secret"),
		}
		if err := v.ConfirmSigned(ctx, conf); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ConfirmSigned() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTelegramHandleUpdate(t *testing.T) {
	ctx := context.Background()
	messenger := &fakeMessenger{}
	v, dir := newTelegramFixture(messenger)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "987654321"})

	init, _ := v.Init(ctx)

	update := telegram.Update{
		Message: &telegram.Message{
			From: telegram.User{ID: 987654321, Username: "subscriber"},
			Chat: telegram.Chat{ID: 555},
			Text: "/start auth_" + init.SessionID,
		},
	}
	v.HandleUpdate(ctx, update)

	check, _ := v.Check(ctx, init.SessionID)
	if check.Status != TelegramStatusVerified {
		t.Fatalf("Check() status = %q, want verified after bot update", check.Status)
	}

	if !strings.Contains(messenger.lastMessage(), "успешна") {
		t.Errorf("bot reply = %q, want success message", messenger.lastMessage())
	}
	if messenger.chats[0] != 555 {
		t.Errorf("reply chat = %d, want 555", messenger.chats[0])
	}
}

func TestTelegramHandleUpdateBareStart(t *testing.T) {
	ctx := context.Background()
	messenger := &fakeMessenger{}
	v, _ := newTelegramFixture(messenger)

	v.HandleUpdate(ctx, telegram.Update{
		Message: &telegram.Message{Chat: telegram.Chat{ID: 555}, Text: "/start"},
	})
	if messenger.lastMessage() == "" {
		t.Error("bare /start got no greeting")
	}

	// Non-command chatter is ignored.
	before := len(messenger.messages)
	v.HandleUpdate(ctx, telegram.Update{
		Message: &telegram.Message{Chat: telegram.Chat{ID: 555}, Text: "привет"},
	})
	if len(messenger.messages) != before {
		t.Error("plain message triggered a reply")
	}

	v.HandleUpdate(ctx, telegram.Update{})
}

func TestTelegramCheckSingleWinner(t *testing.T) {
	ctx := context.Background()
	v, dir := newTelegramFixture(nil)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "987654321"})

	init, _ := v.Init(ctx)
	sig := telegram.ComputeSignature(init.SessionID, "987654321", "hook-secret")
	if err := v.ConfirmSigned(ctx, SignedConfirmation{SessionID: init.SessionID, TelegramID: "987654321", Signature: sig}); err != nil {
		t.Fatalf("ConfirmSigned() error = %v", err)
	}

	const polls = 8
	var wg sync.WaitGroup
	results := make(chan string, polls)
	for i := 0; i < polls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			check, err := v.Check(ctx, init.SessionID)
			if err != nil {
				results <- "error"
				return
			}
			results <- check.Status
		}()
	}
	wg.Wait()
	close(results)

	verified := 0
	for status := range results {
		if status == TelegramStatusVerified {
			verified++
		}
	}
	if verified != 1 {
		t.Errorf("verified polls = %d, want exactly 1", verified)
	}
}

func TestTelegramVerifyWidget(t *testing.T) {
	ctx := context.Background()
	v, dir := newTelegramFixture(nil)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "1"})

	// Building a live payload needs the real signing path; reuse the
	// verifier's token with a fresh auth_date.
	data := telegram.WidgetAuth{
		ID:        1,
		FirstName: "A",
		AuthDate:  time.Now().Unix(),
	}
	data.Hash = signWidgetForTest(data, "test-token")

	auth, err := v.VerifyWidget(ctx, data)
	if err != nil {
		t.Fatalf("VerifyWidget() error = %v", err)
	}
	if auth.Person.ID != 9 {
		t.Errorf("Person.ID = %d, want 9", auth.Person.ID)
	}
}

func TestTelegramVerifyWidgetRejections(t *testing.T) {
	ctx := context.Background()
	v, dir := newTelegramFixture(nil)
	dir.addPerson(domain.Identity{ID: 9, Status: domain.StatusActive, TelegramID: "1"})

	t.Run("bad hash", func(t *testing.T) {
		data := telegram.WidgetAuth{ID: 1, FirstName: "A", AuthDate: time.Now().Unix(), Hash: strings.Repeat("0", 64)}
		if _, err := v.VerifyWidget(ctx, data); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("VerifyWidget() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("replayed payload", func(t *testing.T) {
		data := telegram.WidgetAuth{ID: 1, FirstName: "A", AuthDate: time.Now().Unix() - telegram.WidgetReplayWindow - 60}
		data.Hash = signWidgetForTest(data, "test-token")
		if _, err := v.VerifyWidget(ctx, data); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("VerifyWidget() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unbound account", func(t *testing.T) {
		data := telegram.WidgetAuth{ID: 2, FirstName: "B", AuthDate: time.Now().Unix()}
		data.Hash = signWidgetForTest(data, "test-token")
		if _, err := v.VerifyWidget(ctx, data); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("VerifyWidget() error = %v, want ErrNotFound", err)
		}
	})
}
