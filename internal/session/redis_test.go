package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisTable(t *testing.T) (*RedisTable[EmailSession], *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTable[EmailSession](client, "auth:email:", EmailTTL), mr
}

func TestRedisTableCreateGet(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestRedisTable(t)

	session := EmailSession{Email: "user@example.com", Code: "123456", PersonID: 7}
	if err := table.Create(ctx, "s1", session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, ok, err := table.Get(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, want found", ok, err)
	}
	if got != session {
		t.Errorf("Get() = %+v, want %+v", got, session)
	}

	if _, ok, _ := table.Get(ctx, "missing"); ok {
		t.Error("Get(missing) reported found")
	}
}

func TestRedisTableExpiry(t *testing.T) {
	ctx := context.Background()
	table, mr := newTestRedisTable(t)

	table.Create(ctx, "s1", EmailSession{Email: "user@example.com"})

	mr.FastForward(EmailTTL + time.Second)

	if _, ok, _ := table.Get(ctx, "s1"); ok {
		t.Error("Get() returned a session past its TTL")
	}
}

func TestRedisTableMutate(t *testing.T) {
	ctx := context.Background()
	table, mr := newTestRedisTable(t)

	table.Create(ctx, "s1", EmailSession{Email: "user@example.com", Code: "123456"})

	ok, err := table.Mutate(ctx, "s1", func(s *EmailSession) bool {
		s.Attempts++
		return true
	})
	if err != nil || !ok {
		t.Fatalf("Mutate() = %v, %v, want applied", ok, err)
	}

	got, _, _ := table.Get(ctx, "s1")
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", got.Attempts)
	}

	// TTL must survive a mutation, not reset to the full window.
	mr.FastForward(EmailTTL - time.Second)
	table.Mutate(ctx, "s1", func(s *EmailSession) bool {
		s.Attempts++
		return true
	})
	mr.FastForward(2 * time.Second)
	if _, ok, _ := table.Get(ctx, "s1"); ok {
		t.Error("Mutate() extended the session TTL")
	}

	if ok, _ := table.Mutate(ctx, "missing", func(s *EmailSession) bool { return true }); ok {
		t.Error("Mutate(missing) reported found")
	}
}

func TestRedisTableMutateDiscard(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestRedisTable(t)

	table.Create(ctx, "s1", EmailSession{Email: "user@example.com"})

	ok, err := table.Mutate(ctx, "s1", func(s *EmailSession) bool { return false })
	if err != nil || !ok {
		t.Fatalf("Mutate() = %v, %v, want found", ok, err)
	}
	if _, ok, _ := table.Get(ctx, "s1"); ok {
		t.Error("record survived a discarding Mutate")
	}
}

func TestRedisTableDelete(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestRedisTable(t)

	table.Create(ctx, "s1", EmailSession{})

	if won, _ := table.Delete(ctx, "s1"); !won {
		t.Error("first Delete() lost")
	}
	if won, _ := table.Delete(ctx, "s1"); won {
		t.Error("second Delete() won")
	}
}

func TestRedisStorePrefixes(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client)

	store.Phone.Create(ctx, "id", PhoneSession{Phone: "79991234567"})
	store.Email.Create(ctx, "id", EmailSession{Email: "user@example.com"})
	store.Telegram.Create(ctx, "id", TelegramSession{Status: TelegramPending})

	for _, key := range []string{"auth:phone:id", "auth:email:id", "auth:tg:id"} {
		if !mr.Exists(key) {
			t.Errorf("key %q not written", key)
		}
	}

	// Native TTLs make Sweep a no-op.
	if n := store.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d, want 0", n)
	}
}
