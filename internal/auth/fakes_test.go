package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/telegram"
)

// signWidgetForTest produces a valid login-widget hash the way Telegram's
// servers do, so tests can mint live payloads for arbitrary auth dates.
func signWidgetForTest(data telegram.WidgetAuth, botToken string) string {
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

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDirectory struct {
	mu         sync.Mutex
	byPhone    map[string]*domain.Identity
	byEmail    map[string]*domain.Identity
	byTelegram map[string]*domain.Identity
	byContract map[string]*domain.ContractRecord
	authData   map[int64]*domain.AuthData
	usernames  map[int64]string

	err error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byPhone:    make(map[string]*domain.Identity),
		byEmail:    make(map[string]*domain.Identity),
		byTelegram: make(map[string]*domain.Identity),
		byContract: make(map[string]*domain.ContractRecord),
		authData:   make(map[int64]*domain.AuthData),
		usernames:  make(map[int64]string),
	}
}

func (d *fakeDirectory) addPerson(p domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := p
	if p.Phone != "" {
		d.byPhone[p.Phone] = &cp
	}
	if p.Email != "" {
		d.byEmail[p.Email] = &cp
	}
	if p.TelegramID != "" {
		d.byTelegram[p.TelegramID] = &cp
	}
	d.authData[p.ID] = &domain.AuthData{Person: cp}
}

func (d *fakeDirectory) FindByPhone(_ context.Context, phone string) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.byPhone[phone], nil
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.byEmail[email], nil
}

func (d *fakeDirectory) FindByTelegramID(_ context.Context, telegramID string) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.byTelegram[telegramID], nil
}

func (d *fakeDirectory) FindByContractNumber(_ context.Context, number string) (*domain.ContractRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.byContract[number], nil
}

func (d *fakeDirectory) GetAuthData(_ context.Context, personID int64) (*domain.AuthData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.authData[personID], nil
}

func (d *fakeDirectory) UpdateTelegramUsername(_ context.Context, personID int64, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.usernames[personID] = username
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // codes, in order
	to    []string
	err   error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, code)
	return nil
}

func (m *fakeMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

type fakeCalls struct {
	received bool
	err      error
}

func (c *fakeCalls) HasIncomingCall(_ context.Context, _ string, _ time.Time) (bool, error) {
	return c.received, c.err
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []string
	chats    []int64
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = append(m.chats, chatID)
	m.messages = append(m.messages, text)
	return nil
}

func (m *fakeMessenger) lastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[len(m.messages)-1]
}
