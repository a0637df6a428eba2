package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pg19/portal-auth/internal/domain"
)

const errRequestFailed = "directus request failed: %w"

// DirectusClient resolves identities through the Directus REST API using a
// static service token. Phone numbers are stored inconsistently across
// imports, so FindByPhone retries the known legacy formats before giving up.
type DirectusClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.Directory = (*DirectusClient)(nil)

func NewDirectusClient(baseURL, token string, logger *slog.Logger) *DirectusClient {
	return &DirectusClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "directus"),
	}
}

type itemsResponse[T any] struct {
	Data []T `json:"data"`
}

func (c *DirectusClient) getItems(ctx context.Context, collection string, query url.Values, out any) error {
	reqURL := fmt.Sprintf("%s/items/%s?%s", c.baseURL, collection, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(errRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("directus returned %d for %s", resp.StatusCode, collection)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directus response: %w", err)
	}
	return nil
}

func (c *DirectusClient) findPersonByField(ctx context.Context, field, value string) (*domain.Identity, error) {
	query := url.Values{}
	query.Set(fmt.Sprintf("filter[%s][_eq]", field), value)
	query.Set("limit", "1")
	query.Set("fields", "id,status,first_name,last_name,phone,email,telegram_id,telegram_username")

	var result itemsResponse[domain.Identity]
	if err := c.getItems(ctx, "persons", query, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

func (c *DirectusClient) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	// phone arrives normalized as 7XXXXXXXXXX; stored values vary.
	candidates := []string{
		"+" + phone,
		phone,
		"8" + phone[1:],
		formatPhone(phone),
	}

	for _, candidate := range candidates {
		person, err := c.findPersonByField(ctx, "phone", candidate)
		if err != nil {
			return nil, err
		}
		if person != nil {
			return person, nil
		}
	}
	return nil, nil
}

// formatPhone renders 7XXXXXXXXXX as "+7 (XXX) XXX-XX-XX", the format the
// CRM import script produced.
func formatPhone(phone string) string {
	if len(phone) != 11 {
		return phone
	}
	return fmt.Sprintf("+7 (%s) %s-%s-%s", phone[1:4], phone[4:7], phone[7:9], phone[9:])
}

func (c *DirectusClient) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return c.findPersonByField(ctx, "email", email)
}

func (c *DirectusClient) FindByTelegramID(ctx context.Context, telegramID string) (*domain.Identity, error) {
	return c.findPersonByField(ctx, "telegram_id", telegramID)
}

type contractItem struct {
	ID     int64           `json:"id"`
	Number string          `json:"number"`
	Status string          `json:"status"`
	Person domain.Identity `json:"person"`
}

func (c *DirectusClient) FindByContractNumber(ctx context.Context, number string) (*domain.ContractRecord, error) {
	query := url.Values{}
	query.Set("filter[number][_eq]", number)
	query.Set("limit", "1")
	query.Set("fields", "id,number,status,person.id,person.status,person.first_name,person.last_name")

	var result itemsResponse[contractItem]
	if err := c.getItems(ctx, "contracts", query, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}

	item := result.Data[0]
	accounts, err := c.findAccounts(ctx, item.Person.ID)
	if err != nil {
		return nil, err
	}

	return &domain.ContractRecord{
		Person: item.Person,
		Contract: domain.Contract{
			ID:     item.ID,
			Number: item.Number,
			Status: item.Status,
		},
		Accounts: accounts,
	}, nil
}

func (c *DirectusClient) findAccounts(ctx context.Context, personID int64) ([]domain.Account, error) {
	query := url.Values{}
	query.Set("filter[person][_eq]", strconv.FormatInt(personID, 10))
	query.Set("fields", "id,number,balance,tariff")

	var result itemsResponse[domain.Account]
	if err := c.getItems(ctx, "accounts", query, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *DirectusClient) GetAuthData(ctx context.Context, personID int64) (*domain.AuthData, error) {
	person, err := c.findPersonByField(ctx, "id", strconv.FormatInt(personID, 10))
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}

	accounts, err := c.findAccounts(ctx, personID)
	if err != nil {
		return nil, err
	}

	return &domain.AuthData{
		Person:   *person,
		Accounts: accounts,
	}, nil
}

func (c *DirectusClient) UpdateTelegramUsername(ctx context.Context, personID int64, username string) error {
	body := strings.NewReader(fmt.Sprintf(`{"telegram_username":%q}`, username))
	reqURL := fmt.Sprintf("%s/items/persons/%d", c.baseURL, personID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(errRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("directus returned %d updating person %d", resp.StatusCode, personID)
	}
	return nil
}
