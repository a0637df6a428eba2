package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pg19/portal-auth/internal/domain"
)

// Postgres reads the CMS collections straight from its database. Useful when
// the service is co-located with the CMS and the REST hop is just overhead.
// The schema belongs to the CMS; this adapter only ever reads, except for the
// telegram_username write-back.
type Postgres struct {
	db *sql.DB
}

var _ domain.Directory = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const personColumns = `id, status, first_name, last_name,
	COALESCE(phone, ''), COALESCE(email, ''),
	COALESCE(telegram_id, ''), COALESCE(telegram_username, '')`

func (p *Postgres) scanPerson(row *sql.Row) (*domain.Identity, error) {
	var person domain.Identity
	err := row.Scan(
		&person.ID,
		&person.Status,
		&person.FirstName,
		&person.LastName,
		&person.Phone,
		&person.Email,
		&person.TelegramID,
		&person.TelegramUsername,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}
	return &person, nil
}

func (p *Postgres) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	// Stored formats vary; strip everything non-numeric and compare the
	// trailing ten digits.
	query := fmt.Sprintf(`
		SELECT %s FROM persons
		WHERE RIGHT(REGEXP_REPLACE(phone, '\D', '', 'g'), 10) = RIGHT($1, 10)
		LIMIT 1
	`, personColumns)
	return p.scanPerson(p.db.QueryRowContext(ctx, query, phone))
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE LOWER(email) = $1 LIMIT 1`, personColumns)
	return p.scanPerson(p.db.QueryRowContext(ctx, query, email))
}

func (p *Postgres) FindByTelegramID(ctx context.Context, telegramID string) (*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE telegram_id = $1 LIMIT 1`, personColumns)
	return p.scanPerson(p.db.QueryRowContext(ctx, query, telegramID))
}

func (p *Postgres) FindByContractNumber(ctx context.Context, number string) (*domain.ContractRecord, error) {
	query := `
		SELECT c.id, c.number, c.status,
			p.id, p.status, p.first_name, p.last_name
		FROM contracts c
		JOIN persons p ON p.id = c.person
		WHERE c.number = $1
		LIMIT 1
	`

	var record domain.ContractRecord
	err := p.db.QueryRowContext(ctx, query, number).Scan(
		&record.Contract.ID,
		&record.Contract.Number,
		&record.Contract.Status,
		&record.Person.ID,
		&record.Person.Status,
		&record.Person.FirstName,
		&record.Person.LastName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query contract: %w", err)
	}

	accounts, err := p.findAccounts(ctx, record.Person.ID)
	if err != nil {
		return nil, err
	}
	record.Accounts = accounts

	return &record, nil
}

func (p *Postgres) findAccounts(ctx context.Context, personID int64) ([]domain.Account, error) {
	query := `
		SELECT id, number, balance, COALESCE(tariff, '')
		FROM accounts
		WHERE person = $1
		ORDER BY id
	`

	rows, err := p.db.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Number, &account.Balance, &account.Tariff); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (p *Postgres) GetAuthData(ctx context.Context, personID int64) (*domain.AuthData, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id = $1 LIMIT 1`, personColumns)
	person, err := p.scanPerson(p.db.QueryRowContext(ctx, query, personID))
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}

	accounts, err := p.findAccounts(ctx, personID)
	if err != nil {
		return nil, err
	}

	return &domain.AuthData{
		Person:   *person,
		Accounts: accounts,
	}, nil
}

func (p *Postgres) UpdateTelegramUsername(ctx context.Context, personID int64, username string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE persons SET telegram_username = $1 WHERE id = $2`,
		username, personID,
	)
	if err != nil {
		return fmt.Errorf("update telegram username: %w", err)
	}
	return nil
}
