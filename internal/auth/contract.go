package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/session"
)

// ContractVerifier is the stateless channel: contract number plus full name,
// checked in one shot against the directory.
type ContractVerifier struct {
	directory domain.Directory
	logger    *slog.Logger
}

func NewContractVerifier(directory domain.Directory, logger *slog.Logger) *ContractVerifier {
	return &ContractVerifier{
		directory: directory,
		logger:    logger.With("channel", session.ChannelContract),
	}
}

func (v *ContractVerifier) Login(ctx context.Context, contractNumber, fullName string) (*domain.AuthData, error) {
	contractNumber = strings.TrimSpace(contractNumber)
	if contractNumber == "" || strings.TrimSpace(fullName) == "" {
		return nil, domain.E(domain.ErrInvalidInput, "Заполните все поля")
	}

	// Name validation happens before any lookup: a single token never
	// reaches the directory.
	lastName, firstName, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	record, err := v.directory.FindByContractNumber(upCtx, contractNumber)
	if err != nil {
		return nil, unavailable(err)
	}
	if record == nil {
		return nil, domain.E(domain.ErrNotFound, "Договор не найден")
	}

	person := record.Person
	if !strings.EqualFold(person.LastName, lastName) || !strings.EqualFold(person.FirstName, firstName) {
		return nil, domain.E(domain.ErrUnauthorized, "ФИО не совпадает с данными договора")
	}

	if person.Status == domain.StatusTerminated {
		return nil, domain.E(domain.ErrForbidden, "Договор расторгнут")
	}
	if record.Contract.Status != domain.StatusActive {
		return nil, domain.E(domain.ErrForbidden, "Договор не активен")
	}

	v.logger.Info("Contract auth verified", "person_id", person.ID)

	return &domain.AuthData{
		Person:   person,
		Contract: &record.Contract,
		Accounts: record.Accounts,
	}, nil
}
