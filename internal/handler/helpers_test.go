package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/response"
)

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrorCode
	}{
		{name: "not found", err: domain.E(domain.ErrNotFound, "Сессия истекла"), wantStatus: 404, wantCode: response.ErrCodeNotFound},
		{name: "invalid input", err: domain.E(domain.ErrInvalidInput, "Неверный формат"), wantStatus: 400, wantCode: response.ErrCodeInvalidPayload},
		{name: "unauthorized", err: domain.E(domain.ErrUnauthorized, "Неверный код"), wantStatus: 401, wantCode: response.ErrCodeUnauthorized},
		{name: "forbidden", err: domain.E(domain.ErrForbidden, "Договор расторгнут"), wantStatus: 403, wantCode: response.ErrCodeForbidden},
		{name: "rate limited", err: domain.E(domain.ErrRateLimited, "Слишком много попыток"), wantStatus: 429, wantCode: response.ErrCodeRateLimited},
		{name: "unavailable", err: domain.E(domain.ErrUnavailable, "Сервис недоступен"), wantStatus: 503, wantCode: response.ErrCodeUnavailable},
		{name: "unclassified", err: assertError("boom"), wantStatus: 500, wantCode: response.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return HandleDomainError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var envelope response.Envelope
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if envelope.Success {
				t.Error("envelope.Success = true on error")
			}
			if envelope.Error == nil || envelope.Error.Code != tt.wantCode {
				t.Errorf("envelope.Error = %+v, want code %s", envelope.Error, tt.wantCode)
			}
		})
	}
}

type assertError string

func (e assertError) Error() string { return string(e) }
