package auth

import (
	"regexp"
	"strings"

	"github.com/pg19/portal-auth/internal/domain"
)

var (
	nonDigits    = regexp.MustCompile(`\D`)
	russianPhone = regexp.MustCompile(`^7\d{10}$`)
)

// NormalizePhone canonicalizes a subscriber phone number to 7XXXXXXXXXX.
// Accepts the formats users actually type: "+7 (999) 123-45-67",
// "89991234567" and the bare ten-digit "9991234567".
func NormalizePhone(raw string) (string, error) {
	phone := nonDigits.ReplaceAllString(raw, "")

	if strings.HasPrefix(phone, "8") && len(phone) == 11 {
		phone = "7" + phone[1:]
	} else if strings.HasPrefix(phone, "9") && len(phone) == 10 {
		phone = "7" + phone
	}

	if !russianPhone.MatchString(phone) {
		return "", domain.E(domain.ErrInvalidInput, "Неверный формат номера телефона")
	}
	return phone, nil
}

// SplitFullName splits "Фамилия Имя [Отчество]" into last and first name.
// Anything after the first two tokens is ignored.
func SplitFullName(fullName string) (lastName, firstName string, err error) {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return "", "", domain.E(domain.ErrInvalidInput, "Введите фамилию и имя")
	}
	return parts[0], parts[1], nil
}
