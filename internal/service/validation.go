package service

import (
	"net/mail"
	"strings"

	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// NormalizeEmail trims and lower-cases an address before any lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]any

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

// bcrypt only reads the first 72 bytes of its input.
const maxPasswordBytes = 72

func (f fieldErrors) password(field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		f[field] = "is required"
	case len(value) > maxPasswordBytes:
		f[field] = "must be at most 72 bytes"
	}
}

func (f fieldErrors) email(field, value string) {
	if value == "" {
		f[field] = "is required"
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		f[field] = "must be a valid email address"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError("Invalid input.", f)
}
