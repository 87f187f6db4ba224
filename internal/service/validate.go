package service

import (
	"regexp"
	"strings"

	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperrors.NewValidationError("invalid email format", map[string]any{"field": "email"})
	}
	return nil
}

// normalizePhone canonicalizes Indonesian numbers to +62 form so that
// "0812-345", "62812 345" and "+62812345" all dedupe to the same record.
// Foreign numbers keep their country code.
func normalizePhone(raw string) (string, error) {
	var digits strings.Builder
	hasPlus := false
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			hasPlus = true
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separators tolerated
		default:
			return "", apperrors.NewValidationError("invalid phone number", map[string]any{"field": "phone"})
		}
	}

	number := digits.String()
	if len(number) < 8 || len(number) > 15 {
		return "", apperrors.NewValidationError("invalid phone number length", map[string]any{"field": "phone"})
	}

	switch {
	case hasPlus:
		return "+" + number, nil
	case strings.HasPrefix(number, "0"):
		return "+62" + number[1:], nil
	case strings.HasPrefix(number, "62"):
		return "+" + number, nil
	default:
		return "+62" + number, nil
	}
}
