package messaging

import (
	"errors"
	"strings"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizeE164 turns a loosely formatted phone number into +<country><number>.
// Bare 10-digit numbers get the default country code.
func NormalizeE164(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	hasPlus := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case hasPlus && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	case len(digits) == 10:
		return "+" + constants.DefaultCountry + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, constants.DefaultCountry):
		return "+" + digits, nil
	}
	return "", ErrInvalidPhone
}
