// Package phone normalizes caller phone numbers to E.164 so that
// dialer requests and lead records share a single canonical format.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when a number carries no country prefix.
const DefaultRegion = "US"

// NormalizeE164 parses a raw phone string and returns it in E.164 form
// (+14155551234). Input without a leading + is interpreted as a
// DefaultRegion number. Returns an error for unparseable input.
func NormalizeE164(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), DefaultRegion)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsValid reports whether raw parses as a valid phone number for the
// default region. Used by the intake validator as a soft check: invalid
// numbers are stored as-received rather than rejected.
func IsValid(raw string) bool {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), DefaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
