// Package postal derives the 5-digit postal code used as the cache key.
package postal

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoPostalCode indicates no 5-digit postal code could be derived.
var ErrNoPostalCode = errors.New("no postal code found")

// Matches the first run of exactly five digits bounded by non-digits or the
// string edges. Longer digit runs (phone numbers, cadastral refs) never match.
var codePattern = regexp.MustCompile(`(?:^|\D)(\d{5})(?:\D|$)`)

// Extract returns the postal code for a request. A non-empty explicit code
// is trusted and returned verbatim after trimming; otherwise the address is
// scanned for the first word-bounded 5-digit run.
func Extract(postalCode, address string) (string, error) {
	if trimmed := strings.TrimSpace(postalCode); trimmed != "" {
		return trimmed, nil
	}

	match := codePattern.FindStringSubmatch(address)
	if match == nil {
		return "", ErrNoPostalCode
	}

	return match[1], nil
}
