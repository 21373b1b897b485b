package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// QueryPrefix is the label every dictionary record lives under.
const QueryPrefix = "_marqant."

// queryProfile maps labels for lookup but allows '_' and other non-hostname
// ASCII, since dictionary names are not host names.
var queryProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.Transitional(false),
)

// Normalize folds case, composes to NFC and converts name to its ASCII form.
// Equivalent spellings of a name normalize to the same string.
func Normalize(name string) (string, error) {
	s := strings.TrimSuffix(strings.TrimSpace(name), ".")
	if s == "" {
		return "", fmt.Errorf("empty name")
	}
	s = norm.NFC.String(cases.Fold().String(s))

	ascii, err := queryProfile.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid domain name: %w", name, err)
	}
	if strings.ContainsAny(ascii, " \t\r\n\"\\") {
		return "", fmt.Errorf("%q contains characters not allowed in a query name", name)
	}
	return ascii, nil
}

// QueryName derives the record name for a dictionary: "_marqant.<name>"
// followed by zone when zone is set.
func QueryName(name, zone string) (string, error) {
	n, err := Normalize(name)
	if err != nil {
		return "", err
	}
	q := QueryPrefix + n
	if z := strings.Trim(strings.TrimSpace(zone), "."); z != "" {
		zn, err := Normalize(z)
		if err != nil {
			return "", fmt.Errorf("zone: %w", err)
		}
		q += "." + zn
	}
	return q, nil
}
