// Package checkout transforms a captured lead into the parameter shape the
// external checkout provider expects and builds the hand-off URL.
package checkout

import (
	"fmt"
	"net/url"
	"strings"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
)

// localNumberThreshold is the minimum digit count (after the country code)
// for the area-code/local-number split to apply.
const localNumberThreshold = 10

// Formatter normalizes leads for the checkout provider.
type Formatter struct {
	baseURL     string
	countryCode string
}

// NewFormatter validates the checkout target and the required country-code
// prefix. countryCode must be digits only.
func NewFormatter(baseURL, countryCode string) (*Formatter, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid checkout base url %q", baseURL)
	}
	if countryCode == "" || strings.Trim(countryCode, "0123456789") != "" {
		return nil, fmt.Errorf("country code must be digits, got %q", countryCode)
	}
	return &Formatter{baseURL: baseURL, countryCode: countryCode}, nil
}

// Format returns the normalized checkout parameters for a lead. The phone is
// reduced to digits, prefixed with the country code exactly once, then split
// into area code and local number. The split is total: short or malformed
// numbers degrade to an area-only value, never an error.
func (f *Formatter) Format(lead v1.Lead) url.Values {
	area, local := f.SplitPhone(lead.Phone)

	params := url.Values{}
	params.Set("name", lead.Name)
	params.Set("email", lead.Email)
	params.Set("phone_local_code", area)
	params.Set("phone_number", local)
	return params
}

// SplitPhone normalizes a raw phone input and splits it by the fixed rule:
// with at least 10 digits after the country code, the first 2 are the area
// code and the remainder the local number; shorter inputs keep every digit in
// the area field and leave the local number empty.
func (f *Formatter) SplitPhone(phone string) (area, local string) {
	digits := digitsOnly(phone)
	if !strings.HasPrefix(digits, f.countryCode) {
		digits = f.countryCode + digits
	}

	rest := digits[len(f.countryCode):]
	if len(rest) >= localNumberThreshold {
		return rest[:2], rest[2:]
	}
	return rest, ""
}

// CheckoutURL builds the full hand-off URL. A nil lead falls back to the bare
// checkout target so the redirect still works when rehydration failed.
func (f *Formatter) CheckoutURL(lead *v1.Lead) string {
	if lead == nil {
		return f.baseURL
	}

	sep := "?"
	if strings.Contains(f.baseURL, "?") {
		sep = "&"
	}
	return f.baseURL + sep + f.Format(*lead).Encode()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
