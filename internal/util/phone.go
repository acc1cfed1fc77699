package util

import "strings"

// NormalizePhone turns a raw phone string into the international digit form
// the gateway clients expect: punctuation stripped, a leading trunk "0"
// replaced by the default country code, and the country code prepended when
// absent. countryCode is digits only, e.g. "972".
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	p := b.String()
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "0") {
		return countryCode + p[1:]
	}
	if !strings.HasPrefix(p, countryCode) {
		return countryCode + p
	}
	return p
}
