package engine

import (
	"context"
	"regexp"
	"strings"
)

var (
	nameToken  = regexp.MustCompile(`(?i)\{name\}`)
	phoneToken = regexp.MustCompile(`(?i)\{phone\}`)
)

// RenderBody resolves the {name} and {phone} tokens (case-insensitive, all
// occurrences) against one recipient. The stored template is never mutated;
// a fresh string comes back per recipient.
//
// The name lookup is only invoked when {name} actually appears in the body.
// A failed or empty lookup falls back to the recipient's phone number.
func RenderBody(ctx context.Context, body, phone string, lookupName func(context.Context) (string, error)) string {
	out := phoneToken.ReplaceAllLiteralString(body, phone)

	if nameToken.MatchString(out) {
		name := ""
		if lookupName != nil {
			if n, err := lookupName(ctx); err == nil {
				name = strings.TrimSpace(n)
			}
		}
		if name == "" {
			name = phone
		}
		out = nameToken.ReplaceAllLiteralString(out, name)
	}
	return out
}
