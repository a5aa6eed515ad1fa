package common

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases an email
// address. Identities are keyed by the normalized form, so every lookup and
// every comparison must go through here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// WipeByteArray overwrites the buffer with zeros. Used to scrub password
// bytes once they are no longer needed. Safe to call with nil.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
