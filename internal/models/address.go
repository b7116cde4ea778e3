package models

import (
	"regexp"
	"strings"
)

var walletAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// NormalizeAddress returns the canonical (trimmed, lowercase) form of a wallet
// address. Two addresses denote the same identity iff their canonical forms
// are equal.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares wallet addresses case-insensitively.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// IsValidWalletAddress reports whether addr is "0x" followed by 40 hex digits.
func IsValidWalletAddress(addr string) bool {
	return walletAddressRe.MatchString(strings.TrimSpace(addr))
}
