package model

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

const (
	phoneDigits      = 10
	countryCode      = "+234"
	minPasswordLen   = 8
	maxReviewComment = 250
	maxNameLen       = 100
)

// FormatPhoneNumber strips a leading "+234" (or a bare "+"), drops every
// non-digit and truncates the result to ten digits.
func FormatPhoneNumber(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, countryCode):
		s = s[len(countryCode):]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == phoneDigits {
				break
			}
		}
	}
	return b.String()
}

// NormalizePhone formats raw and returns it in stored international form.
// It reports false unless exactly ten local digits remain.
func NormalizePhone(raw string) (string, bool) {
	d := FormatPhoneNumber(raw)
	if len(d) != phoneDigits {
		return "", false
	}
	return countryCode + d, true
}

// ValidPassword reports whether pw has at least eight characters including a
// letter and a digit.
func ValidPassword(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return false
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// ValidEmail reports whether addr is a bare address whose host has a
// registrable domain under the public suffix list.
func ValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return false
	}
	at := strings.LastIndexByte(addr, '@')
	host := strings.ToLower(addr[at+1:])
	if !strings.Contains(host, ".") {
		return false
	}
	_, err = publicsuffix.EffectiveTLDPlusOne(host)
	return err == nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ValidReviewComment reports whether comment has between 1 and 250 characters
// after trimming.
func ValidReviewComment(comment string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(comment))
	return n >= 1 && n <= maxReviewComment
}
