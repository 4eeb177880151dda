package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidProfileID is returned when an encoded profile identifier cannot be decoded.
var ErrInvalidProfileID = errors.New("invalid profile identifier")

// EncodeProfileID returns the URL form of a driver uid used in /driver-profile/{id}.
//
// The encoding is base64url without padding. It only keeps raw uids out of
// URLs; it is NOT an access control mechanism. Access is decided by
// AuthorizeProfileAccess on the server.
func EncodeProfileID(uid string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(uid))
}

// DecodeProfileID reverses EncodeProfileID.
func DecodeProfileID(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", ErrInvalidProfileID
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidProfileID
	}
	if len(raw) == 0 || !utf8.Valid(raw) {
		return "", ErrInvalidProfileID
	}
	return string(raw), nil
}

// ProfilePath returns the driver profile page path for uid.
func ProfilePath(uid string) string {
	return "/driver-profile/" + EncodeProfileID(uid)
}
