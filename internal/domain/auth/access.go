package auth

// Decision is the outcome of a profile access check.
type Decision int

const (
	// Allow grants access to the requested profile.
	Allow Decision = iota
	// DenyUnauthenticated means no valid session was presented.
	DenyUnauthenticated
	// DenyUndecodable means the identifier in the URL could not be decoded.
	DenyUndecodable
	// DenyMismatch means the session belongs to a different driver.
	DenyMismatch
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyUndecodable:
		return "undecodable"
	case DenyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool { return d == Allow }

// AuthorizeProfileAccess decides whether session may open the profile addressed by
// encodedID (the EncodeProfileID form carried in the URL).
//
// It is the single authorization rule for driver profiles: the edge interceptor
// and the page handler both call it with the same inputs and therefore always agree.
func AuthorizeProfileAccess(session *Session, encodedID string) Decision {
	if session.IsGuest() {
		return DenyUnauthenticated
	}
	uid, err := DecodeProfileID(encodedID)
	if err != nil {
		return DenyUndecodable
	}
	if uid != session.UserID {
		return DenyMismatch
	}
	return Allow
}
