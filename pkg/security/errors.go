package security

import "errors"

// Sentinel errors ValidateURL wraps so a caller can classify a rejection
// with errors.Is instead of parsing the message.
var (
	ErrInvalidURL         = errors.New("invalid URL")
	ErrSchemeNotAllowed   = errors.New("URL scheme not allowed")
	ErrDomainNotAllowed   = errors.New("domain not in allowlist")
	ErrDestinationBlocked = errors.New("destination blocked by SSRF policy")
)
