// Package security implements the engine's SSRF guard: validating
// destination URLs before a node dials out, and again on every redirect hop
// (pkg/httpclient's Builder wires the second part).
//
// A workflow node's config routinely carries a caller-supplied or
// upstream-templated URL (the http node's "url" field is the obvious
// case), which makes it a request-forgery surface against the engine's own
// network position — internal services, cloud metadata endpoints, and
// loopback-bound admin ports included. Guard centralizes that check so
// every such node enforces the same policy instead of each reimplementing
// IP-range logic.
//
//	guard := security.NewSSRFProtectionWithConfig(security.SSRFConfig{
//	    BlockPrivateIPs:    true,
//	    BlockLocalhost:     true,
//	    BlockLinkLocal:     true,
//	    BlockCloudMetadata: true,
//	})
//	if err := guard.ValidateURL(requestURL); err != nil {
//	    return fmt.Errorf("rejected: %w", err)
//	}
//
// ValidateURL wraps its rejection in one of the package's sentinel errors
// (ErrInvalidURL, ErrSchemeNotAllowed, ErrDomainNotAllowed,
// ErrDestinationBlocked) so a caller can classify the failure with
// errors.Is rather than matching message text.
//
// A domain allowlist (SSRFConfig.AllowedDomains) is checked before the
// IP-range checks, not instead of them: an allowlisted hostname still
// resolves and has its IPs checked, and an empty allowlist means "no domain
// restriction", not "block everything".
package security
