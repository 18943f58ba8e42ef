// Package security guards the engine's outbound-request surface (the http
// node kind, any node a caller registers that dials a user-supplied URL)
// against server-side request forgery.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// SSRFConfig is a node's or client's declarative SSRF policy. Zero-value
// leaves everything unblocked except scheme, which defaults to http/https
// when AllowedSchemes is empty.
type SSRFConfig struct {
	AllowedSchemes     []string
	BlockPrivateIPs    bool
	BlockLocalhost     bool
	BlockLinkLocal     bool
	BlockCloudMetadata bool
	AllowedDomains     []string
	BlockedDomains     []string
}

// DefaultSSRFConfig blocks loopback, RFC1918, link-local, and cloud
// metadata destinations — the posture a workflow accepting a
// caller-influenced URL should start from.
func DefaultSSRFConfig() SSRFConfig {
	return SSRFConfig{
		AllowedSchemes:     []string{"http", "https"},
		BlockPrivateIPs:    true,
		BlockLocalhost:     true,
		BlockLinkLocal:     true,
		BlockCloudMetadata: true,
	}
}

// Guard evaluates a URL against a resolved SSRFConfig.
type Guard struct {
	allowedSchemes     map[string]bool
	blockPrivateIPs    bool
	blockLocalhost     bool
	blockLinkLocal     bool
	blockCloudMetadata bool
	allowedDomains     map[string]bool
	blockedDomains     map[string]bool
}

func NewSSRFProtection() *Guard {
	return NewSSRFProtectionWithConfig(DefaultSSRFConfig())
}

func NewSSRFProtectionWithConfig(config SSRFConfig) *Guard {
	g := &Guard{
		blockPrivateIPs:    config.BlockPrivateIPs,
		blockLocalhost:     config.BlockLocalhost,
		blockLinkLocal:     config.BlockLinkLocal,
		blockCloudMetadata: config.BlockCloudMetadata,
		allowedSchemes:     make(map[string]bool),
		allowedDomains:     make(map[string]bool),
		blockedDomains:     make(map[string]bool),
	}

	if len(config.AllowedSchemes) == 0 {
		g.allowedSchemes["http"] = true
		g.allowedSchemes["https"] = true
	} else {
		for _, scheme := range config.AllowedSchemes {
			g.allowedSchemes[strings.ToLower(scheme)] = true
		}
	}
	for _, domain := range config.AllowedDomains {
		g.allowedDomains[strings.ToLower(domain)] = true
	}
	for _, domain := range config.BlockedDomains {
		g.blockedDomains[strings.ToLower(domain)] = true
	}
	return g
}

// ValidateURL parses urlStr and rejects it if its scheme, hostname, or any
// IP the hostname resolves to violates the guard's policy. An unresolvable
// hostname that passes the static hostname checks is allowed through —
// DNS failures aren't this guard's concern.
func (g *Guard) ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("%w: missing scheme", ErrInvalidURL)
	}

	if !g.allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("%w: %s (allowed: %v)", ErrSchemeNotAllowed, parsed.Scheme, g.schemeList())
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	hostname = strings.ToLower(hostname)

	if g.blockedDomains[hostname] {
		return fmt.Errorf("%w: %s is on the blocklist", ErrDestinationBlocked, hostname)
	}
	if len(g.allowedDomains) > 0 && !g.allowedDomains[hostname] {
		return fmt.Errorf("%w: %s", ErrDomainNotAllowed, hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if err := g.checkIP(ip); err != nil {
			return fmt.Errorf("%s: %w", hostname, err)
		}
		return nil
	}

	if err := g.checkHostname(hostname); err != nil {
		return err
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := g.checkIP(ip); err != nil {
			return fmt.Errorf("%s (%s): %w", hostname, ip, err)
		}
	}
	return nil
}

func (g *Guard) checkIP(ip net.IP) error {
	switch {
	case g.blockLocalhost && isLocalhost(ip):
		return fmt.Errorf("%w: localhost", ErrDestinationBlocked)
	case g.blockPrivateIPs && isPrivateIP(ip):
		return fmt.Errorf("%w: private IP range", ErrDestinationBlocked)
	case g.blockLinkLocal && isLinkLocal(ip):
		return fmt.Errorf("%w: link-local address", ErrDestinationBlocked)
	case g.blockCloudMetadata && isCloudMetadata(ip):
		return fmt.Errorf("%w: cloud metadata endpoint", ErrDestinationBlocked)
	}
	return nil
}

// checkHostname catches the localhost/metadata aliases a raw IP check
// would miss because they're names, not addresses, until resolved.
func (g *Guard) checkHostname(hostname string) error {
	if g.blockLocalhost {
		for _, name := range []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"} {
			if hostname == name {
				return fmt.Errorf("%w: localhost", ErrDestinationBlocked)
			}
		}
	}
	if g.blockCloudMetadata {
		for _, name := range []string{"169.254.169.254", "metadata.google.internal", "metadata.azure.com"} {
			if hostname == name {
				return fmt.Errorf("%w: cloud metadata endpoint", ErrDestinationBlocked)
			}
		}
	}
	return nil
}

func (g *Guard) schemeList() []string {
	schemes := make([]string, 0, len(g.allowedSchemes))
	for scheme := range g.allowedSchemes {
		schemes = append(schemes, scheme)
	}
	return schemes
}

func isLocalhost(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 0 && ipv4[1] == 0 && ipv4[2] == 0 && ipv4[3] == 0
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		switch {
		case ipv4[0] == 10:
			return true
		case ipv4[0] == 172 && ipv4[1] >= 16 && ipv4[1] <= 31:
			return true
		case ipv4[0] == 192 && ipv4[1] == 168:
			return true
		}
		return false
	}
	// ULA: fc00::/7
	return len(ip) == 16 && (ip[0]&0xfe) == 0xfc
}

func isLinkLocal(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254
	}
	if len(ip) == 16 && ip[0] == 0xfe && (ip[1]&0xc0) == 0x80 {
		return true
	}
	return ip.IsLinkLocalUnicast()
}

// isCloudMetadata checks the address AWS/GCP/Azure all serve their
// instance-metadata API from (169.254.169.254, plus its AWS IMDSv2 IPv6
// form fd00:ec2::254).
func isCloudMetadata(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254 && ipv4[2] == 169 && ipv4[3] == 254
	}
	if len(ip) != 16 || ip[0] != 0xfd || ip[1] != 0x00 || ip[2] != 0x0e || ip[3] != 0xc2 {
		return false
	}
	for i := 4; i < 14; i++ {
		if ip[i] != 0 {
			return false
		}
	}
	return ip[14] == 0x02 && ip[15] == 0x54
}
