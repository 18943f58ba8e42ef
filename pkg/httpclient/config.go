package httpclient

import (
	"fmt"
	"time"
)

// AuthType selects how a named client authenticates its outbound requests.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)

// ClientConfig is the declarative shape of one named HTTP client: the http
// node's config maps onto this (§4.4's built-in "http" kind), and a caller
// embedding the engine can build clients from it with a Builder to share
// auth/timeout settings across many requests.
type ClientConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	AuthType AuthType `json:"auth_type,omitempty" yaml:"auth_type,omitempty"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string   `json:"token,omitempty" yaml:"token,omitempty"`

	Timeout             time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxIdleConns        int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty"`
	MaxConnsPerHost     int           `json:"max_conns_per_host,omitempty" yaml:"max_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout,omitempty" yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout,omitempty" yaml:"tls_handshake_timeout,omitempty"`
	DisableKeepAlives   bool          `json:"disable_keep_alives,omitempty" yaml:"disable_keep_alives,omitempty"`

	MaxRedirects    int   `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty"`
	MaxResponseSize int64 `json:"max_response_size,omitempty" yaml:"max_response_size,omitempty"`
	FollowRedirects bool  `json:"follow_redirects,omitempty" yaml:"follow_redirects,omitempty"`

	DefaultHeaders     map[string]string `json:"default_headers,omitempty" yaml:"default_headers,omitempty"`
	DefaultQueryParams map[string]string `json:"default_query_params,omitempty" yaml:"default_query_params,omitempty"`
	BaseURL            string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Validate rejects a config whose auth fields are incomplete or whose
// numeric fields can't be negative.
func (c *ClientConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("client name is required")
	}
	switch c.AuthType {
	case "", AuthTypeNone:
	case AuthTypeBasic:
		if c.Username == "" {
			return fmt.Errorf("username is required for basic auth")
		}
		if c.Password == "" {
			return fmt.Errorf("password is required for basic auth")
		}
	case AuthTypeBearer:
		if c.Token == "" {
			return fmt.Errorf("token is required for bearer auth")
		}
	default:
		return fmt.Errorf("invalid auth_type: %s (must be one of: none, basic, bearer)", c.AuthType)
	}
	for name, v := range map[string]time.Duration{
		"timeout":               c.Timeout,
		"idle_conn_timeout":     c.IdleConnTimeout,
		"tls_handshake_timeout": c.TLSHandshakeTimeout,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	for name, v := range map[string]int{
		"max_idle_conns":          c.MaxIdleConns,
		"max_idle_conns_per_host": c.MaxIdleConnsPerHost,
		"max_conns_per_host":      c.MaxConnsPerHost,
		"max_redirects":           c.MaxRedirects,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("max_response_size cannot be negative")
	}
	return nil
}

// ApplyDefaults fills unset network/security fields with the engine's
// conservative defaults. FollowRedirects has no zero-value default (its
// Go zero value, false, is itself a valid, meaningful setting).
func (c *ClientConfig) ApplyDefaults() {
	if c.AuthType == "" {
		c.AuthType = AuthTypeNone
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.MaxConnsPerHost == 0 {
		c.MaxConnsPerHost = 100
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = 10 * time.Second
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = 10
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = 10 * 1024 * 1024
	}
}

// Clone deep-copies the two map fields so a caller can hand out a
// ClientConfig per invocation without aliasing the registered original.
func (c *ClientConfig) Clone() *ClientConfig {
	clone := *c
	if c.DefaultHeaders != nil {
		clone.DefaultHeaders = make(map[string]string, len(c.DefaultHeaders))
		for k, v := range c.DefaultHeaders {
			clone.DefaultHeaders[k] = v
		}
	}
	if c.DefaultQueryParams != nil {
		clone.DefaultQueryParams = make(map[string]string, len(c.DefaultQueryParams))
		for k, v := range c.DefaultQueryParams {
			clone.DefaultQueryParams[k] = v
		}
	}
	return &clone
}
