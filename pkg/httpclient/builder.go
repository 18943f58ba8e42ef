package httpclient

import (
	"fmt"
	"net/http"

	"github.com/flowcraft/dagrunner/pkg/security"
)

// Client pairs a stdlib *http.Client with the ClientConfig it was built
// from, so a caller (or the http node) can recover auth/limits after the
// fact without threading the config through separately.
type Client struct {
	*http.Client
	config *ClientConfig
}

func (c *Client) GetConfig() *ClientConfig { return c.config }

// Builder turns a ClientConfig into a ready-to-use Client, applying the
// same SSRF guard to both the initial request (via ValidateURL, which
// callers are expected to invoke before dispatching) and every redirect hop
// Build's CheckRedirect performs.
type Builder struct {
	ssrf security.SSRFConfig
}

func NewBuilder(ssrf security.SSRFConfig) *Builder {
	return &Builder{ssrf: ssrf}
}

// Build validates and defaults config, then assembles a pooled transport,
// an auth-applying RoundTripper wrapping it, and a redirect policy.
func (b *Builder) Build(config *ClientConfig) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		DisableKeepAlives:   config.DisableKeepAlives,
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &authTransport{
			base:   transport,
			config: config,
		},
	}

	if !config.FollowRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("too many redirects (max %d)", config.MaxRedirects)
			}
			if err := b.ValidateURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked: %w", err)
			}
			return nil
		}
	}

	return &Client{Client: httpClient, config: config}, nil
}

// ValidateURL runs the builder's SSRF guard against url. Build's own
// redirect handler calls this on every hop; a caller dispatching the
// initial request should call it too.
func (b *Builder) ValidateURL(url string) error {
	return security.NewSSRFProtectionWithConfig(b.ssrf).ValidateURL(url)
}

// authTransport decorates a request with the configured auth scheme and
// any default headers/query params, leaving already-set values alone, then
// delegates to base.
type authTransport struct {
	base   http.RoundTripper
	config *ClientConfig
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())

	switch t.config.AuthType {
	case AuthTypeBasic:
		cloned.SetBasicAuth(t.config.Username, t.config.Password)
	case AuthTypeBearer:
		cloned.Header.Set("Authorization", "Bearer "+t.config.Token)
	}

	for key, value := range t.config.DefaultHeaders {
		if cloned.Header.Get(key) == "" {
			cloned.Header.Set(key, value)
		}
	}

	if len(t.config.DefaultQueryParams) > 0 {
		q := cloned.URL.Query()
		for key, value := range t.config.DefaultQueryParams {
			if !q.Has(key) {
				q.Set(key, value)
			}
		}
		cloned.URL.RawQuery = q.Encode()
	}

	return t.base.RoundTrip(cloned)
}
