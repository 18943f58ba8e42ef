// Package httpclient builds the HTTP clients backing the engine's built-in
// "http" node kind (pkg/node's httpNode).
//
// A ClientConfig describes one client's auth scheme, connection limits, and
// default headers/query params; Builder turns that into a Client wrapping a
// standard *http.Client whose transport enforces those limits and whose
// RoundTripper applies auth without mutating the caller's request. SSRF
// protection (pkg/security) guards every redirect hop a built Client follows;
// the initial URL is checked separately with Builder.ValidateURL (the http
// node calls it before each request), since a workflow's "http" node config
// frequently carries a templated, caller-influenced URL.
//
// # Authentication
//
// Three schemes: AuthTypeNone (default), AuthTypeBasic, AuthTypeBearer.
// ClientConfig.Validate rejects a Basic/Bearer config missing its
// credentials; ApplyDefaults fills in a conservative set of network
// defaults (30s timeout, 10 max redirects, 10MB response cap) for whatever
// the caller left zero-valued.
//
//	cfg := &httpclient.ClientConfig{
//	    Name:     "orders-api",
//	    AuthType: httpclient.AuthTypeBearer,
//	    Token:    os.Getenv("ORDERS_API_TOKEN"),
//	    Timeout:  10 * time.Second,
//	}
//	builder := httpclient.NewBuilder(security.SSRFConfig{BlockPrivateIPs: true})
//	client, err := builder.Build(cfg)
//
// # Response size limits
//
// MaxResponseSize bounds how much of a response body a caller should read
// (the http node applies it via io.LimitReader); Builder itself only
// defaults and validates the field, it does not read bodies.
package httpclient
