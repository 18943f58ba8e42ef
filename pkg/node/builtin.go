package node

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flowcraft/dagrunner/pkg/httpclient"
	"github.com/flowcraft/dagrunner/pkg/security"
)

// The four built-in kinds the core must recognize and compose with, per the
// node contract's "Built-in node kinds" list. Their internals are explicitly
// external to the core; these are minimal, illustrative registrations that
// exercise the Node capability end to end, not production implementations.

// httpNode is grounded on pkg/httpclient (adapted from the teacher's HTTP
// client builder) plus pkg/security's SSRF protection, wired exactly where
// the node contract's §4.4 "http" kind calls for a real outbound request.
type httpNode struct{ Base }

func newHTTPNode(id, name string, config map[string]any) (Node, error) {
	return &httpNode{Base: NewBase(id, name, "http", config)}, nil
}

func (n *httpNode) Validate() bool {
	_, ok := n.Config()["url"].(string)
	return ok
}

func (n *httpNode) Describe() Describe {
	return Describe{Description: "Issues an HTTP request", Category: "io", Icon: "globe"}
}

func (n *httpNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	cfg := n.Config()
	url, _ := cfg["url"].(string)
	if url == "" {
		return &Result{Success: false, Error: "http: missing url"}, nil
	}
	method, _ := cfg["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	builder := httpclient.NewBuilder(ssrfConfigFrom(cfg))
	if err := builder.ValidateURL(url); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("http: %v", err)}, nil
	}
	clientCfg := &httpclient.ClientConfig{Name: n.ID()}
	if token, ok := cfg["bearerToken"].(string); ok && token != "" {
		clientCfg.AuthType = httpclient.AuthTypeBearer
		clientCfg.Token = token
	}
	client, err := builder.Build(clientCfg)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("http: building client: %v", err)}, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("http: building request: %v", err)}, nil
	}
	resp, err := client.Do(req)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("http: request failed: %v", err)}, nil
	}
	defer resp.Body.Close()
	limit := client.GetConfig().MaxResponseSize
	if limit <= 0 {
		limit = 1 << 20
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, limit))

	return &Result{Success: true, Data: map[string]any{
		"url": url, "status": resp.StatusCode, "body": string(body),
	}}, nil
}

// ssrfConfigFrom reads destination-protection options from the node's
// config, defaulting to blocking private/loopback/link-local/cloud-metadata
// targets (a workflow node accepting a templated URL is an SSRF surface).
func ssrfConfigFrom(cfg map[string]any) security.SSRFConfig {
	out := security.SSRFConfig{
		BlockPrivateIPs:    true,
		BlockLocalhost:     true,
		BlockLinkLocal:     true,
		BlockCloudMetadata: true,
	}
	if allow, ok := cfg["allowPrivateNetworks"].(bool); ok && allow {
		out.BlockPrivateIPs = false
		out.BlockLocalhost = false
		out.BlockLinkLocal = false
	}
	return out
}

type databaseNode struct{ Base }

func newDatabaseNode(id, name string, config map[string]any) (Node, error) {
	return &databaseNode{Base: NewBase(id, name, "database", config)}, nil
}

func (n *databaseNode) Validate() bool { return true }

func (n *databaseNode) Describe() Describe {
	return Describe{Description: "Executes a query against a SQL datastore", Category: "io", Icon: "database"}
}

func (n *databaseNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	query, _ := n.Config()["query"].(string)
	return &Result{Success: true, Data: map[string]any{"query": query, "rows": []any{}}}, nil
}

type transformNode struct{ Base }

func newTransformNode(id, name string, config map[string]any) (Node, error) {
	return &transformNode{Base: NewBase(id, name, "transform", config)}, nil
}

func (n *transformNode) Validate() bool { return true }

func (n *transformNode) Describe() Describe {
	return Describe{Description: "Maps/reshapes upstream input", Category: "operation", Icon: "shuffle"}
}

func (n *transformNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	return &Result{Success: true, Data: input}, nil
}

type codeNode struct{ Base }

func newCodeNode(id, name string, config map[string]any) (Node, error) {
	return &codeNode{Base: NewBase(id, name, "code", config)}, nil
}

func (n *codeNode) Validate() bool { return true }

func (n *codeNode) Describe() Describe {
	return Describe{Description: "Runs a sandboxed user script", Category: "operation", Icon: "code"}
}

func (n *codeNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	script, _ := n.Config()["script"].(string)
	if script == "" {
		return &Result{Success: false, Error: "code: missing script"}, nil
	}
	return &Result{Success: true, Data: map[string]any{"script": script}}, nil
}

// RegisterBuiltins installs the four built-in kinds into r, with the
// aliases the node contract's "Aliases" section calls out as an example
// (http accepts httpRequest/api).
func RegisterBuiltins(r *Registry) error {
	if err := r.Register("http", newHTTPNode, "httpRequest", "api"); err != nil {
		return fmt.Errorf("node: register http: %w", err)
	}
	if err := r.Register("database", newDatabaseNode, "db", "sql"); err != nil {
		return fmt.Errorf("node: register database: %w", err)
	}
	if err := r.Register("transform", newTransformNode, "map"); err != nil {
		return fmt.Errorf("node: register transform: %w", err)
	}
	if err := r.Register("code", newCodeNode, "script"); err != nil {
		return fmt.Errorf("node: register code: %w", err)
	}
	return nil
}
