package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowcraft/dagrunner/pkg/security"
)

func TestClientConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		config  *ClientConfig
		wantErr string
	}{
		{"no auth", &ClientConfig{Name: "c"}, ""},
		{"basic auth", &ClientConfig{Name: "c", AuthType: AuthTypeBasic, Username: "u", Password: "p"}, ""},
		{"bearer auth", &ClientConfig{Name: "c", AuthType: AuthTypeBearer, Token: "t"}, ""},
		{"missing name", &ClientConfig{}, "client name is required"},
		{"unknown auth type", &ClientConfig{Name: "c", AuthType: "kerberos"}, "invalid auth_type"},
		{"basic missing username", &ClientConfig{Name: "c", AuthType: AuthTypeBasic, Password: "p"}, "username is required"},
		{"basic missing password", &ClientConfig{Name: "c", AuthType: AuthTypeBasic, Username: "u"}, "password is required"},
		{"bearer missing token", &ClientConfig{Name: "c", AuthType: AuthTypeBearer}, "token is required"},
		{"negative timeout", &ClientConfig{Name: "c", Timeout: -1}, "timeout cannot be negative"},
		{"negative redirects", &ClientConfig{Name: "c", MaxRedirects: -1}, "max_redirects cannot be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || len(err.Error()) < len(tc.wantErr) || err.Error()[:len(tc.wantErr)] != tc.wantErr {
				t.Fatalf("Validate() = %v, want prefix %q", err, tc.wantErr)
			}
		})
	}
}

func TestClientConfigApplyDefaults(t *testing.T) {
	cfg := &ClientConfig{Name: "c"}
	cfg.ApplyDefaults()
	if cfg.AuthType != AuthTypeNone || cfg.Timeout != 30*time.Second ||
		cfg.MaxIdleConns != 100 || cfg.MaxRedirects != 10 || cfg.MaxResponseSize != 10*1024*1024 {
		t.Fatalf("ApplyDefaults left unexpected zero values: %+v", cfg)
	}
}

func TestClientConfigCloneIsIndependent(t *testing.T) {
	original := &ClientConfig{
		Name:               "c",
		DefaultHeaders:     map[string]string{"X-Custom": "value"},
		DefaultQueryParams: map[string]string{"api_key": "secret"},
	}
	clone := original.Clone()
	clone.DefaultHeaders["X-Custom"] = "modified"
	clone.DefaultQueryParams["api_key"] = "modified"
	if original.DefaultHeaders["X-Custom"] == "modified" || original.DefaultQueryParams["api_key"] == "modified" {
		t.Fatal("Clone shared map storage with the original")
	}
}

func TestBuilderBuildAuthVariants(t *testing.T) {
	builder := NewBuilder(security.SSRFConfig{})
	configs := []*ClientConfig{
		{Name: "none-client"},
		{Name: "basic-client", AuthType: AuthTypeBasic, Username: "u", Password: "p"},
		{Name: "bearer-client", AuthType: AuthTypeBearer, Token: "t"},
		{Name: "timeout-client", Timeout: 60 * time.Second},
	}
	for _, cfg := range configs {
		client, err := builder.Build(cfg)
		if err != nil {
			t.Fatalf("Build(%s): %v", cfg.Name, err)
		}
		if client.GetConfig().Name != cfg.Name {
			t.Fatalf("GetConfig().Name = %q, want %q", client.GetConfig().Name, cfg.Name)
		}
	}
}

func TestAuthTransportAppliesCredentials(t *testing.T) {
	var gotAuthHeader, gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthHeader = r.Header.Get("Authorization")
		gotUser, gotPass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	builder := NewBuilder(security.SSRFConfig{})

	bearer, err := builder.Build(&ClientConfig{Name: "bearer", AuthType: AuthTypeBearer, Token: "tok-123"})
	if err != nil {
		t.Fatalf("Build bearer: %v", err)
	}
	if resp, err := bearer.Get(server.URL); err != nil {
		t.Fatalf("Get: %v", err)
	} else {
		resp.Body.Close()
	}
	if gotAuthHeader != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuthHeader)
	}

	basic, err := builder.Build(&ClientConfig{Name: "basic", AuthType: AuthTypeBasic, Username: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Build basic: %v", err)
	}
	if resp, err := basic.Get(server.URL); err != nil {
		t.Fatalf("Get: %v", err)
	} else {
		resp.Body.Close()
	}
	if gotUser != "alice" || gotPass != "hunter2" {
		t.Fatalf("BasicAuth = %s:%s, want alice:hunter2", gotUser, gotPass)
	}
}

func TestAuthTransportDefaultHeadersAndQueryDontOverride(t *testing.T) {
	var gotHeader, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom-Header")
		gotQuery = r.URL.Query().Get("api_key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	builder := NewBuilder(security.SSRFConfig{})
	client, err := builder.Build(&ClientConfig{
		Name:               "c",
		DefaultHeaders:     map[string]string{"X-Custom-Header": "custom-value"},
		DefaultQueryParams: map[string]string{"api_key": "secret123"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if gotHeader != "custom-value" || gotQuery != "secret123" {
		t.Fatalf("got header=%q query=%q", gotHeader, gotQuery)
	}
}

func TestBuilderRedirectPolicy(t *testing.T) {
	newRedirectingServer := func() *httptest.Server {
		var srv *httptest.Server
		hits := 0
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits == 0 {
				hits++
				http.Redirect(w, r, srv.URL, http.StatusFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		return srv
	}

	t.Run("follows when enabled", func(t *testing.T) {
		server := newRedirectingServer()
		defer server.Close()
		builder := NewBuilder(security.SSRFConfig{})
		client, err := builder.Build(&ClientConfig{Name: "c", FollowRedirects: true, MaxRedirects: 10})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("stops at first redirect when disabled", func(t *testing.T) {
		server := newRedirectingServer()
		defer server.Close()
		builder := NewBuilder(security.SSRFConfig{})
		client, err := builder.Build(&ClientConfig{Name: "c", FollowRedirects: false})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("StatusCode = %d, want 302", resp.StatusCode)
		}
	})
}
