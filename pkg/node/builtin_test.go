package node

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPNodeExecuteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			t.Errorf("Authorization = %q, want Bearer tok123", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	n, err := newHTTPNode("n1", "fetch", map[string]any{
		"url":                  server.URL,
		"bearerToken":          "tok123",
		"allowPrivateNetworks": true, // httptest serves on loopback
	})
	if err != nil {
		t.Fatalf("newHTTPNode: %v", err)
	}
	if !n.Validate() {
		t.Fatal("Validate() = false, want true")
	}

	result, err := n.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.Error)
	}
	data := result.Data.(map[string]any)
	if data["status"] != http.StatusOK {
		t.Errorf("status = %v, want 200", data["status"])
	}
	if data["body"] != "ok" {
		t.Errorf("body = %v, want ok", data["body"])
	}
}

func TestHTTPNodeValidateRequiresURL(t *testing.T) {
	n, _ := newHTTPNode("n1", "fetch", map[string]any{})
	if n.Validate() {
		t.Fatal("Validate() = true without a url, want false")
	}
}

func TestHTTPNodeBlocksLoopbackByDefault(t *testing.T) {
	n, _ := newHTTPNode("n1", "fetch", map[string]any{"url": "http://127.0.0.1:1/"})
	result, err := n.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("Success = true for a loopback URL, want the SSRF guard to reject it")
	}
}

func TestRegisterBuiltinsInstallsFourKinds(t *testing.T) {
	r := NewRegistry(false)
	if err := RegisterBuiltins(r); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	for _, typ := range []string{"http", "database", "transform", "code"} {
		if _, ok := r.Find(typ); !ok {
			t.Errorf("Find(%q) not found after RegisterBuiltins", typ)
		}
	}
}
