package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mediamorph/internal/api"
)

func TestStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)

	pair := api.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", TokenType: "bearer"}
	if err := store.SetPair(pair); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file permissions = %v, want 0600", perm)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.AccessToken() != "access-1" {
		t.Fatalf("access token = %q, want access-1", reloaded.AccessToken())
	}
	if reloaded.RefreshToken() != "refresh-1" {
		t.Fatalf("refresh token = %q, want refresh-1", reloaded.RefreshToken())
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if store.Authenticated() {
		t.Fatal("store should not be authenticated after loading missing file")
	}
}

func TestStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)
	if err := store.SetPair(api.TokenPair{AccessToken: "x"}); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("session file still present after Clear: %v", err)
	}
	if store.Authenticated() {
		t.Fatal("store still authenticated after Clear")
	}
}

func TestBootstrapValidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer good-token" {
			t.Fatalf("authorization header = %q", got)
		}
		json.NewEncoder(w).Encode(api.User{ID: 7, Email: "user@example.com"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	seed := NewStore(path)
	if err := seed.SetPair(api.TokenPair{AccessToken: "good-token"}); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}

	store := NewStore(path)
	client, err := api.New(server.URL, api.WithTokenSource(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	user, err := store.Bootstrap(context.Background(), client)
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("user email = %q", user.Email)
	}
}

func TestBootstrapRejectedTokenClearsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	seed := NewStore(path)
	if err := seed.SetPair(api.TokenPair{AccessToken: "stale-token"}); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}

	store := NewStore(path)
	client, err := api.New(server.URL, api.WithTokenSource(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := store.Bootstrap(context.Background(), client); err == nil {
		t.Fatal("expected error for rejected token")
	}
	if store.Authenticated() {
		t.Fatal("store still authenticated after rejection")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("session file not cleared after rejection")
	}
}

func TestBootstrapNoSession(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	client, err := api.New("http://localhost:1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := store.Bootstrap(context.Background(), client); err != ErrNotAuthenticated {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}
