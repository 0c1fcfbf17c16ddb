package main

import (
	"strings"
	"testing"
)

func TestLoginPersistsSessionAcrossInvocations(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	// A fresh command tree must pick up the persisted session.
	out, _, err := runCLI(t, env, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "user@example.com")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	env.service.SeedUser("user@example.com", "hunter2secret")

	_, _, err := runCLI(t, env, "login", "user@example.com", "--password", "wrong-password")
	if err == nil {
		t.Fatal("expected login failure")
	}
	requireContains(t, err.Error(), "Incorrect email or password")
}

func TestRegisterRejectsShortPasswordWithoutNetwork(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "register", "new@example.com", "--password", "short")
	if err == nil {
		t.Fatal("expected rejection")
	}
	requireContains(t, err.Error(), "at least 8 characters")
}

func TestWhoamiClearsRevokedSession(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")
	env.service.RevokeAll()

	_, _, err := runCLI(t, env, "whoami")
	if err == nil {
		t.Fatal("expected trust-probe failure")
	}

	// The rejected token must be gone: protected calls now fail locally.
	_, _, err = runCLI(t, env, "list", "video")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("err = %v, want local not-logged-in rejection", err)
	}
}

func TestLogout(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	out, _, err := runCLI(t, env, "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	requireContains(t, out, "Logged out")

	_, _, err = runCLI(t, env, "list", "video")
	if err == nil {
		t.Fatal("protected call succeeded after logout")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	out, _, err := runCLI(t, env, "refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	requireContains(t, out, "Session refreshed")

	out, _, err = runCLI(t, env, "whoami")
	if err != nil {
		t.Fatalf("whoami after refresh: %v", err)
	}
	requireContains(t, out, "user@example.com")
}
