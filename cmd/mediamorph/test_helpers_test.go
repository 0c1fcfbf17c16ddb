package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediamorph/internal/config"
	"mediamorph/internal/testsupport"
)

type cliTestEnv struct {
	service    *testsupport.FakeService
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MEDIAMORPH_API_URL", "")

	service := testsupport.NewFakeService(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithBaseURL(service.URL()),
		testsupport.WithRequestTimeout(5),
		testsupport.WithChunkMiB(1),
		testsupport.WithPollInterval(1),
		testsupport.WithHistoryPollInterval(1),
		testsupport.WithLogLevel("error"),
	)

	return &cliTestEnv{
		service:    service,
		cfg:        cfg,
		configPath: testsupport.WriteConfig(t, cfg),
	}
}

// loginAs seeds an account and logs the CLI into it, persisting the session
// under the test state dir.
func (env *cliTestEnv) loginAs(t *testing.T, email, password string) {
	t.Helper()
	env.service.SeedUser(email, password)
	out, _, err := runCLI(t, env, "login", email, "--password", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Logged in as "+email)
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}
