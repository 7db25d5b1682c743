package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/systmms/hemli/internal/config"
	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/logging"
	"github.com/systmms/hemli/internal/metrics"
)

// These tests share go-keyring's global mock and do not run in parallel.

type testEnv struct {
	cfg    *config.Config
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	keyring.MockInit()

	stderr := &bytes.Buffer{}
	return &testEnv{
		cfg: &config.Config{
			Logger:    logging.NewWithWriter(stderr, false, true),
			IndexPath: filepath.Join(t.TempDir(), "index.json"),
			Metrics:   metrics.New(),
		},
		stderr: stderr,
	}
}

func (e *testEnv) run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return runWithStdin(t, cmd, "", args...)
}

func runWithStdin(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out, err := e.run(t, cmd, args...)
	require.NoError(t, err)
	return out
}

func TestGetCommand_FetchAndCache(t *testing.T) {
	env := newTestEnv(t)
	counter := filepath.Join(t.TempDir(), "calls")

	src := "echo x >> " + counter + "; echo hello"
	out := env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "greeting", "--source-sh", src)
	assert.Equal(t, "hello", out, "value printed without trailing newline")

	out = env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "greeting")
	assert.Equal(t, "hello", out)

	calls, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(calls), "x"), "second get is served from cache")
}

func TestGetCommand_DirectSource(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "x", "--source-cmd", "echo a   b", "--no-store")
	assert.Equal(t, "a b", out)

	_, err := env.run(t, NewGetCommand(env.cfg), "-n", "app", "x", "--no-refresh")
	assert.ErrorIs(t, err, dserrors.ErrNotFound)
}

func TestGetCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing_no_source",
			args:    []string{"-n", "app", "x"},
			wantErr: dserrors.ErrNoSource,
			wantMsg: "no source command provided",
		},
		{
			name:    "conflicting_refresh_flags",
			args:    []string{"-n", "app", "x", "--force-refresh", "--no-refresh"},
			wantErr: dserrors.ErrConflictingFlags,
			wantMsg: "--force-refresh, --no-refresh",
		},
		{
			name:    "conflicting_sources",
			args:    []string{"-n", "app", "x", "--source-sh", "a", "--source-cmd", "b"},
			wantErr: dserrors.ErrConflictingFlags,
		},
		{
			name:    "no_refresh_missing",
			args:    []string{"-n", "app", "y", "--no-refresh"},
			wantErr: dserrors.ErrNotFound,
			wantMsg: "secret 'y' not found in namespace 'app'",
		},
		{
			name:    "source_fails",
			args:    []string{"-n", "app", "x", "--source-sh", "echo boom >&2; exit 3"},
			wantErr: dserrors.ErrSourceFailed,
			wantMsg: "exit code: 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			out, err := env.run(t, NewGetCommand(env.cfg), tt.args...)
			require.Error(t, err)
			assert.Empty(t, out)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGetCommand_RequiresNamespace(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, NewGetCommand(env.cfg), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "namespace" not set`)
}

func TestInspectCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "db", "--source-cmd", "echo s3cr3t", "--ttl", "3600")

	out := env.mustRun(t, NewInspectCommand(env.cfg), "-n", "app", "db")
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, "s3cr3t", fields["value"])
	assert.Equal(t, "echo s3cr3t", fields["source_command"])
	assert.Equal(t, "cmd", fields["source_type"])
	assert.Equal(t, float64(3600), fields["ttl_seconds"])
	assert.NotNil(t, fields["expires_at"])
	assert.NotNil(t, fields["created_at"])

	out = env.mustRun(t, NewInspectCommand(env.cfg), "-n", "app", "db", "-o", "yaml")
	var y map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &y))
	assert.Equal(t, "s3cr3t", y["value"])
	assert.Equal(t, 3600, y["ttl_seconds"])

	_, err := env.run(t, NewInspectCommand(env.cfg), "-n", "app", "db", "-o", "toml")
	assert.ErrorContains(t, err, "Unsupported output format")

	_, err = env.run(t, NewInspectCommand(env.cfg), "-n", "app", "missing")
	assert.ErrorIs(t, err, dserrors.ErrNotFound)
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "x", "--source-sh", "echo v", "--ttl", "60")

	env.mustRun(t, NewEditCommand(env.cfg), "-n", "app", "x", "--clear-ttl")
	assert.Contains(t, env.stderr.String(), "Updated secret 'x' in namespace 'app'")

	out := env.mustRun(t, NewInspectCommand(env.cfg), "-n", "app", "x")
	assert.Contains(t, out, `"ttl_seconds": null`)
	assert.Contains(t, out, `"expires_at": null`)

	_, err := env.run(t, NewEditCommand(env.cfg), "-n", "app", "x")
	assert.ErrorIs(t, err, dserrors.ErrNoModification)

	_, err = env.run(t, NewEditCommand(env.cfg), "-n", "app", "x", "--ttl", "5", "--clear-ttl")
	assert.ErrorIs(t, err, dserrors.ErrConflictingFlags)

	_, err = env.run(t, NewEditCommand(env.cfg), "-n", "app", "nope", "--ttl", "5")
	assert.ErrorIs(t, err, dserrors.ErrNotFound)
}

func TestListCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "x", "--source-sh", "echo 1")
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "y", "--source-sh", "echo 2")
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "other", "z", "--source-sh", "echo 3")

	out := env.mustRun(t, NewListCommand(env.cfg), "-n", "app")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		require.Len(t, fields, 3)
		assert.Equal(t, "app", fields[0])
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, fields[2])
	}
	assert.NotContains(t, out, "1\n")

	out = env.mustRun(t, NewListCommand(env.cfg))
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestListCommand_EmptyIndex(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, NewListCommand(env.cfg))
	assert.Empty(t, out)
}

func TestListCommand_Repair(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "x", "--source-sh", "echo 1")
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "gone", "--source-sh", "echo 2")
	require.NoError(t, keyring.Delete("hemli:app", "gone"))

	out := env.mustRun(t, NewListCommand(env.cfg), "--repair")
	assert.Contains(t, out, "app\tx\t")
	assert.NotContains(t, out, "gone")
	assert.Contains(t, env.stderr.String(), "Removed stale index entry 'gone'")
}

func TestDeleteCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "x", "--source-sh", "echo 1")

	env.mustRun(t, NewDeleteCommand(env.cfg), "-n", "app", "x")
	assert.Contains(t, env.stderr.String(), "Deleted secret 'x' from namespace 'app'")

	out := env.mustRun(t, NewListCommand(env.cfg))
	assert.Empty(t, out)

	env.stderr.Reset()
	env.mustRun(t, NewDeleteCommand(env.cfg), "-n", "app", "x")
	assert.Empty(t, env.stderr.String(), "deleting an absent secret is silent")
}

func TestSetCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := runWithStdin(t, NewSetCommand(env.cfg), "typed-value\n", "-n", "app", "manual", "--ttl", "60")
	require.NoError(t, err)

	out := env.mustRun(t, NewGetCommand(env.cfg), "-n", "app", "manual")
	assert.Equal(t, "typed-value", out)

	out = env.mustRun(t, NewInspectCommand(env.cfg), "-n", "app", "manual")
	assert.Contains(t, out, `"source_command": null`)

	_, err = runWithStdin(t, NewSetCommand(env.cfg), "", "-n", "app", "manual")
	assert.ErrorContains(t, err, "No value provided on stdin")
}

func TestRootCommand_EnvBinding(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvKey("namespace"), "envns")
	t.Setenv(EnvKey("index-path"), filepath.Join(dir, "idx.json"))
	t.Setenv(EnvKey("no-color"), "true")

	cfg := &config.Config{}
	out, err := runWithStdin(t, NewRootCommand(cfg, "test"), "", "get", "x", "--source-sh", "echo from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", out)
	assert.Equal(t, filepath.Join(dir, "idx.json"), cfg.IndexPath)

	_, err = os.Stat(filepath.Join(dir, "idx.json"))
	assert.NoError(t, err, "index written to the env-configured path")

	cfg = &config.Config{}
	out, err = runWithStdin(t, NewRootCommand(cfg, "test"), "", "list", "-n", "other")
	require.NoError(t, err)
	assert.Empty(t, out, "flag wins over HEMLI_NAMESPACE")
}

func TestRootCommand_ConfigFile(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "from-config.json")
	promPath := filepath.Join(dir, "hemli.prom")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("index_path: "+indexPath+"\nmetrics_textfile: "+promPath+"\n"), 0o600))

	cfg := &config.Config{}
	_, err := runWithStdin(t, NewRootCommand(cfg, "test"), "", "--config", configPath, "get", "-n", "app", "x", "--source-sh", "echo v")
	require.NoError(t, err)
	assert.Equal(t, indexPath, cfg.IndexPath)
	assert.Equal(t, promPath, cfg.MetricsTextfile)

	require.NoError(t, cfg.Metrics.WriteTextfile(cfg.MetricsTextfile))
	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `hemli_get_total{outcome="miss"} 1`)
}

func TestRootCommand_BadEnvValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvKey("debug"), "maybe")

	_, err := runWithStdin(t, NewRootCommand(&config.Config{}, "test"), "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEMLI_DEBUG")
}

func TestCompletionCommand(t *testing.T) {
	root := NewRootCommand(&config.Config{}, "test")
	out, err := runWithStdin(t, root, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "hemli")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "HEMLI_INDEX_PATH", EnvKey("index-path"))
	assert.Equal(t, "HEMLI_NAMESPACE", EnvKey("namespace"))
}
