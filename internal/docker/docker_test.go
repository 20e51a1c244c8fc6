package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	cmd  string
	args []string
}

type fakeExecutor struct {
	calls []call
	fail  map[string]error // keyed by docker subcommand
}

func (f *fakeExecutor) Run(ctx context.Context, cmd string, args []string) error {
	f.calls = append(f.calls, call{cmd: cmd, args: args})
	if len(args) > 0 {
		return f.fail[args[0]]
	}
	return nil
}

func (f *fakeExecutor) subcommands() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.args[0])
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const projectFile = `
[project]
name = "text-vectorizer"
version = "1.2.0"

[image]
dockerfile = "Dockerfile"
context = "."

[test]
container_postfix = "ci"
wait_for_startup = 5
`

func TestLoadProject(t *testing.T) {
	path := writeProject(t, projectFile)

	p, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, "text-vectorizer", p.Project.Name)
	assert.Equal(t, "text-vectorizer:1.2.0", p.ImageTag())
	assert.Equal(t, "ci", p.Test.ContainerPostfix)
	assert.Equal(t, 5, p.Test.WaitForStartup)
	assert.Equal(t, filepath.Dir(path), p.Dir())
}

func TestLoadProjectDefaults(t *testing.T) {
	p, err := LoadProject(writeProject(t, "[project]\nname = \"x\"\nversion = \"1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Dockerfile", p.Image.Dockerfile)
	assert.Equal(t, ".", p.Image.Context)
	assert.Equal(t, defaultWaitForStartup, p.Test.WaitForStartup)
}

func TestLoadProjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing version", "[project]\nname = \"x\"\n"},
		{"invalid toml", "[project\nname ="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProject(writeProject(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadProject(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	p, err := LoadProject(writeProject(t, projectFile))
	require.NoError(t, err)
	exec := &fakeExecutor{}
	m := NewManager(p, exec, discardLogger(), nil)

	err = m.Build(context.Background(), BuildArgs{
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		Host:              "0.0.0.0",
		Port:              8080,
	})
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "docker", exec.calls[0].cmd)
	assert.Equal(t, []string{
		"build",
		"--file", filepath.Join(p.Dir(), "Dockerfile"),
		p.Dir(),
		"--tag", "text-vectorizer:1.2.0",
		"--build-arg", "EMBEDDING_PROVIDER=ollama",
		"--build-arg", "EMBEDDING_MODEL=nomic-embed-text",
		"--build-arg", "HOST=0.0.0.0",
		"--build-arg", "PORT=8080",
	}, exec.calls[0].args)
}

func TestContainerName(t *testing.T) {
	p, err := LoadProject(writeProject(t, projectFile))
	require.NoError(t, err)
	m := NewManager(p, &fakeExecutor{}, discardLogger(), nil)
	assert.Equal(t, "text-vectorizer_1.2.0_ci", m.ContainerName())

	p.Test.ContainerPostfix = ""
	name := m.ContainerName()
	assert.True(t, strings.HasPrefix(name, "text-vectorizer_1.2.0_"))
	assert.Len(t, strings.TrimPrefix(name, "text-vectorizer_1.2.0_"), 8)
}

func fakeService(t *testing.T, vectorsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"fake"}`))
	})
	mux.HandleFunc("/vectors", func(w http.ResponseWriter, r *http.Request) {
		if vectorsStatus != http.StatusOK {
			w.WriteHeader(vectorsStatus)
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"text": req.Text, "vector": []float64{1, 0}, "dim": 2})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, srv *httptest.Server, exec Executor) *Manager {
	t.Helper()
	p, err := LoadProject(writeProject(t, projectFile))
	require.NoError(t, err)
	p.Test.BaseURL = srv.URL
	return NewManager(p, exec, discardLogger(), srv.Client())
}

func TestTestPasses(t *testing.T) {
	exec := &fakeExecutor{}
	m := newTestManager(t, fakeService(t, http.StatusOK), exec)

	opts := RunOptions{Port: 8080, Env: []string{"EMBEDDING_PROVIDER", "OPENAI_API_KEY"}}
	require.NoError(t, m.Test(context.Background(), opts))

	assert.Equal(t, []string{"run", "stop"}, exec.subcommands())
	assert.Equal(t, []string{
		"run", "--rm", "--detach", "--name", "text-vectorizer_1.2.0_ci",
		"-p", "8080:8080",
		"-e", "HOST=0.0.0.0", "-e", "PORT=8080",
		"-e", "EMBEDDING_PROVIDER", "-e", "OPENAI_API_KEY",
		"text-vectorizer:1.2.0",
	}, exec.calls[0].args)
	assert.Equal(t, []string{"stop", "text-vectorizer_1.2.0_ci"}, exec.calls[1].args)
}

func TestTestStopsContainerOnFailure(t *testing.T) {
	exec := &fakeExecutor{}
	m := newTestManager(t, fakeService(t, http.StatusInternalServerError), exec)

	err := m.Test(context.Background(), RunOptions{Port: 8080})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 500")
	assert.Equal(t, []string{"run", "stop"}, exec.subcommands())
}

func TestTestStartFailure(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{"run": errors.New("no such image")}}
	m := newTestManager(t, fakeService(t, http.StatusOK), exec)

	err := m.Test(context.Background(), RunOptions{Port: 8080})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start container")
	assert.Equal(t, []string{"run"}, exec.subcommands())
}

func TestTestStopFailureIsReported(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{"stop": errors.New("daemon gone")}}
	m := newTestManager(t, fakeService(t, http.StatusOK), exec)

	err := m.Test(context.Background(), RunOptions{Port: 8080})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop container")
}

func TestTestDryRunSkipsChecks(t *testing.T) {
	exec := &fakeExecutor{}
	p, err := LoadProject(writeProject(t, projectFile))
	require.NoError(t, err)
	p.Test.BaseURL = "http://127.0.0.1:1"
	m := NewManager(p, exec, discardLogger(), nil)

	require.NoError(t, m.Test(context.Background(), RunOptions{Port: 8080, DryRun: true}))
	assert.Equal(t, []string{"run", "stop"}, exec.subcommands())
}

func TestRunArgsEnvFile(t *testing.T) {
	p, err := LoadProject(writeProject(t, projectFile+"env_file = \".env.test\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ".env.test", p.Test.EnvFile)
	m := NewManager(p, &fakeExecutor{}, discardLogger(), nil)

	args := m.runArgs("c", RunOptions{Port: 9000, Env: []string{"CACHE_PROVIDER"}})
	assert.Equal(t, []string{
		"run", "--rm", "--detach", "--name", "c",
		"-p", "9000:9000",
		"--env-file", filepath.Join(p.Dir(), ".env.test"),
		"-e", "HOST=0.0.0.0", "-e", "PORT=9000",
		"-e", "CACHE_PROVIDER",
		"text-vectorizer:1.2.0",
	}, args)
}

func TestForwardedEnv(t *testing.T) {
	set := map[string]string{
		"OPENAI_API_KEY":     "sk-test",
		"EMBEDDING_PROVIDER": "openai",
		"EMBEDDING_MODEL":    "",
		"HOME":               "/root",
	}
	lookup := func(key string) (string, bool) {
		v, ok := set[key]
		return v, ok
	}

	// ServiceEnv order; set-but-empty counts as set; unrelated variables stay behind
	assert.Equal(t, []string{"EMBEDDING_PROVIDER", "OPENAI_API_KEY", "EMBEDDING_MODEL"}, ForwardedEnv(lookup))
	assert.Empty(t, ForwardedEnv(func(string) (string, bool) { return "", false }))
}

func TestDefaultExecutorDryRun(t *testing.T) {
	var out bytes.Buffer
	e := NewExecutor(t.TempDir(), discardLogger(), true)
	e.SetOutput(&out, io.Discard)

	require.NoError(t, e.Run(context.Background(), "docker", []string{"stop", "x"}))
	assert.Equal(t, "[dry-run] docker stop x\n", out.String())
}
