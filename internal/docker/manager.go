package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"text-vectorizer/internal/smoke"
)

const stopTimeout = 30 * time.Second

// BuildArgs are passed to docker build and select the model baked into the image.
type BuildArgs struct {
	EmbeddingProvider string
	EmbeddingModel    string
	Host              string
	Port              int
}

// RunOptions configure the container started by Test.
type RunOptions struct {
	Port int
	// Env names host variables forwarded with -e; values never appear on
	// the command line.
	Env    []string
	DryRun bool
}

// ServiceEnv lists the variables the service reads besides HOST and PORT.
var ServiceEnv = []string{
	"EMBEDDING_PROVIDER",
	"OPENAI_API_KEY",
	"EMBEDDING_BASE_URL",
	"EMBEDDING_MODEL",
	"EMBEDDING_DIMENSIONS",
	"MAX_SEQ_LENGTH",
	"LOAD_TIMEOUT",
	"MODEL_VERSION",
	"MODEL_LANGUAGE",
	"MODEL_DESCRIPTION",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"REQUEST_TIMEOUT",
	"MAX_BODY_SIZE",
	"METRICS_ENABLED",
	"CACHE_PROVIDER",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"CACHE_TTL",
}

// ForwardedEnv returns the ServiceEnv names that lookup finds set.
func ForwardedEnv(lookup func(string) (string, bool)) []string {
	var keys []string
	for _, key := range ServiceEnv {
		if _, ok := lookup(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Manager drives docker for one project.
type Manager struct {
	project  *Project
	executor Executor
	logger   *slog.Logger
	client   *http.Client
}

// NewManager creates a Manager. A nil client is replaced by smoke's default.
func NewManager(project *Project, executor Executor, logger *slog.Logger, client *http.Client) *Manager {
	return &Manager{
		project:  project,
		executor: executor,
		logger:   logger,
		client:   client,
	}
}

// Build builds the image tagged name:version.
func (m *Manager) Build(ctx context.Context, args BuildArgs) error {
	m.logger.Info("building image", "tag", m.project.ImageTag())
	return m.executor.Run(ctx, "docker", m.buildArgs(args))
}

func (m *Manager) buildArgs(args BuildArgs) []string {
	dir := m.project.Dir()
	return []string{
		"build",
		"--file", filepath.Join(dir, m.project.Image.Dockerfile),
		filepath.Join(dir, m.project.Image.Context),
		"--tag", m.project.ImageTag(),
		"--build-arg", "EMBEDDING_PROVIDER=" + args.EmbeddingProvider,
		"--build-arg", "EMBEDDING_MODEL=" + args.EmbeddingModel,
		"--build-arg", "HOST=" + args.Host,
		"--build-arg", "PORT=" + strconv.Itoa(args.Port),
	}
}

// ContainerName is name_version_postfix. An empty postfix gets a random one
// so that parallel runs don't collide.
func (m *Manager) ContainerName() string {
	postfix := m.project.Test.ContainerPostfix
	if postfix == "" {
		postfix = uuid.NewString()[:8]
	}
	return fmt.Sprintf("%s_%s_%s", m.project.Project.Name, m.project.Project.Version, postfix)
}

// Test starts the image, waits for readiness and runs the smoke checks. The
// container is stopped whatever the outcome.
func (m *Manager) Test(ctx context.Context, opts RunOptions) (err error) {
	name := m.ContainerName()

	m.logger.Info("starting container", "name", name, "image", m.project.ImageTag(), "env", opts.Env)
	if err := m.executor.Run(ctx, "docker", m.runArgs(name, opts)); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		// the request context may already be cancelled
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if stopErr := m.executor.Run(stopCtx, "docker", []string{"stop", name}); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop container: %w", stopErr))
		}
	}()

	if opts.DryRun {
		return nil
	}

	checker := smoke.New(m.baseURL(opts.Port), m.client, m.logger)
	wait := time.Duration(m.project.Test.WaitForStartup) * time.Second
	if err := checker.WaitReady(ctx, wait); err != nil {
		return err
	}
	return checker.Run(ctx, smoke.DefaultTexts)
}

// runArgs makes the container listen on all interfaces at the mapped port.
func (m *Manager) runArgs(name string, opts RunOptions) []string {
	args := []string{
		"run", "--rm", "--detach",
		"--name", name,
		"-p", fmt.Sprintf("%d:%d", opts.Port, opts.Port),
	}
	if m.project.Test.EnvFile != "" {
		args = append(args, "--env-file", filepath.Join(m.project.Dir(), m.project.Test.EnvFile))
	}
	args = append(args, "-e", "HOST=0.0.0.0", "-e", "PORT="+strconv.Itoa(opts.Port))
	for _, key := range opts.Env {
		args = append(args, "-e", key)
	}
	return append(args, m.project.ImageTag())
}

func (m *Manager) baseURL(port int) string {
	if m.project.Test.BaseURL != "" {
		return m.project.Test.BaseURL
	}
	return fmt.Sprintf("http://localhost:%d", port)
}
