package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"text-vectorizer/internal/app"
	"text-vectorizer/internal/config"
	"text-vectorizer/internal/docker"
	"text-vectorizer/internal/logger"
)

// env holds what every subcommand needs once flags are parsed.
type env struct {
	projectFile string
	dryRun      bool
	verbose     bool

	cfg     config.Config
	log     *slog.Logger
	manager *docker.Manager
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "manage",
		Short: "Build and test the text vectorizer image",
		Long: `manage builds the service image with docker and checks a running container
against the service's HTTP contract.

Model, host and port come from the same environment (and optional .env file)
as the service itself.

Example usage:
  manage build                 # Build name:version from project.toml
  manage test                  # Run the image, wait for readiness, smoke test
  manage test --dry-run        # Print docker commands only`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&e.projectFile, "project-file", "project.toml", "project description file")
	root.PersistentFlags().BoolVar(&e.dryRun, "dry-run", false, "show commands without executing")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newBuildCmd(e), newTestCmd(e))
	return root
}

func (e *env) init(cmd *cobra.Command) error {
	level := "info"
	if e.verbose {
		level = "debug"
	}
	e.log = logger.NewWithWriter(cmd.ErrOrStderr(), level, "text")

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	e.cfg = cfg

	project, err := docker.LoadProject(e.projectFile)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	executor := docker.NewExecutor(wd, e.log, e.dryRun)
	executor.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	e.manager = docker.NewManager(project, executor, e.log, nil)

	e.log.Debug("project loaded",
		"file", e.projectFile,
		"image", project.ImageTag(),
		"model", cfg.EmbeddingModel,
	)
	return nil
}
