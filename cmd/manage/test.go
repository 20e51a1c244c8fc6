package main

import (
	"os"

	"github.com/spf13/cobra"

	"text-vectorizer/internal/docker"
)

func newTestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the image and smoke test it",
		Long: `Start the image in a detached container, wait for the readiness probe,
check /meta and /vectors, then stop the container.

Service variables set in the environment or .env (EMBEDDING_PROVIDER,
OPENAI_API_KEY, ...) are forwarded to the container by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := docker.RunOptions{
				Port:   e.cfg.Port,
				Env:    docker.ForwardedEnv(os.LookupEnv),
				DryRun: e.dryRun,
			}
			if err := e.manager.Test(cmd.Context(), opts); err != nil {
				return err
			}
			if !e.dryRun {
				e.log.Info("image test passed")
			}
			return nil
		},
	}
}
