package main

import (
	"github.com/spf13/cobra"

	"text-vectorizer/internal/docker"
)

func newBuildCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the service image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.manager.Build(cmd.Context(), docker.BuildArgs{
				EmbeddingProvider: e.cfg.EmbeddingProvider,
				EmbeddingModel:    e.cfg.EmbeddingModel,
				Host:              e.cfg.Host,
				Port:              e.cfg.Port,
			})
		},
	}
}
