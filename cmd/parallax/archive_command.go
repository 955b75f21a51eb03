package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"parallax/internal/deps"
	"parallax/internal/pipeline"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive a project's exports and full directory",
		Long:  "Compresses each quality tier's exports and the whole project directory into labelled 7z archives. Labels that already have an archive are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, status := range statuses {
				if status.Name == "7-Zip" && !status.Available {
					return fmt.Errorf("archiving requires %s: %s", status.Command, status.Detail)
				}
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			driver, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			return driver.Archive(runCtx, strings.TrimSpace(project))
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name (required)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
