package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"parallax/internal/config"
	"parallax/internal/deps"
	"parallax/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var project string
	var videosDir string
	var outputDir string
	var frameRate float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconstruction pipeline for a project",
		Long: "Runs every pipeline stage for the project, skipping stages whose artifacts already exist. " +
			"Re-invoke after a failure to resume where the last run stopped. " +
			"A first run needs --videos to point at the source footage; omitting it resumes from frames already extracted into the project workspace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputDir) != "" {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
				cfg.Paths.BaseDir = expanded
			}
			if frameRate > 0 {
				cfg.Extraction.FrameRate = frameRate
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required binaries: %s (run `parallax deps` for details)", strings.Join(missing, ", "))
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
			return driver.Run(runCtx, pipeline.RunOptions{
				Project:   strings.TrimSpace(project),
				VideosDir: strings.TrimSpace(videosDir),
			})
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name (required)")
	cmd.Flags().StringVar(&videosDir, "videos", "", "Directory holding the source 360° videos (required on a first run; omit to resume from extracted frames)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the project base directory")
	cmd.Flags().Float64Var(&frameRate, "frame-rate", 0, "Override the extraction frame rate (frames per second)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
