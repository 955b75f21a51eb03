package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"parallax/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a project's pipeline state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			driver, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			report, err := driver.Status(cmd.Context(), strings.TrimSpace(project))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\n\n", report.Project)
			renderPartitions(out, report)
			renderTiers(out, report)
			renderArchives(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name (required)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

var titleCaser = cases.Title(language.Und)

func renderPartitions(out io.Writer, report *pipeline.StatusReport) {
	if len(report.Partitions) == 0 {
		fmt.Fprintln(out, "No partitions recorded yet.")
		fmt.Fprintln(out)
		return
	}
	rows := make([][]string, 0, len(report.Partitions))
	for _, p := range report.Partitions {
		enabled := "yes"
		if !p.Enabled {
			enabled = "no"
		}
		rows = append(rows, []string{
			p.Label,
			enabled,
			strconv.Itoa(p.CameraCount),
			strconv.Itoa(p.AlignedCount),
			boolMark(p.DepthBuilt),
			strconv.Itoa(p.FaceCount),
			strconv.Itoa(p.TextureCount),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Partition", "Enabled", "Cameras", "Aligned", "Depth", "Faces", "Textures"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight},
	))
	fmt.Fprintln(out)
}

func renderTiers(out io.Writer, report *pipeline.StatusReport) {
	rows := make([][]string, 0, len(report.Tiers))
	for _, tier := range report.Tiers {
		ratio := "full"
		if tier.Ratio > 0 && tier.Ratio < 1 {
			ratio = strconv.FormatFloat(tier.Ratio, 'f', -1, 64)
		}
		rows = append(rows, []string{
			titleCaser.String(tier.Label),
			ratio,
			titleCaser.String(tier.State.String()),
			tier.Path,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Tier", "Ratio", "Export", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintln(out)
}

func renderArchives(out io.Writer, report *pipeline.StatusReport) {
	rows := make([][]string, 0, len(report.Archives))
	for _, a := range report.Archives {
		rows = append(rows, []string{a.Label, titleCaser.String(a.State.String())})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Archive", "State"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

func boolMark(v bool) string {
	if v {
		return "built"
	}
	return "-"
}
