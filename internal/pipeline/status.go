package pipeline

import (
	"context"

	"parallax/internal/archive"
	"parallax/internal/completion"
	"parallax/internal/fileutil"
	"parallax/internal/services"
	"parallax/internal/session"
	"parallax/internal/workspace"
)

// TierStatus reports one quality tier's export artifact.
type TierStatus struct {
	Label string
	Ratio float64
	Path  string
	State completion.State
}

// ArchiveStatus reports one archive label.
type ArchiveStatus struct {
	Label string
	State completion.State
}

// StatusReport is a read-only snapshot of a project's pipeline state.
type StatusReport struct {
	Project    string
	Partitions []*session.Partition
	Tiers      []TierStatus
	Archives   []ArchiveStatus
}

// Status inspects a project without mutating it. The report is assembled
// from the same artifact checks the pipeline gates on.
func (d *Driver) Status(ctx context.Context, project string) (*StatusReport, error) {
	ws, err := workspace.New(d.cfg.Paths.BaseDir, project)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "status", "workspace", "invalid project", err)
	}
	if !fileutil.Exists(ws.Root) {
		return nil, services.Wrap(services.ErrNotFound, "status", "workspace", "no project directory at "+ws.Root, nil)
	}

	report := &StatusReport{Project: project}

	if fileutil.Exists(ws.SessionDBPath()) {
		store, err := session.Open(ws.SessionDBPath())
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "status", "session", "opening session store", err)
		}
		defer store.Close()
		report.Partitions, err = store.Partitions(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "status", "session", "listing partitions", err)
		}
	}

	for _, tier := range d.cfg.Export.Tiers {
		path := ws.ExportPath(tier.Label, d.cfg.Engine.ExportFormat)
		report.Tiers = append(report.Tiers, TierStatus{
			Label: tier.Label,
			Ratio: tier.Ratio,
			Path:  path,
			State: completion.Export(path),
		})
	}
	for _, label := range archive.Labels(project, d.cfg.Export.Tiers) {
		report.Archives = append(report.Archives, ArchiveStatus{
			Label: label,
			State: completion.ArchiveLabel(ws.ArchiveDir(), label),
		})
	}
	return report, nil
}
