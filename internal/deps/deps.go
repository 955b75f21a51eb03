// Package deps checks the external binaries the pipeline drives.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"parallax/internal/config"
)

// Requirement defines an external dependency Parallax relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the collaborator binaries for the given configuration.
// The archiver is optional: runs that never invoke `parallax archive` do not
// need it.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Extracts still frames from 360° video",
		},
		{
			Name:        "ExifTool",
			Command:     "exiftool",
			Description: "Writes panoramic projection metadata onto frames",
		},
		{
			Name:        "Reconstruction engine",
			Command:     cfg.Engine.Binary,
			Description: "Performs alignment, meshing, texturing, and export",
		},
		{
			Name:        "7-Zip",
			Command:     cfg.Archive.Binary,
			Description: "Creates multi-volume project archives",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
