package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/pkg/model"
)

// Listing is the machine-readable form of a snapshot.
type Listing struct {
	TakenAt   time.Time       `json:"taken_at" yaml:"taken_at"`
	Count     int             `json:"count" yaml:"count"`
	Processes []model.Process `json:"processes" yaml:"processes"`
	Summary   *perf.Summary   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func NewListing(takenAt time.Time, procs []model.Process, summary *perf.Summary) Listing {
	if procs == nil {
		procs = []model.Process{}
	}
	return Listing{TakenAt: takenAt, Count: len(procs), Processes: procs, Summary: summary}
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Formats lists the accepted values for Write.
var Formats = []string{"table", "json", "yaml"}

// Write renders l in format. Table output goes through the TableRenderer
// and ends with the summary footer when one is attached.
func Write(w io.Writer, format string, l Listing, total int, colorEnabled bool, elapsed time.Duration) error {
	switch format {
	case "", "table":
		t := NewTableRenderer(w, colorEnabled)
		t.Render(l.Processes)
		if l.Summary != nil {
			t.PrintFooter(l.Count, total, *l.Summary, elapsed)
		}
		return nil
	case "json":
		return WriteJSON(w, l)
	case "yaml":
		return WriteYAML(w, l)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
