package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"geotag/internal/display"
	"geotag/internal/format"
	"geotag/internal/geo"
)

// Result is one file's outcome.
type Result struct {
	Path        string     `json:"path"`
	Dir         string     `json:"dir"`
	Outcome     string     `json:"outcome"`
	Point       *geo.Point `json:"point,omitempty"`
	Probability float64    `json:"probability,omitempty"`
	SpreadKm    float64    `json:"spread_km,omitempty"`
	Provenance  string     `json:"provenance,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Report aggregates one scan run. It is the JSON artifact written by
// --output and the input to the console and Markdown renderers.
type Report struct {
	RunID        string         `json:"run_id"`
	Version      string         `json:"version"`
	Root         string         `json:"root"`
	Suggester    string         `json:"suggester"`
	WetRun       bool           `json:"wet_run"`
	Update       bool           `json:"update"`
	Force        bool           `json:"force"`
	Threshold    float64        `json:"threshold"`
	MaxSpreadKm  float64        `json:"max_spread_km"`
	StartedAt    time.Time      `json:"started_at"`
	DurationSecs float64        `json:"duration_secs"`
	BytesScanned int64          `json:"bytes_scanned"`
	Counts       map[string]int `json:"counts"`
	Results      []Result       `json:"results"`
}

func newReport(root string, opts Options, suggester string) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Version:     opts.Version,
		Root:        root,
		Suggester:   suggester,
		WetRun:      opts.WetRun,
		Update:      opts.Update,
		Force:       opts.Force,
		Threshold:   opts.Threshold,
		MaxSpreadKm: opts.MaxSpreadKm,
		StartedAt:   time.Now().UTC(),
		Counts:      make(map[string]int),
	}
}

func (r *Report) add(f FileEntry, res Result) {
	res.Path = f.Path
	res.Dir = f.Dir
	r.Results = append(r.Results, res)
	r.Counts[res.Outcome]++
	r.BytesScanned += f.Size
}

func (r *Report) finish(now time.Time) {
	r.DurationSecs = now.UTC().Sub(r.StartedAt).Seconds()
}

func changedOutcome(outcome string) bool {
	return outcome == OutcomeUpdated || outcome == OutcomeWouldUpdate
}

// ChangedDirs returns the sorted set of directories containing at least
// one file this run updated (wet) or would update (dry).
func (r *Report) ChangedDirs() []string {
	set := make(map[string]struct{})
	for _, res := range r.Results {
		if changedOutcome(res.Outcome) {
			set[res.Dir] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// FormatSummary renders the console summary: run parameters, outcome
// counts, and the changed folders one per line so scripts can consume
// them.
func FormatSummary(r *Report) string {
	var b strings.Builder

	b.WriteString("=== Geotag Scan Report ===\n")
	b.WriteString(fmt.Sprintf("Root:      %s\n", r.Root))
	mode := "dry run (no files modified)"
	if r.WetRun {
		mode = "wet run"
	}
	b.WriteString(fmt.Sprintf("Mode:      %s\n", mode))
	b.WriteString(fmt.Sprintf("Suggester: %s\n", display.Backend(r.Suggester)))
	b.WriteString(fmt.Sprintf("Gates:     probability >= %s, spread <= %s\n\n",
		format.FmtPercent(r.Threshold), format.FmtKm(r.MaxSpreadKm)))

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Outcome", "Files")
	tbl.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	for _, code := range OutcomeOrder {
		if n := r.Counts[code]; n > 0 {
			tbl.Row(display.Outcome(code), n)
		}
	}
	tbl.Footer("Total", len(r.Results))
	b.WriteString(tbl.String())
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("\nScanned %d files (%s) in %s\n",
		len(r.Results),
		humanize.Bytes(uint64(r.BytesScanned)),
		format.FmtDuration(time.Duration(r.DurationSecs*float64(time.Second)))))

	dirs := r.ChangedDirs()
	if len(dirs) == 0 {
		b.WriteString("No folders with changes.\n")
		return b.String()
	}
	label := "with suggested changes"
	if r.WetRun {
		label = "updated"
	}
	b.WriteString(fmt.Sprintf("Folders %s (%d):\n", label, len(dirs)))
	for _, d := range dirs {
		b.WriteString(d + "\n")
	}
	return b.String()
}

// RenderMarkdown produces a human-readable Markdown report. timestamp
// is the render time, passed in so the function stays pure.
func RenderMarkdown(r *Report, timestamp time.Time) string {
	var b strings.Builder

	b.WriteString("# Geotag Scan Report\n\n")

	tbl := format.NewTable(format.Markdown)
	tbl.Header("Field", "Value")
	tbl.Row("Run", r.RunID)
	tbl.Row("Root", r.Root)
	tbl.Row("Rendered", timestamp.UTC().Format("2006-01-02 15:04 UTC"))
	mode := "dry run"
	if r.WetRun {
		mode = "wet run"
	}
	tbl.Row("Mode", mode)
	tbl.Row("Suggester", display.Backend(r.Suggester))
	tbl.Row("Confidence threshold", format.FmtPercent(r.Threshold))
	tbl.Row("Max spread", format.FmtKm(r.MaxSpreadKm))
	tbl.Row("Re-tag own files (--update)", format.BoolMark(r.Update))
	tbl.Row("Overwrite any GPS (--force)", format.BoolMark(r.Force))
	tbl.Row("Files", len(r.Results))
	tbl.Row("Data", humanize.Bytes(uint64(r.BytesScanned)))
	b.WriteString(tbl.String())
	b.WriteString("\n\n## Outcomes\n\n")

	counts := format.NewTable(format.Markdown)
	counts.Header("Outcome", "Files")
	for _, code := range OutcomeOrder {
		if n := r.Counts[code]; n > 0 {
			counts.Row(display.OutcomeWithCode(code), n)
		}
	}
	b.WriteString(counts.String())
	b.WriteString("\n")

	if dirs := r.ChangedDirs(); len(dirs) > 0 {
		b.WriteString("\n## Changed folders\n\n")
		for _, d := range dirs {
			b.WriteString("- `" + d + "`\n")
		}
	}

	var failures []Result
	for _, res := range r.Results {
		if res.Error != "" {
			failures = append(failures, res)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, res := range failures {
			b.WriteString(fmt.Sprintf("- `%s` (%s): %s\n",
				res.Path, display.Outcome(res.Outcome), format.Truncate(res.Error, 120)))
		}
	}
	return b.String()
}
