package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"geotag/internal/exifgps"
	"geotag/internal/geo"
	"geotag/internal/logging"
	"geotag/internal/suggest"
)

// Per-file outcome codes. Raw codes go into the JSON report; the
// display package owns their human names.
const (
	OutcomeUpdated          = "updated"
	OutcomeWouldUpdate      = "would-update"
	OutcomeSkippedHasGPS    = "skipped-has-gps"
	OutcomeSkippedLowConf   = "skipped-low-confidence"
	OutcomeSkippedScattered = "skipped-scattered"
	OutcomeFailedRead       = "failed-read"
	OutcomeFailedPredict    = "failed-predict"
	OutcomeFailedWrite      = "failed-write"
)

// OutcomeOrder fixes the rendering order of outcome counts in reports.
var OutcomeOrder = []string{
	OutcomeUpdated,
	OutcomeWouldUpdate,
	OutcomeSkippedHasGPS,
	OutcomeSkippedLowConf,
	OutcomeSkippedScattered,
	OutcomeFailedRead,
	OutcomeFailedPredict,
	OutcomeFailedWrite,
}

// Acceptance gate defaults.
const (
	DefaultThreshold   = 0.80
	DefaultMaxSpreadKm = 20.0
)

// GPSReader reports the GPS state of an image file.
type GPSReader interface {
	Read(path string) (*exifgps.Info, error)
}

// TagWriter writes GPS coordinates into an image's metadata.
type TagWriter interface {
	Write(path string, p geo.Point) error
}

// Options configures a scan run. Zero Threshold and MaxSpreadKm fall
// back to the defaults.
type Options struct {
	WetRun      bool     // actually write tags; false reports only
	Update      bool     // re-tag files this tool tagged before
	Force       bool     // overwrite any existing GPS
	Threshold   float64  // minimum best-candidate probability
	MaxSpreadKm float64  // maximum top-k geographic spread
	Extensions  []string // image extensions; empty means DefaultExtensions
	Progress    bool     // render a progress bar on stderr
	Version     string   // tool version, recorded in the report
}

// Scanner drives the pipeline over one directory tree.
type Scanner struct {
	suggester suggest.Suggester
	reader    GPSReader
	writer    TagWriter
	opts      Options
	logger    *slog.Logger
}

// New builds a Scanner. writer may be nil for dry runs; wet runs
// require one.
func New(sg suggest.Suggester, reader GPSReader, writer TagWriter, opts Options) (*Scanner, error) {
	if sg == nil {
		return nil, fmt.Errorf("scan: suggester is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("scan: reader is required")
	}
	if opts.WetRun && writer == nil {
		return nil, fmt.Errorf("scan: wet run requires a writer")
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("scan: threshold %v out of range (0,1]", opts.Threshold)
	}
	if opts.MaxSpreadKm == 0 {
		opts.MaxSpreadKm = DefaultMaxSpreadKm
	}
	if opts.MaxSpreadKm < 0 {
		return nil, fmt.Errorf("scan: max spread must be positive, got %v", opts.MaxSpreadKm)
	}
	return &Scanner{
		suggester: sg,
		reader:    reader,
		writer:    writer,
		opts:      opts,
		logger:    logging.New("scan"),
	}, nil
}

// Run scans root and returns the aggregated report. Files are processed
// one at a time, in walk order; per-file failures are recorded and the
// run continues. On context cancellation the report built so far is
// returned along with the context's error.
func (s *Scanner) Run(ctx context.Context, root string) (*Report, error) {
	files, err := Walk(root, s.opts.Extensions)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scan starting",
		"root", root, "files", len(files), "wet_run", s.opts.WetRun,
		"threshold", s.opts.Threshold, "suggester", s.suggester.Name())

	report := newReport(root, s.opts, s.suggester.Name())

	var bar *progressbar.ProgressBar
	if s.opts.Progress && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			report.finish(time.Now())
			return report, err
		}
		res := s.processFile(ctx, f)
		report.add(f, res)
		s.logResult(f.Path, res)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	report.finish(time.Now())
	return report, nil
}

func (s *Scanner) processFile(ctx context.Context, f FileEntry) Result {
	info, err := s.reader.Read(f.Path)
	if err != nil {
		return Result{Outcome: OutcomeFailedRead, Error: err.Error()}
	}

	if info.HasGPS {
		eligible := s.opts.Force ||
			(s.opts.Update && info.Provenance() == exifgps.ProvenanceOurs)
		if !eligible {
			return Result{Outcome: OutcomeSkippedHasGPS, Provenance: info.Provenance()}
		}
	}

	pred, err := s.suggester.Predict(ctx, f.Path)
	if err != nil {
		return Result{Outcome: OutcomeFailedPredict, Error: err.Error()}
	}

	best := pred.Best()
	point := best.Point()
	if best.Probability < s.opts.Threshold {
		return Result{
			Outcome:     OutcomeSkippedLowConf,
			Point:       &point,
			Probability: best.Probability,
		}
	}
	if spread := pred.SpreadKm(); spread > s.opts.MaxSpreadKm {
		return Result{
			Outcome:     OutcomeSkippedScattered,
			Point:       &point,
			Probability: best.Probability,
			SpreadKm:    spread,
		}
	}

	if !s.opts.WetRun {
		return Result{
			Outcome:     OutcomeWouldUpdate,
			Point:       &point,
			Probability: best.Probability,
		}
	}

	if err := s.writer.Write(f.Path, point); err != nil {
		return Result{Outcome: OutcomeFailedWrite, Error: err.Error()}
	}
	return Result{
		Outcome:     OutcomeUpdated,
		Point:       &point,
		Probability: best.Probability,
	}
}

func (s *Scanner) logResult(path string, res Result) {
	switch res.Outcome {
	case OutcomeFailedRead, OutcomeFailedPredict, OutcomeFailedWrite:
		s.logger.Warn("file failed", "path", path, "outcome", res.Outcome, "error", res.Error)
	case OutcomeUpdated, OutcomeWouldUpdate:
		s.logger.Info("gps suggestion accepted",
			"path", path, "outcome", res.Outcome,
			"point", res.Point.String(), "probability", res.Probability)
	default:
		s.logger.Debug("file skipped", "path", path, "outcome", res.Outcome)
	}
}
