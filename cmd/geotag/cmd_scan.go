package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"geotag/internal/config"
	"geotag/internal/exifgps"
	"geotag/internal/logging"
	"geotag/internal/scan"
	"geotag/internal/suggest"
)

// sidecarMaxWait bounds how long scan waits for a remote sidecar that is
// still loading its model.
const sidecarMaxWait = 30 * time.Second

var scanFlags struct {
	wetRun      bool
	update      bool
	force       bool
	threshold   float64
	topK        int
	maxDistance float64
	suggester   string
	serverURL   string
	model       string
	gallery     string
	ortLib      string
	exts        []string
	configPath  string
	output      string
	markdown    bool
}

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Scan a photo tree and suggest or write GPS tags",
	Long: `Scan walks a directory tree of images, predicts coordinates for every
photo without GPS tags, and reports which folders would change. The
default is a dry run; pass --wet-run to write the tags.

Usage:
  geotag scan ~/Photos --model geoclip.onnx --gallery gallery.bin
  geotag scan ~/Photos --wet-run --config geotag.yaml
  geotag scan ~/Photos --suggester=remote --server-url=http://localhost:9090

A suggestion is written only when the best candidate's probability is at
least --confidence-threshold and the top candidates agree geographically
(--max-distance-km). Files already tagged by a camera or another tool
are left alone unless --force; files tagged by an earlier geotag run are
re-suggested with --update.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.BoolVar(&scanFlags.wetRun, "wet-run", false, "Write GPS tags (default is a dry run)")
	f.BoolVar(&scanFlags.update, "update", false, "Re-suggest files tagged by earlier geotag runs")
	f.BoolVar(&scanFlags.force, "force", false, "Overwrite any existing GPS tags")
	f.Float64Var(&scanFlags.threshold, "confidence-threshold", scan.DefaultThreshold, "Minimum best-candidate probability")
	f.IntVar(&scanFlags.topK, "top-k", suggest.DefaultTopK, "Candidates per prediction")
	f.Float64Var(&scanFlags.maxDistance, "max-distance-km", scan.DefaultMaxSpreadKm, "Maximum distance between top candidates (km)")
	f.StringVar(&scanFlags.suggester, "suggester", "onnx", "Prediction backend: onnx or remote")
	f.StringVar(&scanFlags.serverURL, "server-url", "", "Inference sidecar base URL (remote suggester)")
	f.StringVar(&scanFlags.model, "model", "", "ONNX image encoder path (onnx suggester)")
	f.StringVar(&scanFlags.gallery, "gallery", "", "GPS gallery path (onnx suggester)")
	f.StringVar(&scanFlags.ortLib, "ort-lib", "", "Path to the onnxruntime shared library")
	f.StringSliceVar(&scanFlags.exts, "exts", nil, "Image extensions to scan (default: jpg, jpeg, tif, tiff, webp, png)")
	f.StringVar(&scanFlags.configPath, "config", "", "Config file (YAML/JSON); flags override it")
	f.StringVarP(&scanFlags.output, "output", "o", "", "Write the full JSON report to this path")
	f.BoolVar(&scanFlags.markdown, "markdown", false, "Write a Markdown report (.md) alongside the JSON report")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveScanConfig(cmd)
	if err != nil {
		return err
	}

	sg, err := buildSuggester(cmd, cfg)
	if err != nil {
		return err
	}
	defer sg.Close()

	var writer scan.TagWriter
	if scanFlags.wetRun {
		w, err := exifgps.NewWriter(version)
		if err != nil {
			return fmt.Errorf("exiftool: %w", err)
		}
		defer w.Close()
		writer = w
	}

	scanner, err := scan.New(sg, exifgps.NewReader(), writer, scan.Options{
		WetRun:      scanFlags.wetRun,
		Update:      scanFlags.update,
		Force:       scanFlags.force,
		Threshold:   cfg.ConfidenceThreshold,
		MaxSpreadKm: cfg.MaxDistanceKm,
		Extensions:  cfg.Extensions,
		Progress:    progressWanted(),
		Version:     version,
	})
	if err != nil {
		return err
	}

	report, err := scanner.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), scan.FormatSummary(report))

	if scanFlags.output != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(scanFlags.output, data, 0600); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to: %s\n", scanFlags.output)

		if scanFlags.markdown {
			mdPath := strings.TrimSuffix(scanFlags.output, ".json") + ".md"
			mdContent := scan.RenderMarkdown(report, time.Now())
			if err := os.WriteFile(mdPath, []byte(mdContent), 0600); err != nil {
				return fmt.Errorf("write report markdown: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Human-readable report: %s\n", mdPath)
		}
	}
	return nil
}

// resolveScanConfig merges the optional config file with explicit flags.
// Flags win over the file; the file wins over built-in defaults. The
// merged result is validated so that flag values face the same checks
// as file values.
func resolveScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if scanFlags.configPath != "" {
		c, err := config.LoadFromPath(scanFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	fl := cmd.Flags()
	if fl.Changed("suggester") {
		cfg.Suggester = scanFlags.suggester
	}
	if fl.Changed("server-url") {
		cfg.ServerURL = scanFlags.serverURL
	}
	if fl.Changed("model") {
		cfg.Model = scanFlags.model
	}
	if fl.Changed("gallery") {
		cfg.Gallery = scanFlags.gallery
	}
	if fl.Changed("ort-lib") {
		cfg.ORTLib = scanFlags.ortLib
	}
	if fl.Changed("top-k") {
		cfg.TopK = scanFlags.topK
	}
	if fl.Changed("confidence-threshold") {
		cfg.ConfidenceThreshold = scanFlags.threshold
	}
	if fl.Changed("max-distance-km") {
		cfg.MaxDistanceKm = scanFlags.maxDistance
	}
	if fl.Changed("exts") {
		cfg.Extensions = scanFlags.exts
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSuggester(cmd *cobra.Command, cfg *config.Config) (suggest.Suggester, error) {
	switch cfg.Suggester {
	case "onnx":
		if cfg.Model == "" || cfg.Gallery == "" {
			return nil, fmt.Errorf("onnx suggester needs --model and --gallery (or a config file)\n\nExample:\n  geotag scan ~/Photos --model geoclip.onnx --gallery gallery.bin")
		}
		return suggest.NewONNX(suggest.ONNXConfig{
			ModelPath:   cfg.Model,
			GalleryPath: cfg.Gallery,
			LibraryPath: cfg.ORTLib,
			TopK:        cfg.TopK,
			Logger:      logging.New("onnx"),
		})
	case "remote":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("remote suggester needs --server-url (or a config file)\n\nExample:\n  geotag scan ~/Photos --suggester=remote --server-url=http://localhost:9090")
		}
		r, err := suggest.NewRemote(cfg.ServerURL,
			suggest.WithTopK(cfg.TopK),
			suggest.WithLogger(logging.New("remote")),
		)
		if err != nil {
			return nil, err
		}
		if err := r.WaitReady(cmd.Context(), sidecarMaxWait); err != nil {
			return nil, fmt.Errorf("sidecar at %s not ready: %w", cfg.ServerURL, err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown suggester: %s (supported: onnx, remote)", cfg.Suggester)
	}
}

// progressWanted shows the bar only when logs are quiet enough not to
// fight it for the terminal.
func progressWanted() bool {
	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return false
	}
	return level >= slog.LevelWarn && isatty.IsTerminal(os.Stderr.Fd())
}
