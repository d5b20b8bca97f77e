// Package config loads optional tool configuration from a YAML or JSON
// file. Flags always override config values; there is no
// environment-variable configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds defaults for a scan run. Fields absent from a config
// file keep their Default() values; Default() returns a fully
// populated instance.
type Config struct {
	Suggester           string   `json:"suggester,omitempty" yaml:"suggester,omitempty"`                       // onnx | remote
	ServerURL           string   `json:"server_url,omitempty" yaml:"server_url,omitempty"`                     // remote suggester base URL
	Model               string   `json:"model,omitempty" yaml:"model,omitempty"`                               // ONNX image encoder path
	Gallery             string   `json:"gallery,omitempty" yaml:"gallery,omitempty"`                           // GPS gallery path
	ORTLib              string   `json:"ort_lib,omitempty" yaml:"ort_lib,omitempty"`                           // onnxruntime shared library path
	TopK                int      `json:"top_k,omitempty" yaml:"top_k,omitempty"`                               // candidates per prediction
	ConfidenceThreshold float64  `json:"confidence_threshold,omitempty" yaml:"confidence_threshold,omitempty"` // minimum best probability
	MaxDistanceKm       float64  `json:"max_distance_km,omitempty" yaml:"max_distance_km,omitempty"`           // top-k spread gate
	Extensions          []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`                     // image extensions to scan
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Suggester:           "onnx",
		TopK:                5,
		ConfidenceThreshold: 0.80,
		MaxDistanceKm:       20.0,
		Extensions:          []string{".jpg", ".jpeg", ".tif", ".tiff", ".webp", ".png"},
	}
}

// LoadFromPath reads a config file (YAML or JSON) and returns the parsed Config.
// Format is detected by extension (.yaml/.yml → YAML, .json → JSON) or by content (first non-whitespace char).
// Fields absent from the file keep their Default() values.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config from bytes. ext is the file extension (e.g. ".json", ".yaml") for format hint; empty = detect from content.
func Load(data []byte, ext string) (*Config, error) {
	cfg := Default()
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == ".yaml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
		return cfg, cfg.Validate()
	}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
		return cfg, cfg.Validate()
	}
	// Detect: try JSON first (starts with {), else YAML
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
		return cfg, cfg.Validate()
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration satisfies the same contract
// the scanner enforces. A zero confidence_threshold is rejected rather
// than silently remapped to the default.
func (c *Config) Validate() error {
	switch c.Suggester {
	case "onnx", "remote":
	default:
		return fmt.Errorf("config: unknown suggester %q (onnx, remote)", c.Suggester)
	}
	if c.TopK < 1 {
		return fmt.Errorf("config: top_k must be at least 1, got %d", c.TopK)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence_threshold must be in (0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.MaxDistanceKm <= 0 {
		return fmt.Errorf("config: max_distance_km must be positive, got %v", c.MaxDistanceKm)
	}
	return nil
}
