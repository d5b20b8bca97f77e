// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, markdown reports, logs, and docs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

// --- Scan Outcomes ---

var outcomes = map[string]string{
	"updated":                "Updated",
	"would-update":           "Would update",
	"skipped-has-gps":        "Skipped: already has GPS",
	"skipped-low-confidence": "Skipped: low confidence",
	"skipped-scattered":      "Skipped: candidates scattered",
	"failed-read":            "Failed: unreadable file",
	"failed-predict":         "Failed: inference error",
	"failed-write":           "Failed: write error",
}

// Outcome returns the human-readable name for a per-file outcome code.
// Unknown codes are returned as-is.
func Outcome(code string) string {
	if name, ok := outcomes[code]; ok {
		return name
	}
	return code
}

// OutcomeWithCode returns "Updated (updated)" format for dual-audience
// contexts such as Markdown reports.
func OutcomeWithCode(code string) string {
	if name, ok := outcomes[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- GPS Provenance ---

var provenances = map[string]string{
	"none":     "No GPS",
	"ours":     "Tagged by this tool",
	"external": "Camera or other tool",
}

// Provenance returns the human-readable source of a file's GPS tags.
func Provenance(code string) string {
	if name, ok := provenances[code]; ok {
		return name
	}
	return code
}

// GPSTag formats a coordinate string with a provenance trust indicator.
// "ours" → "[geotag]" (safe to overwrite with --update); anything else
// that has GPS → "[external]". Returns coordinate unchanged for "none".
func GPSTag(coordinate, provenance string) string {
	switch provenance {
	case "ours":
		return coordinate + " [geotag]"
	case "external":
		return coordinate + " [external]"
	default:
		return coordinate
	}
}

// --- Suggester Backends ---

var backends = map[string]string{
	"onnx":   "Local ONNX session",
	"remote": "Inference sidecar",
	"static": "Static table",
}

// Backend returns the human-readable name for a suggester backend code.
func Backend(code string) string {
	if name, ok := backends[code]; ok {
		return name
	}
	return code
}
