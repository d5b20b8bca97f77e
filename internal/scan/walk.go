// Package scan drives the geotagging pipeline: enumerate image files,
// ask the suggester for coordinates, gate on confidence and geographic
// consistency, and conditionally write GPS tags.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"geotag/internal/logging"
)

// DefaultExtensions lists the image types the scanner considers.
var DefaultExtensions = []string{".jpg", ".jpeg", ".tif", ".tiff", ".webp", ".png"}

// FileEntry is one enumerated image file.
type FileEntry struct {
	Path string
	Dir  string
	Size int64
}

// Walk enumerates image files under root in lexical path order, which
// keeps files within a directory sorted. A missing or non-directory
// root is the only fatal condition; unreadable subtrees are logged and
// skipped.
func Walk(root string, exts []string) ([]FileEntry, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("scan root %s: not a directory", root)
	}

	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[strings.ToLower(e)] = struct{}{}
	}

	log := logging.New("walk")
	var files []FileEntry
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := extSet[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warn("skipping file without metadata", "path", path, "error", err)
			return nil
		}
		files = append(files, FileEntry{Path: path, Dir: filepath.Dir(path), Size: info.Size()})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return files, nil
}
