package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/submission-intake/constants"
)

// Discovered groups the intake files found under a directory.
type Discovered struct {
	Emails []string
	PDFs   []string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// DiscoverDirectory walks root, skips hidden entries if requested,
// and collects .eml and .pdf paths in lexical order.
func DiscoverDirectory(root string, skipHidden bool) (Discovered, DirStats, error) {
	var out Discovered
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return out, stats, errors.New("root path is required")
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch constants.MapExtToFormat(filepath.Ext(path)) {
		case constants.EMAIL:
			out.Emails = append(out.Emails, path)
		case constants.PDF:
			out.PDFs = append(out.PDFs, path)
		default:
			stats.Skipped++
			return nil
		}
		stats.Matched++
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(out.Emails)
	sort.Strings(out.PDFs)
	return out, stats, nil
}
