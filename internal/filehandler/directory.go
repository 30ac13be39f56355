package filehandler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScanDirectory lists the regular files directly inside dirPath whose
// extension matches ext (case-insensitive, e.g. ".jpg"). Subdirectories are
// not descended into. Symlinks to files are followed; symlinks to
// directories are skipped. Paths are absolute and sorted by name.
func ScanDirectory(dirPath, ext string) ([]string, error) {
	log.Debug().
		Str("path", dirPath).
		Str("extension", ext).
		Msg("Scanning directory for images")

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, d := range entries {
		if !strings.EqualFold(filepath.Ext(d.Name()), ext) {
			continue
		}
		path := filepath.Join(absPath, d.Name())

		if d.IsDir() {
			continue
		}
		if d.Type()&fs.ModeSymlink != 0 {
			targetInfo, err := os.Stat(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to resolve symlink, skipping")
				continue
			}
			if !targetInfo.Mode().IsRegular() {
				log.Debug().Str("path", path).Msg("Skipping symlink to non-regular file")
				continue
			}
		} else if !d.Type().IsRegular() {
			continue
		}

		files = append(files, path)
	}

	sort.Strings(files)

	log.Debug().
		Int("total_images", len(files)).
		Str("directory", absPath).
		Msg("Directory scan complete")

	return files, nil
}
