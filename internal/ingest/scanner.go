package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ScannedFile represents a supported document found during a directory scan.
type ScannedFile struct {
	RelPath string // Relative path from the root with forward slashes (e.g., "reports/q1.pdf")
	AbsPath string // Absolute file path
	Size    int64
}

// Scan walks root and returns every regular file accepted by supported, ordered by
// relative path. Hidden files and directories are skipped.
func Scan(ctx context.Context, root string, supported func(name string) bool) ([]ScannedFile, error) {
	var scannedFiles []ScannedFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !supported(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		scannedFiles = append(scannedFiles, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(scannedFiles, func(i, j int) bool {
		return scannedFiles[i].RelPath < scannedFiles[j].RelPath
	})
	return scannedFiles, nil
}
