package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const dicomdirName = "DICOMDIR"

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDICOMDIR(path string) bool {
	return filepath.Base(path) == dicomdirName
}

// isCandidate reports whether d is a regular file or a symlink to one.
// Symlinked directories are not followed; pipes, devices and sockets are left out.
func (s *Scanner) isCandidate(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("skipping dangling symlink")
		return false
	}
	return info.Mode().IsRegular()
}

// listFiles returns every regular file under root, including symlinked
// ones, in lexical walk order.
// Hidden files and hidden directories are dropped as each listing is read.
// Unreadable directories are logged and skipped.
func (s *Scanner) listFiles(ctx context.Context, root string) ([]string, bool) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("cannot read directory entry")
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if s.isCandidate(path, d) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil, true
	}
	return files, false
}
