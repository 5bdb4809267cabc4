// Package scanner discovers markdown documents under configured roots.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ScannedFile is discovery metadata for one document. It is recomputed on
// every scan and never persisted.
type ScannedFile struct {
	Path  string
	MTime int64
	Size  int64
}

// Options configures a scan.
type Options struct {
	Extensions    []string // lowercase extension allow-list
	Exclude       []string // doublestar glob patterns, matched against slash paths
	IncludeHidden bool
}

// DefaultExtensions is the markdown allow-list shared with the watcher.
var DefaultExtensions = []string{".md", ".markdown"}

// Scan walks roots (files or directories) and returns a sorted, deduplicated
// list of matching files. Hidden entries prune their whole subtree unless
// IncludeHidden is set. Unreadable entries are skipped, never fatal.
func Scan(roots []string, opts Options) []ScannedFile {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	seen := make(map[string]bool)
	var results []ScannedFile

	add := func(path string, info fs.FileInfo) {
		if !hasExtension(path, exts) {
			return
		}
		if excluded(path, opts.Exclude) {
			return
		}
		resolved, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if real, err := filepath.EvalSymlinks(resolved); err == nil {
			resolved = real
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		results = append(results, ScannedFile{
			Path:  resolved,
			MTime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(root, info)
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Permission errors and races skip the entry, not the scan.
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !opts.IncludeHidden && isHidden(d.Name()) && path != root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			add(path, info)
			return nil
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func excluded(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		// Also match against the basename so bare patterns like "draft-*.md" work.
		if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
