// Package scanner finds procedure description files. It walks directory trees,
// keeps files with a description extension and respects an ignore file with
// gitignore-style patterns at the scan root.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	Extension       string   // Only files ending in this suffix are returned
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string   // Name of the ignore file at the scan root
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Extension:      ".proc.yaml",
		SkipHidden:     true,
		IgnoreFileName: ".mfprocignore",
		DefaultExcludes: []string{
			"node_modules",
			"vendor",
			"dist",
			"build",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns matching files sorted by path.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	rules, err := s.loadIgnoreRules(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			// Unreadable entries below the root are skipped.
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if (s.opts.SkipHidden && isHidden(d.Name())) || s.isDefaultExcluded(d.Name()) || rules.Ignored(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), s.opts.Extension) {
			return nil
		}
		if rules.Ignored(relPath, false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     relPath,
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Resolve expands command line arguments into description files. Files are taken
// as given whatever their extension; directories are scanned. The result keeps
// argument order and drops duplicates.
func (s *Scanner) Resolve(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, fmt.Errorf("getting absolute path: %w", err)
			}
			add(abs)
			continue
		}
		files, err := s.Scan(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f.FullPath)
		}
	}
	return paths, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnoreRules loads patterns from the ignore file in dir. A missing file yields no rules.
func (s *Scanner) loadIgnoreRules(dir string) (IgnoreRules, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ParseIgnoreRules(lines), nil
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
