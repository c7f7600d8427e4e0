package scanner

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	pattern     string // Original pattern
	glob        string // Pattern with markers stripped
	isNegation  bool   // True if pattern starts with !
	isDirectory bool   // True if pattern ends with /
	isAnchored  bool   // True if pattern contains a slash before its end
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	// A leading or inner slash anchors the pattern to the ignore file's directory.
	if strings.Contains(pattern, "/") {
		p.isAnchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	p.glob = pattern
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.pattern
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// Match reports whether the slash-separated relative path, or any directory
// containing it, matches the pattern.
func (p IgnorePattern) Match(relPath string, isDir bool) bool {
	if p.matchOne(relPath, isDir) {
		return true
	}
	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if p.matchOne(dir, true) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchOne(candidate string, isDir bool) bool {
	if p.isDirectory && !isDir {
		return false
	}
	if !p.isAnchored {
		candidate = path.Base(candidate)
	}
	ok, err := doublestar.Match(p.glob, candidate)
	return err == nil && ok
}

// IgnoreRules is an ordered list of patterns with gitignore precedence: the last
// matching pattern wins, so negations can re-include earlier matches.
type IgnoreRules []IgnorePattern

// ParseIgnoreRules parses the lines of an ignore file, skipping blanks and comments.
func ParseIgnoreRules(lines []string) IgnoreRules {
	var rules IgnoreRules
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, ParseIgnorePattern(line))
	}
	return rules
}

// Ignored reports whether relPath is excluded by the rules.
func (r IgnoreRules) Ignored(relPath string, isDir bool) bool {
	ignored := false
	for _, pattern := range r {
		if pattern.Match(relPath, isDir) {
			ignored = !pattern.IsNegation()
		}
	}
	return ignored
}
