// Package healthcheck inspects the environment mfproc runs in: which config file is
// in effect, whether the report cache can be read and what the ignore file holds.
package healthcheck

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-multifn/internal/config"
	"github.com/l3aro/go-multifn/internal/scanner"
	"github.com/l3aro/go-multifn/pkg/cache"
	"github.com/l3aro/go-multifn/pkg/multifn"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

// Status values reported for each component.
const (
	StatusReady    = "ready"
	StatusEmpty    = "empty"
	StatusDisabled = "disabled"
	StatusMissing  = "missing"
	StatusError    = "error"
)

// ComponentStatus represents the health of one component.
type ComponentStatus struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	ConfigPath  string          `json:"config_path,omitempty"`
	ConfigScope string          `json:"config_scope"` // "global", "project" or "defaults"
	Cache       ComponentStatus `json:"cache"`
	IgnoreFile  ComponentStatus `json:"ignore_file"`
	Functions   ComponentStatus `json:"functions"`
}

// Healthy reports whether no component is in error.
func (r *HealthCheckResult) Healthy() bool {
	for _, c := range []ComponentStatus{r.Cache, r.IgnoreFile, r.Functions} {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Check performs a health check against the given config.
// configPath is the config file in effect, empty when only defaults apply.
// root is the directory whose ignore file is inspected.
func Check(cfg *config.Config, configPath, root string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	return &HealthCheckResult{
		ConfigPath:  configPath,
		ConfigScope: scopeFromPath(configPath),
		Cache:       checkCache(cfg),
		IgnoreFile:  checkIgnoreFile(cfg, root),
		Functions:   checkFunctions(),
	}, nil
}

// Locate returns the config file Load gives the last word to: the project file if it
// exists, else the global one, else "".
func Locate() string {
	for _, path := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// scopeFromPath determines "global" or "project" scope from a config file path.
func scopeFromPath(path string) string {
	if path == "" {
		return "defaults"
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".mfproc")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkCache opens the report cache read-only and counts its entries.
func checkCache(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "report cache", Detail: cfg.CachePath}

	if !cfg.CacheEnabled {
		status.Status = StatusDisabled
		return status
	}

	if _, err := os.Stat(cfg.CachePath); os.IsNotExist(err) {
		status.Status = StatusEmpty
		return status
	}

	store, err := cache.Open[procedure.Report](cfg.CachePath, cfg.CacheMaxEntries)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%s (%d entries)", cfg.CachePath, store.Len())
	return status
}

// checkIgnoreFile parses the ignore file at root and reports how many patterns it holds.
func checkIgnoreFile(cfg *config.Config, root string) ComponentStatus {
	path := filepath.Join(root, cfg.IgnoreFile)
	status := ComponentStatus{Name: "ignore file", Detail: path}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			status.Status = StatusMissing
			return status
		}
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%s (%d patterns)", path, len(scanner.ParseIgnoreRules(lines)))
	return status
}

func checkFunctions() ComponentStatus {
	return ComponentStatus{
		Name:   "builtin functions",
		Detail: fmt.Sprintf("%d registered", len(multifn.Builtins().Names())),
		Status: StatusReady,
	}
}
