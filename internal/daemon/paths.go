package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/cadence/internal/config"
)

// DaemonInfo contains connection information for the daemon.
// This is written to daemon.json so CLI commands can find the daemon
// from any subdirectory of the project.
type DaemonInfo struct {
	SocketPath   string    `json:"socket_path"`
	PIDPath      string    `json:"pid_path"`
	LogPath      string    `json:"log_path"`
	EventLogPath string    `json:"event_log_path,omitempty"`
	MetricsAddr  string    `json:"metrics_addr,omitempty"`
	StartTime    time.Time `json:"start_time"`
	PID          int       `json:"pid"`
	InstanceID   string    `json:"instance_id,omitempty"`
}

// StateDir is the per-project directory holding runtime files.
const StateDir = ".cadence"

// daemonInfoFile is the name of the file containing daemon connection info.
const daemonInfoFile = "daemon.json"

// projectMarkers are directories that indicate project root.
var projectMarkers = []string{".git", StateDir}

// ResolvePaths converts relative paths to absolute paths using the given base directory.
// If basePath is empty, the current working directory is used.
func ResolvePaths(paths config.PathsConfig, basePath string) (config.PathsConfig, error) {
	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(basePath, p)
	}

	resolved := config.PathsConfig{
		Log:    resolve(paths.Log),
		Socket: resolve(paths.Socket),
		PID:    resolve(paths.PID),
	}
	if paths.EventLog != "" {
		resolved.EventLog = resolve(paths.EventLog)
	}
	return resolved, nil
}

// FindProjectRoot walks up the directory tree from startDir looking for
// project markers (.git or .cadence). Returns the directory containing
// the marker, or startDir if no marker is found.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	// Convert to absolute path
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	dir := absDir
	for {
		// Check for project markers
		for _, marker := range projectMarkers {
			markerPath := filepath.Join(dir, marker)
			if info, err := os.Stat(markerPath); err == nil && info.IsDir() {
				return dir
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding marker
			return absDir
		}
		dir = parent
	}
}

// ErrStaleDaemonInfo means daemon.json names a host process that is gone.
var ErrStaleDaemonInfo = errors.New("daemon info is stale (host not running)")

// FindDaemonInfo loads daemon.json from the project root above startDir.
// A file left behind by a crashed host yields ErrStaleDaemonInfo.
func FindDaemonInfo(startDir string) (*DaemonInfo, error) {
	infoPath := DaemonInfoPath(FindProjectRoot(startDir))
	info, err := ReadDaemonInfo(infoPath)
	if err != nil {
		return nil, fmt.Errorf("daemon info not found (checked %s)", infoPath)
	}
	if info.PID != 0 && !IsProcessRunning(info.PID) {
		return nil, fmt.Errorf("%s: %w", infoPath, ErrStaleDaemonInfo)
	}
	return info, nil
}

// WriteDaemonInfo writes daemon connection info to path. The file is
// replaced atomically so readers never see a partial document.
func WriteDaemonInfo(path string, info *DaemonInfo) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon info: %w", err)
	}

	tmp, err := os.CreateTemp(dir, daemonInfoFile+".*")
	if err != nil {
		return fmt.Errorf("create temp daemon info: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write daemon info: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod daemon info: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close daemon info: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace daemon info: %w", err)
	}
	return nil
}

// ReadDaemonInfo reads daemon connection info from the specified path.
func ReadDaemonInfo(path string) (*DaemonInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon info: %w", err)
	}

	var info DaemonInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal daemon info: %w", err)
	}

	return &info, nil
}

// RemoveDaemonInfo removes the daemon.json file.
func RemoveDaemonInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}

// DaemonInfoPath returns the path to daemon.json under the project root.
func DaemonInfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, StateDir, daemonInfoFile)
}
