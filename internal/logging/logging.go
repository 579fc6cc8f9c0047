package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Logger is shared by every package; it discards output until Initialize
// enables debug logging.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// logFile is the file Logger writes to, if any
var logFile *os.File

// Options controls where logs go
type Options struct {
	Debug       bool
	File        string // explicit file, never rotated
	Dir         string // overrides the OS state directory
	MaxLogFiles int
}

// Initialize sets up Logger. It returns the log file path, or "" when
// logging is discarded.
func Initialize(opts Options) (string, error) {
	if err := Close(); err != nil {
		return "", err
	}
	if !opts.Debug && opts.File == "" {
		return "", nil
	}

	path := opts.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = stateDir(); err != nil {
				return "", fmt.Errorf("failed to get log directory: %w", err)
			}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		if opts.MaxLogFiles > 0 {
			if err := rotate(dir, opts.MaxLogFiles); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
			}
		}
		path = filepath.Join(dir, uuid.New().String()+".log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("Debug logging initialized", "log_file", path)
	return path, nil
}

// Close closes the log file and discards further output
func Close() error {
	Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// rotate deletes the oldest .log files so that one more fits under max
func rotate(dir string, max int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	type logFile struct {
		path    string
		modTime time.Time
	}
	var files []logFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(files) < max {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	for i := 0; i < len(files)-max+1; i++ {
		if err := os.Remove(files[i].path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete old log file %s: %v\n", files[i].path, err)
		}
	}
	return nil
}

// stateDir returns the OS-specific log directory
func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "steershaft-checklist"), nil
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(local, "steershaft-checklist", "logs"), nil
	default:
		state := os.Getenv("XDG_STATE_HOME")
		if state == "" {
			state = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(state, "steershaft-checklist"), nil
	}
}
