// Package storage is the filesystem edge: it resolves the per-user data
// directory and reads/writes the files the client persists there (snapshots,
// authoring drafts, keybinds, the instance lock).
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appDirName = "DropMapStudio"

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// DataDir returns the writable data directory, creating it on first use.
// DROPMAP_DATA_DIR overrides the platform default.
func DataDir() string {
	dataDirOnce.Do(func() {
		dataDirPath = resolveDataDir()
		if err := os.MkdirAll(dataDirPath, 0o755); err != nil {
			// Leave the path as resolved; individual writes will surface the
			// error with the file name attached.
			fmt.Fprintf(os.Stderr, "storage: cannot create %s: %v\n", dataDirPath, err)
		}
	})
	return dataDirPath
}

// DataFile joins the data directory with a relative file name.
func DataFile(name string) string {
	return filepath.Join(DataDir(), name)
}

// ReadDataFile reads one file from the data directory.
func ReadDataFile(name string) ([]byte, error) {
	data, err := os.ReadFile(DataFile(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// WriteDataFile writes one file into the data directory.
func WriteDataFile(name string, data []byte, perm os.FileMode) error {
	path := DataFile(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func resolveDataDir() string {
	if custom := os.Getenv("DROPMAP_DATA_DIR"); custom != "" {
		return custom
	}

	switch runtime.GOOS {
	case "windows":
		for _, env := range []string{"APPDATA", "LOCALAPPDATA"} {
			if base := os.Getenv(env); base != "" {
				return filepath.Join(base, appDirName)
			}
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", appDirName)
		}
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", appDirName)
		}
	}

	return "." + string(filepath.Separator) + appDirName
}
