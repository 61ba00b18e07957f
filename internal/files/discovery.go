package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kpianalyzer/internal/ingest"
)

// ErrNoFiles is returned when the given paths hold no agency files.
var ErrNoFiles = errors.New("no agency files found")

// FileInfo represents a discovered agency file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Agency is the agency label the file loads under.
func (f FileInfo) Agency() string {
	return ingest.AgencyNameFromFile(f.Name)
}

// Discovery expands paths into agency files
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger.With(slog.String("component", "discovery"))}
}

// IsAgencyFile reports whether name looks like a loadable agency file.
// Hidden files and "~$" lock files left by spreadsheet editors are not.
func IsAgencyFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	return ingest.IsSupported(base)
}

// FindAgencyFiles lists the agency files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func (d *Discovery) FindAgencyFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsAgencyFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	d.logger.Debug("directory scanned",
		slog.String("directory", dir),
		slog.Int("files_found", len(files)))
	return files, nil
}

// Expand resolves each path into agency files. Directories contribute their
// agency files; anything else must be a readable regular file and is kept
// whatever its extension, so the parser can report unsupported formats per
// file. The same file named twice is only returned once.
func (d *Discovery) Expand(paths []string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)
	add := func(f FileInfo) {
		key := filepath.Clean(f.Path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, f)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s does not exist", path)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := d.FindAgencyFiles(path)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				d.logger.Warn("no agency files in directory", slog.String("directory", path))
			}
			for _, f := range found {
				add(f)
			}
			continue
		}

		f, err := ValidateFile(path)
		if err != nil {
			return nil, err
		}
		add(f)
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// ValidateFile checks that path is an existing, readable regular file.
func ValidateFile(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FileInfo{}, fmt.Errorf("%s does not exist", path)
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s is not readable: %w", path, err)
	}
	file.Close()

	return FileInfo{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Paths returns the paths of files in order.
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
