package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bakesales/internal/sales"
)

// ExportFile describes one discovered POS export file. Date is the
// filename-derived calendar date; HasDate is false for files without a
// YYYYMMDD run, which are excluded from date-range filtering but still
// usable when they carry a structured Saledate column.
type ExportFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Date    time.Time
	HasDate bool
}

// Discovery provides export-file discovery operations rooted at a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExportFiles finds all Excel and CSV export files in the directory,
// sorted by name so daily exports come back in date order.
func (d *Discovery) FindExportFiles(dir string) ([]ExportFile, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []ExportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" && ext != ".csv" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		file := ExportFile{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		file.Date, file.HasDate = sales.DateFromFilename(name)
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FilterByDateRange keeps the files whose filename date falls inside the
// inclusive [start, end] range. Files without a filename date are dropped.
func FilterByDateRange(files []ExportFile, start, end time.Time) []ExportFile {
	var filtered []ExportFile
	for _, file := range files {
		if !file.HasDate {
			continue
		}
		if file.Date.Before(start) || file.Date.After(end) {
			continue
		}
		filtered = append(filtered, file)
	}
	return filtered
}

// GetLatestFile returns the file with the most recent filename date,
// falling back to modification time for undated files.
func GetLatestFile(files []ExportFile) (ExportFile, bool) {
	if len(files) == 0 {
		return ExportFile{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		switch {
		case file.HasDate && latest.HasDate:
			if file.Date.After(latest.Date) {
				latest = file
			}
		case file.HasDate:
			latest = file
		case !latest.HasDate && file.ModTime.After(latest.ModTime):
			latest = file
		}
	}
	return latest, true
}
