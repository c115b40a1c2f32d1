package plan

import (
	"path/filepath"
	"time"
)

const (
	yearLayout = "2006"
	dateLayout = "2006-01-02"
)

// Operation represents a planned copy from source to destination.
type Operation struct {
	SourcePath      string
	DestinationPath string
}

// Directory returns <destRoot>/YYYY/YYYY-MM-DD for createdAt, taken in UTC.
func Directory(destRoot string, createdAt time.Time) string {
	createdAt = createdAt.UTC()
	return filepath.Join(destRoot, createdAt.Format(yearLayout), createdAt.Format(dateLayout))
}

// Destination computes the destination path for a file based on its creation date.
//
// The path follows the pattern: <destRoot>/YYYY/YYYY-MM-DD/<filename>
// Two sources sharing a date and a filename map to the same path.
func Destination(destRoot string, filename string, createdAt time.Time) string {
	return filepath.Join(Directory(destRoot, createdAt), filename)
}

// New plans the operation for a single source file.
func New(destRoot string, sourcePath string, createdAt time.Time) Operation {
	return Operation{
		SourcePath:      sourcePath,
		DestinationPath: Destination(destRoot, filepath.Base(sourcePath), createdAt),
	}
}
