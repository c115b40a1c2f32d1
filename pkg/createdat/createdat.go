package createdat

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/djherbis/times.v1"
)

// Source describes where a CreatedAt timestamp was derived from.
type Source string

const (
	SourceMetadata   Source = "metadata"
	SourceFilesystem Source = "filesystem"
)

// Result contains the chosen creation timestamp and its source.
type Result struct {
	CreatedAt time.Time
	Source    Source
}

// DetailedResult contains all considered timestamps.
type DetailedResult struct {
	Best Result

	// Metadata is zero when no embedded timestamp was found.
	Metadata time.Time

	// ChangeTime is only looked up when Metadata is zero.
	ChangeTime time.Time
}

// MetadataExtractor extracts an embedded creation timestamp from a media stream.
//
// Implementations should return (t, true, nil) when a timestamp is found.
// If no timestamp exists, return (time.Time{}, false, nil).
// Errors are treated as "not found" by Determine.
type MetadataExtractor interface {
	CreatedAt(path string, r io.Reader) (time.Time, bool, error)
}

// Options configures Determine.
type Options struct {
	// Metadata extracts embedded timestamps. If nil, the EXIF extractor is used.
	Metadata MetadataExtractor

	// ChangeTime reads the filesystem fallback timestamp.
	// If nil, the inode-change time from stat is used.
	ChangeTime func(path string) (time.Time, error)
}

// Determine returns the capture timestamp for the file at path.
//
// An error is only returned when neither tier produces a timestamp.
func Determine(path string, opts Options) (Result, error) {
	detailed, err := DetermineDetailed(path, opts)
	if err != nil {
		return Result{}, err
	}
	return detailed.Best, nil
}

// DetermineDetailed is Determine but reports every timestamp it looked at.
func DetermineDetailed(path string, opts Options) (DetailedResult, error) {
	path = filepath.Clean(path)

	metadata := opts.Metadata
	if metadata == nil {
		metadata = exifExtractor{}
	}

	var result DetailedResult
	if createdAt, ok := readMetadata(path, metadata); ok {
		result.Metadata = createdAt.UTC()
		result.Best = Result{CreatedAt: result.Metadata, Source: SourceMetadata}
		return result, nil
	}

	changeTime := opts.ChangeTime
	if changeTime == nil {
		changeTime = statChangeTime
	}
	ctime, err := changeTime(path)
	if err != nil {
		return DetailedResult{}, fmt.Errorf("read change time: %w", err)
	}
	result.ChangeTime = ctime.UTC()
	result.Best = Result{CreatedAt: result.ChangeTime, Source: SourceFilesystem}
	return result, nil
}

func readMetadata(path string, metadata MetadataExtractor) (createdAt time.Time, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	// Decoders of untrusted media may panic on malformed input.
	defer func() {
		if r := recover(); r != nil {
			createdAt, ok = time.Time{}, false
		}
	}()

	tm, found, err := metadata.CreatedAt(path, f)
	if err != nil || !found || tm.IsZero() {
		return time.Time{}, false
	}
	return tm, true
}

// statChangeTime falls back to the modification time where the platform
// has no inode-change time.
func statChangeTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.HasChangeTime() {
		return ts.ModTime(), nil
	}
	return ts.ChangeTime(), nil
}
