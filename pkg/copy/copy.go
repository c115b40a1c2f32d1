package copy

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrDestinationExists is returned when attempting to copy to an existing file
	ErrDestinationExists = errors.New("destination file already exists")
)

// filePerm is the mode of every created destination file, whatever the source mode.
const filePerm = 0o644

// copyContent is replaceable so tests can fail a copy midway.
var copyContent = io.Copy

// Options configures the copy behavior.
type Options struct {
	// Overwrite replaces an existing destination file.
	Overwrite bool
}

// File copies the contents of src to dst and returns the number of bytes written.
//
// The destination directory must already exist. Only file content is
// carried over; a new file is created with mode 0644. If the copy fails
// after dst was opened, the partial file is removed.
func File(src, dst string, opts Options) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if opts.Overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	dstFile, err := os.OpenFile(dst, flags, filePerm)
	if err != nil {
		if os.IsExist(err) {
			return 0, ErrDestinationExists
		}
		return 0, fmt.Errorf("create destination: %w", err)
	}

	n, err := copyContent(dstFile, srcFile)
	if err == nil {
		err = dstFile.Sync()
	}
	if closeErr := dstFile.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close destination: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(dst)
		return n, fmt.Errorf("copy content: %w", err)
	}

	return n, nil
}
