package importer

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned by Run when the scan found nothing to import.
var ErrNoCandidates = errors.New("no importable files found")

// Stage names the step of a copy task that failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageMkdir   Stage = "mkdir"
	StageCopy    Stage = "copy"
	StagePanic   Stage = "panic"
)

// FileError is a failure confined to one candidate file.
type FileError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
