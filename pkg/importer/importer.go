// Package importer copies media files from a source tree into a
// YEAR/YYYY-MM-DD layout under a destination directory.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	mediacopy "github.com/quidome/sd-importer/pkg/copy"
	"github.com/quidome/sd-importer/pkg/createdat"
	"github.com/quidome/sd-importer/pkg/dirs"
	"github.com/quidome/sd-importer/pkg/plan"
	"github.com/quidome/sd-importer/pkg/scan"
)

// DefaultWorkers is the copy parallelism used when Config.Workers is unset.
const DefaultWorkers = 4

type Config struct {
	Workers int
	Scan    scan.Options

	// Overwrite replaces destination files that already exist.
	// When false, an existing destination is a per-file copy failure.
	Overwrite bool

	// DryRun resolves dates and destinations without touching the destination tree.
	DryRun bool
}

func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		Scan:      scan.DefaultOptions(),
		Overwrite: true,
	}
}

// Observer receives run events. OnFileDone is called from worker
// goroutines, so implementations must be safe for concurrent use.
type Observer interface {
	OnScanDone(res scan.Result)
	OnFileDone(done, total int, res FileResult)
}

// FileResult is the outcome of one copy task.
type FileResult struct {
	SourcePath      string
	DestinationPath string
	CreatedAt       time.Time
	DateSource      createdat.Source
	Bytes           int64
	Err             *FileError
}

type Summary struct {
	Scanned   int
	Found     int
	Rejected  []string
	Succeeded int
	Failures  []*FileError

	// CreatedDirs lists directories created during the run.
	CreatedDirs []string
	Results     []FileResult
}

func (s Summary) Failed() int { return len(s.Failures) }

type Option func(*Importer)

func WithLogger(log *zap.Logger) Option {
	return func(im *Importer) { im.log = log }
}

func WithObserver(o Observer) Option {
	return func(im *Importer) { im.observer = o }
}

// WithDateOptions overrides how capture timestamps are resolved.
func WithDateOptions(opts createdat.Options) Option {
	return func(im *Importer) { im.dates = opts }
}

type Importer struct {
	cfg      Config
	log      *zap.Logger
	observer Observer
	dates    createdat.Options
}

func New(cfg Config, opts ...Option) *Importer {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	im := &Importer{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run scans sourceRoot once, then copies every candidate into destRoot
// across a fixed pool of workers. Per-file failures are collected in the
// summary and never stop the run. The returned error is non-nil only when
// the scan fails or finds no candidates.
func (im *Importer) Run(sourceRoot, destRoot string) (Summary, error) {
	sourceRoot, err := filepath.Abs(sourceRoot)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve source: %w", err)
	}

	res, err := scan.Scan(os.DirFS(sourceRoot), ".", im.cfg.Scan)
	if err != nil {
		return Summary{}, fmt.Errorf("scan %s: %w", sourceRoot, err)
	}
	for _, s := range res.Skipped {
		im.log.Warn("skipping unreadable entry", zap.String("path", s.Path), zap.Error(s.Err))
	}

	summary := Summary{
		Scanned:  res.Scanned,
		Found:    len(res.Candidates),
		Rejected: res.Rejected,
	}
	if im.observer != nil {
		im.observer.OnScanDone(res)
	}
	im.log.Info("scan finished",
		zap.String("source", sourceRoot),
		zap.Int("scanned", res.Scanned),
		zap.Int("accepted", len(res.Candidates)),
		zap.Strings("rejected", res.Rejected))

	if len(res.Candidates) == 0 {
		return summary, ErrNoCandidates
	}

	sources := make([]string, len(res.Candidates))
	for i, c := range res.Candidates {
		sources[i] = filepath.Join(sourceRoot, filepath.FromSlash(c.Path))
	}

	registry := dirs.NewRegistry()
	results := im.copyAll(sources, destRoot, registry)

	summary.Results = results
	summary.CreatedDirs = registry.Created()
	for _, r := range results {
		if r.Err != nil {
			summary.Failures = append(summary.Failures, r.Err)
			continue
		}
		summary.Succeeded++
	}

	im.log.Info("import finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed()),
		zap.Int("created_dirs", len(summary.CreatedDirs)))
	return summary, nil
}

// copyAll fans sources out to the worker pool. Results keep the order of sources.
func (im *Importer) copyAll(sources []string, destRoot string, registry *dirs.Registry) []FileResult {
	results := make([]FileResult, len(sources))
	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < im.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = im.importFile(sources[i], destRoot, registry)
				n := int(done.Add(1))
				if im.observer != nil {
					im.observer.OnFileDone(n, len(sources), results[i])
				}
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (im *Importer) importFile(src, destRoot string, registry *dirs.Registry) (res FileResult) {
	res.SourcePath = src
	log := im.log.With(zap.String("path", src))

	fail := func(stage Stage, err error) FileResult {
		res.Err = &FileError{Path: src, Stage: stage, Err: err}
		log.Error("import failed", zap.String("stage", string(stage)), zap.Error(err))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = fail(StagePanic, fmt.Errorf("%v", r))
		}
	}()

	created, err := createdat.Determine(src, im.dates)
	if err != nil {
		return fail(StageResolve, err)
	}
	res.CreatedAt = created.CreatedAt
	res.DateSource = created.Source

	op := plan.New(destRoot, src, created.CreatedAt)
	res.DestinationPath = op.DestinationPath
	log.Debug("resolved capture time",
		zap.Time("created_at", created.CreatedAt),
		zap.String("source", string(created.Source)),
		zap.String("destination", op.DestinationPath))

	if im.cfg.DryRun {
		return res
	}

	if err := registry.Ensure(filepath.Dir(op.DestinationPath)); err != nil {
		return fail(StageMkdir, err)
	}

	n, err := mediacopy.File(op.SourcePath, op.DestinationPath, mediacopy.Options{Overwrite: im.cfg.Overwrite})
	if err != nil {
		return fail(StageCopy, err)
	}
	res.Bytes = n
	return res
}
