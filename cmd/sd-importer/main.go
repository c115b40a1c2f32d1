package main

import (
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quidome/sd-importer/pkg/createdat"
	"github.com/quidome/sd-importer/pkg/importer"
	"github.com/quidome/sd-importer/pkg/plan"
	"github.com/quidome/sd-importer/pkg/scan"
)

const version = "0.2.0"

type options struct {
	verbose    bool
	extensions []string
	maxDepth   int
}

type importOptions struct {
	workers     int
	dryRun      bool
	noOverwrite bool
	noProgress  bool
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	importOpts := &importOptions{}

	rootCmd := &cobra.Command{
		Use:   "sd-importer [source] [destination]",
		Short: "Import media files from a memory card into dated folders",
		Long: "sd-importer copies photos and videos from a source tree (for example a camera memory card) " +
			"into <destination>/YYYY/YYYY-MM-DD/, using the embedded capture time when present and the " +
			"file's inode-change time otherwise.",
		Version: version,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, importOpts, args[0], args[1])
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringSliceVar(&opts.extensions, "ext", nil, "accepted file extensions, replacing the defaults (e.g. --ext arw,nef,mp4)")
	rootCmd.PersistentFlags().IntVar(&opts.maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")

	rootCmd.Flags().IntVarP(&importOpts.workers, "workers", "w", importer.DefaultWorkers, "number of parallel copy workers")
	rootCmd.Flags().BoolVarP(&importOpts.dryRun, "dry-run", "n", false, "print planned copies without making changes")
	rootCmd.Flags().BoolVar(&importOpts.noOverwrite, "no-overwrite", false, "fail instead of replacing existing destination files")
	rootCmd.Flags().BoolVar(&importOpts.noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(newScanCmd(opts))

	return rootCmd
}

func scanOptions(cmd *cobra.Command, opts *options) scan.Options {
	scanOpts := scan.DefaultOptions()
	scanOpts.MaxDepth = opts.maxDepth
	if cmd.Flags().Changed("ext") {
		scanOpts.PhotoExtensions = opts.extensions
		scanOpts.VideoExtensions = nil
	}
	return scanOpts
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zap.DebugLevel,
	)
	return zap.New(core)
}

func runImport(cmd *cobra.Command, opts *options, importOpts *importOptions, source, dest string) error {
	cmd.SilenceUsage = true

	log := newLogger(opts.verbose, cmd.ErrOrStderr())
	defer func() { _ = log.Sync() }()

	cfg := importer.DefaultConfig()
	cfg.Workers = importOpts.workers
	cfg.Scan = scanOptions(cmd, opts)
	cfg.Overwrite = !importOpts.noOverwrite
	cfg.DryRun = importOpts.dryRun

	ui := newProgressUI(cmd.OutOrStdout(), !importOpts.noProgress && !importOpts.dryRun)
	summary, err := importer.New(cfg, importer.WithLogger(log), importer.WithObserver(ui)).Run(source, dest)
	ui.finish()
	if err != nil {
		return err
	}

	if cfg.DryRun {
		cmd.Println("Dry run mode: no files were copied")
		for _, r := range summary.Results {
			if r.Err == nil {
				cmd.Printf("%s -> %s (%s)\n", r.SourcePath, r.DestinationPath, r.DateSource)
			}
		}
	}

	for _, fe := range summary.Failures {
		cmd.PrintErrf("failed to import %s: %v\n", fe.Path, fe.Err)
	}

	if len(summary.CreatedDirs) > 0 {
		cmd.Println("Created directories:")
		for _, dir := range summary.CreatedDirs {
			cmd.Printf("  %s\n", dir)
		}
	}
	cmd.Printf("Imported %d of %d files, %d failed\n", summary.Succeeded, summary.Found, summary.Failed())
	return nil
}

type jsonCreatedAt struct {
	Metadata   string `json:"metadata,omitempty"`
	ChangeTime string `json:"change_time,omitempty"`
}

type jsonRecord struct {
	SourcePath      string        `json:"source_path"`
	DestinationPath string        `json:"destination_path,omitempty"`
	CreatedAt       jsonCreatedAt `json:"created_at"`
	DateSource      string        `json:"date_source,omitempty"`
	Error           string        `json:"error,omitempty"`
	FileSizeBytes   int64         `json:"file_size_bytes"`
	ModTime         time.Time     `json:"mod_time"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func newScanCmd(opts *options) *cobra.Command {
	var asJSON bool
	var dest string

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for importable media files",
		Long:  "Scan a directory and print all importable media files found (relative to the scan root).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			res, err := scan.Scan(os.DirFS(directory), ".", scanOptions(cmd, opts))
			if err != nil {
				return err
			}

			if !asJSON {
				for _, c := range res.Candidates {
					cmd.Println(c.Path)
				}
				if opts.verbose {
					cmd.PrintErrf("found %d media files in %d scanned\n", len(res.Candidates), res.Scanned)
				}
				return nil
			}

			records := make([]jsonRecord, 0, len(res.Candidates))
			for _, c := range res.Candidates {
				src := filepath.Join(directory, filepath.FromSlash(c.Path))
				rec := jsonRecord{
					SourcePath:    src,
					FileSizeBytes: c.FileSizeBytes,
					ModTime:       c.ModTime,
				}
				detailed, err := createdat.DetermineDetailed(src, createdat.Options{})
				if err != nil {
					rec.Error = err.Error()
				} else {
					rec.CreatedAt = jsonCreatedAt{
						Metadata:   formatTime(detailed.Metadata),
						ChangeTime: formatTime(detailed.ChangeTime),
					}
					rec.DateSource = string(detailed.Best.Source)
					if dest != "" {
						rec.DestinationPath = plan.Destination(dest, path.Base(c.Path), detailed.Best.CreatedAt)
					}
				}
				records = append(records, rec)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}

	scanCmd.Flags().BoolVar(&asJSON, "json", false, "print records with resolved capture times as JSON")
	scanCmd.Flags().StringVar(&dest, "dest", "", "destination root used to show planned paths in JSON output")

	return scanCmd
}
