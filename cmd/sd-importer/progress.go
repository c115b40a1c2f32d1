package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/quidome/sd-importer/pkg/importer"
	"github.com/quidome/sd-importer/pkg/scan"
)

// progressUI prints scan counts and drives a progress bar while files copy.
type progressUI struct {
	out     io.Writer
	showBar bool
	bar     *progressbar.ProgressBar
}

func newProgressUI(w io.Writer, showBar bool) *progressUI {
	return &progressUI{out: w, showBar: showBar}
}

func (p *progressUI) OnScanDone(res scan.Result) {
	fmt.Fprintf(p.out, "Scanned %d files, %d accepted\n", res.Scanned, len(res.Candidates))
	if len(res.Rejected) > 0 {
		fmt.Fprintf(p.out, "Rejected extensions: %s\n", strings.Join(res.Rejected, ", "))
	}
	if !p.showBar || len(res.Candidates) == 0 {
		return
	}
	// Set before any worker starts; Add is safe for concurrent use.
	p.bar = progressbar.NewOptions(len(res.Candidates),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (p *progressUI) OnFileDone(done, total int, res importer.FileResult) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressUI) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.out)
}
