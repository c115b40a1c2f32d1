package scan

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

type Options struct {
	MaxDepth int

	PhotoExtensions []string
	VideoExtensions []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:        -1,
		PhotoExtensions: []string{".arw", ".jpg"},
		VideoExtensions: []string{".mp4", ".mov"},
	}
}

// Extensions returns the combined allow-list.
func (o Options) Extensions() []string {
	exts := make([]string, 0, len(o.PhotoExtensions)+len(o.VideoExtensions))
	exts = append(exts, o.PhotoExtensions...)
	return append(exts, o.VideoExtensions...)
}

// Candidate is a regular file that passed classification.
type Candidate struct {
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	Ext           string    `json:"ext"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
}

// Skipped is an entry the walk could not read.
type Skipped struct {
	Path string
	Err  error
}

type Result struct {
	// Scanned counts every regular file visited, accepted or not.
	Scanned    int
	Candidates []Candidate
	Rejected   []string
	Skipped    []Skipped
}

// Classifier decides whether a file name carries an importable extension.
type Classifier struct {
	accepted map[string]bool
}

func NewClassifier(exts ...string) Classifier {
	return Classifier{accepted: normalizeExts(exts)}
}

// Classify returns the lower-cased extension of name and whether it is accepted.
// Names without an extension are always rejected and return "".
func (c Classifier) Classify(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" || ext == "." {
		return "", false
	}
	return ext, c.accepted[ext]
}

// ExtensionSet collects rejected extensions. Safe for concurrent use.
type ExtensionSet struct {
	mu   sync.Mutex
	exts map[string]struct{}
}

func (s *ExtensionSet) Add(ext string) {
	if ext == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exts == nil {
		s.exts = make(map[string]struct{})
	}
	s.exts[ext] = struct{}{}
}

// List returns the collected extensions in sorted order.
func (s *ExtensionSet) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Scan walks root once and classifies every regular file.
//
// Candidate paths are slash-separated and relative to root, in walk order.
// Unreadable entries are recorded in Result.Skipped and the walk continues;
// only a failure to read root itself is returned as an error.
func Scan(fsys fs.FS, root string, opts Options) (Result, error) {
	if opts.MaxDepth < -1 {
		return Result{}, fs.ErrInvalid
	}

	classifier := NewClassifier(opts.Extensions()...)
	var rejected ExtensionSet
	var res Result

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			res.Skipped = append(res.Skipped, Skipped{Path: p, Err: err})
			return nil
		}

		rel := relPath(root, p)
		if d.IsDir() {
			if opts.MaxDepth >= 0 && rel != "." && depth(rel) > opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth {
			return nil
		}

		res.Scanned++
		ext, ok := classifier.Classify(d.Name())
		if !ok {
			rejected.Add(ext)
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			res.Skipped = append(res.Skipped, Skipped{Path: p, Err: infoErr})
			return nil
		}

		res.Candidates = append(res.Candidates, Candidate{
			Path:          rel,
			Name:          d.Name(),
			Ext:           ext,
			FileSizeBytes: info.Size(),
			ModTime:       info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Rejected = rejected.List()
	return res, nil
}

func relPath(root, p string) string {
	if root == "." {
		return p
	}
	if p == root {
		return "."
	}
	return strings.TrimPrefix(p, root+"/")
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

func depth(rel string) int {
	rel = path.Clean(rel)
	if rel == "." {
		return 0
	}
	return strings.Count(rel, "/")
}
