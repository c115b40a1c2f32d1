package createdat_test

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quidome/sd-importer/pkg/createdat"
	"github.com/quidome/sd-importer/pkg/createdat/createdattest"
)

func TestDetermine_Priorities_MetadataThenChangeTime(t *testing.T) {
	metadataTime := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	ctime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		metadataTime  time.Time
		metadataFound bool
		metadataErr   error
		wantTime      time.Time
		wantSource    createdat.Source
	}{
		{
			name:          "metadata beats change time",
			metadataTime:  metadataTime,
			metadataFound: true,
			wantTime:      metadataTime,
			wantSource:    createdat.SourceMetadata,
		},
		{
			name:       "change time used when metadata missing",
			wantTime:   ctime,
			wantSource: createdat.SourceFilesystem,
		},
		{
			name:        "metadata error falls back to change time",
			metadataErr: errors.New("boom"),
			wantTime:    ctime,
			wantSource:  createdat.SourceFilesystem,
		},
		{
			name:          "zero metadata time falls back to change time",
			metadataFound: true,
			wantTime:      ctime,
			wantSource:    createdat.SourceFilesystem,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "DSC0001.ARW", []byte("x"))

			metadata := &fakeMetadataExtractor{
				createdAt: tc.metadataTime,
				found:     tc.metadataFound,
				err:       tc.metadataErr,
			}
			opts := createdat.Options{
				Metadata:   metadata,
				ChangeTime: fixedChangeTime(ctime),
			}

			res, err := createdat.Determine(path, opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.CreatedAt.Equal(tc.wantTime) {
				t.Fatalf("unexpected CreatedAt\n got: %v\nwant: %v", res.CreatedAt, tc.wantTime)
			}
			if res.Source != tc.wantSource {
				t.Fatalf("unexpected Source\n got: %q\nwant: %q", res.Source, tc.wantSource)
			}
			if metadata.calls != 1 {
				t.Fatalf("expected metadata extractor to be called once, got %d", metadata.calls)
			}
		})
	}
}

func TestDetermine_NormalizesToUTC(t *testing.T) {
	path := writeFile(t, "clip.MP4", []byte("x"))
	local := time.Date(2022, 12, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60))

	res, err := createdat.Determine(path, createdat.Options{ChangeTime: fixedChangeTime(local)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", res.CreatedAt.Location())
	}
	if got := res.CreatedAt.Format("2006-01-02"); got != "2023-01-01" {
		t.Fatalf("unexpected UTC date %s", got)
	}
}

func TestDetermine_DefaultExtractorReadsEmbeddedDate(t *testing.T) {
	path := writeFile(t, "DSC0001.ARW", createdattest.TIFF("2023:05:01 10:00:00", []byte("raw")))

	detailed, err := createdat.DetermineDetailed(path, createdat.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detailed.Best.Source != createdat.SourceMetadata {
		t.Fatalf("expected metadata source, got %q", detailed.Best.Source)
	}
	want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	if !detailed.Metadata.Equal(want) {
		t.Fatalf("unexpected Metadata\n got: %v\nwant: %v", detailed.Metadata, want)
	}
	if !detailed.ChangeTime.IsZero() {
		t.Fatalf("change time should not be consulted, got %v", detailed.ChangeTime)
	}
}

func TestDetermine_DefaultChangeTimeFallback(t *testing.T) {
	before := time.Now().Add(-time.Minute)
	path := writeFile(t, "DSC0002.ARW", []byte("no exif here"))

	res, err := createdat.Determine(path, createdat.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != createdat.SourceFilesystem {
		t.Fatalf("expected filesystem source, got %q", res.Source)
	}
	if res.CreatedAt.Before(before) {
		t.Fatalf("change time %v predates file creation", res.CreatedAt)
	}
}

func TestDetermine_MissingFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ARW")

	_, err := createdat.Determine(path, createdat.Options{})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestDetermine_PanickingExtractorFallsBack(t *testing.T) {
	path := writeFile(t, "bad.ARW", []byte("x"))
	ctime := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	res, err := createdat.Determine(path, createdat.Options{
		Metadata:   panickingExtractor{},
		ChangeTime: fixedChangeTime(ctime),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != createdat.SourceFilesystem || !res.CreatedAt.Equal(ctime) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func fixedChangeTime(tm time.Time) func(string) (time.Time, error) {
	return func(string) (time.Time, error) { return tm, nil }
}

type fakeMetadataExtractor struct {
	createdAt time.Time
	found     bool
	err       error

	calls int
}

func (f *fakeMetadataExtractor) CreatedAt(path string, r io.Reader) (time.Time, bool, error) {
	f.calls++
	_, _ = io.ReadAll(r)
	return f.createdAt, f.found, f.err
}

type panickingExtractor struct{}

func (panickingExtractor) CreatedAt(string, io.Reader) (time.Time, bool, error) {
	panic("corrupt IFD")
}
