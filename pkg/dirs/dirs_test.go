package dirs

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestEnsure_CreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2023", "2023-05-01")

	r := NewRegistry()
	if err := r.Ensure(dir); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected a directory")
	}
	if got := r.Created(); !reflect.DeepEqual(got, []string{dir}) {
		t.Fatalf("unexpected created set: %#v", got)
	}
}

func TestEnsure_IsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2023", "2023-05-01")

	r := NewRegistry()
	for i := 0; i < 3; i++ {
		if err := r.Ensure(dir); err != nil {
			t.Fatalf("Ensure #%d: %v", i, err)
		}
	}
	if err := r.Ensure(dir + string(filepath.Separator)); err != nil {
		t.Fatalf("Ensure with trailing separator: %v", err)
	}

	if got := r.Dirs(); len(got) != 1 {
		t.Fatalf("expected one directory, got %#v", got)
	}
}

func TestEnsure_ExistingDirectoryIsKnownButNotCreated(t *testing.T) {
	dir := t.TempDir()

	r := NewRegistry()
	if err := r.Ensure(dir); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if got := r.Dirs(); !reflect.DeepEqual(got, []string{dir}) {
		t.Fatalf("unexpected dirs: %#v", got)
	}
	if got := r.Created(); len(got) != 0 {
		t.Fatalf("expected no created dirs, got %#v", got)
	}
}

func TestEnsure_ConcurrentCallersRecordOnce(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "2023", "2023-05-01")
	sibling := filepath.Join(root, "2023", "2023-05-02")

	r := NewRegistry()
	const callers = 32

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := shared
			if i%4 == 0 {
				dir = sibling
			}
			errs <- r.Ensure(dir)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}

	want := []string{shared, sibling}
	if got := r.Dirs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dirs\n got: %#v\nwant: %#v", got, want)
	}
	if got := r.Created(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected created\n got: %#v\nwant: %#v", got, want)
	}
}

func TestEnsure_FailureIsReportedAndRetryable(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "2023")
	if err := os.WriteFile(blocker, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	dir := filepath.Join(blocker, "2023-05-01")

	r := NewRegistry()
	if err := r.Ensure(dir); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if got := r.Dirs(); len(got) != 0 {
		t.Fatalf("failed directory must not be recorded, got %#v", got)
	}

	if err := os.Remove(blocker); err != nil {
		t.Fatalf("remove blocker: %v", err)
	}
	if err := r.Ensure(dir); err != nil {
		t.Fatalf("retry Ensure: %v", err)
	}
	if got := r.Created(); !reflect.DeepEqual(got, []string{dir}) {
		t.Fatalf("unexpected created set: %#v", got)
	}
}
