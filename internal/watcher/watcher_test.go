package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReloaderAppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	writeDoc(t, path, "v1")

	var applied []string
	r := New(path, []byte("v1"), func(data []byte) error {
		applied = append(applied, string(data))
		return nil
	}, Options{})

	// unchanged file: nothing applied
	r.scan()
	if len(applied) != 0 {
		t.Fatalf("unchanged file triggered reload: %v", applied)
	}

	// filesystem mtime granularity can hide quick rewrites; force a
	// distinct timestamp
	writeDoc(t, path, "v2")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	r.scan()
	if len(applied) != 1 || applied[0] != "v2" {
		t.Fatalf("change not applied: %v", applied)
	}

	// a second scan over the same content stays quiet
	r.scan()
	if len(applied) != 1 {
		t.Fatalf("reload repeated without change: %v", applied)
	}
}

func TestReloaderSameContentNewTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	writeDoc(t, path, "same")

	applied := 0
	r := New(path, []byte("same"), func([]byte) error {
		applied++
		return nil
	}, Options{})

	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	// metadata changed but the hash did not
	r.scan()
	if applied != 0 {
		t.Fatalf("identical content reloaded %d times", applied)
	}
}

func TestReloaderReportsMissingFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	writeDoc(t, path, "v1")

	errCount := 0
	r := New(path, []byte("v1"), func([]byte) error { return nil },
		Options{OnError: func(error) { errCount++ }})

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	r.scan()
	r.scan()
	if errCount != 1 {
		t.Fatalf("missing file reported %d times, want 1", errCount)
	}

	// the file coming back counts as a change
	applied := 0
	r.apply = func([]byte) error {
		applied++
		return nil
	}
	writeDoc(t, path, "v1")
	r.scan()
	if applied != 1 {
		t.Fatalf("restored file not re-applied (%d)", applied)
	}
}

func TestReloaderKeepsRetryingAfterApplyError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	writeDoc(t, path, "v1")

	fail := true
	applied := 0
	errCount := 0
	r := New(path, []byte("v1"), func([]byte) error {
		if fail {
			return os.ErrInvalid
		}
		applied++
		return nil
	}, Options{OnError: func(error) { errCount++ }})

	writeDoc(t, path, "v2")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	r.scan()
	if errCount != 1 || applied != 0 {
		t.Fatalf("apply error not reported: errs=%d applied=%d", errCount, applied)
	}

	// fingerprint was not advanced, so the next scan retries
	fail = false
	r.scan()
	if applied != 1 {
		t.Fatalf("retry did not apply: %d", applied)
	}
}
