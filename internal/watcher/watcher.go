// Package watcher polls a documentation source file and invokes a
// reload callback when its content changes, so a served dashboard
// stays current without restarts.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"time"
)

const (
	defaultInterval = 2 * time.Second
	hashPrefix      = "sha256:"
)

type fingerprint struct {
	mod  time.Time
	size int64
	hash string
}

// Reloader watches a single file. Apply receives the new content on
// every observed change; its error is reported through OnError and the
// previous fingerprint is kept so the next scan retries.
type Reloader struct {
	path     string
	interval time.Duration
	apply    func(data []byte) error
	onError  func(err error)

	last    fingerprint
	missing bool
}

type Options struct {
	Interval time.Duration
	OnError  func(err error)
}

// New seeds the reloader with the content the caller already loaded,
// so the first scan does not re-apply it.
func New(path string, data []byte, apply func([]byte) error, opts Options) *Reloader {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(error) {}
	}
	r := &Reloader{
		path:     path,
		interval: interval,
		apply:    apply,
		onError:  onError,
	}
	if info, err := os.Stat(path); err == nil {
		r.last = fingerprintFromStat(info, data)
	} else {
		r.last = fingerprint{size: int64(len(data)), hash: hashBytes(data)}
	}
	return r
}

// Run polls until the context is cancelled.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scan()
		}
	}
}

func (r *Reloader) scan() {
	info, err := os.Stat(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !r.missing {
			r.missing = true
			r.onError(err)
		}
		return
	}

	// metadata fast path: skip hashing when modtime and size match
	if !r.missing && info.ModTime().Equal(r.last.mod) && info.Size() == r.last.size {
		return
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.onError(err)
		return
	}

	next := fingerprintFromStat(info, data)
	changed := r.missing || next.hash != r.last.hash
	r.missing = false
	if !changed {
		r.last = next
		return
	}

	if err := r.apply(data); err != nil {
		r.onError(err)
		return
	}
	r.last = next
}

func fingerprintFromStat(info fs.FileInfo, data []byte) fingerprint {
	return fingerprint{
		mod:  info.ModTime(),
		size: info.Size(),
		hash: hashBytes(data),
	}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:])
}
