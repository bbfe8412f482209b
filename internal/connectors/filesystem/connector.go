// Package filesystem lists a local directory tree as adaptor documents.
//
// Every regular, non-hidden file below the root becomes one document whose
// DocID is its slash-separated path relative to the root. The Lister
// remembers what it last reported so incremental polls can emit updates
// and deletions. When Watch is running, polls only look at the paths
// fsnotify reported instead of rescanning the tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// Verify interface compliance.
var (
	_ driven.Lister            = (*Lister)(nil)
	_ driven.IncrementalLister = (*Lister)(nil)
)

// DefaultBatchSize is how many records are handed to the pusher per call.
const DefaultBatchSize = 1000

// MetaContentType is the metadata key carrying the detected MIME type.
const MetaContentType = "content-type"

// ErrAlreadyWatching is returned by Watch when a watch is already running.
var ErrAlreadyWatching = errors.New("filesystem: already watching")

// Lister publishes the files below a root directory.
type Lister struct {
	root      string
	batchSize int

	mu sync.Mutex
	// known maps DocID unique IDs to the modification time last pushed.
	known map[string]time.Time
	// dirty holds relative paths fsnotify reported since the last poll.
	dirty    map[string]struct{}
	watching bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option configures a Lister.
type Option func(*Lister)

// WithBatchSize sets how many records are pushed per pusher call.
func WithBatchSize(n int) Option {
	return func(l *Lister) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// New creates a lister for the tree rooted at root.
func New(root string, opts ...Option) *Lister {
	l := &Lister{
		root:      root,
		batchSize: DefaultBatchSize,
		known:     make(map[string]time.Time),
		dirty:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the listed directory.
func (l *Lister) Root() string {
	return l.root
}

// Validate checks that the root exists and is a directory.
func (l *Lister) Validate() error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("filesystem: root %s: %w", l.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filesystem: root %s is not a directory", l.root)
	}
	return nil
}

// GetDocIDs pushes a record for every file below the root.
func (l *Lister) GetDocIDs(ctx context.Context, pusher driven.DocIDPusher) error {
	if err := l.Validate(); err != nil {
		return domain.Fatal(err)
	}

	files, err := l.scan(ctx)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	records := make([]domain.Record, len(paths))
	for i, p := range paths {
		records[i] = newRecord(p, files[p])
	}

	pushed, err := l.push(ctx, pusher, records)
	if err != nil {
		return err
	}

	l.mu.Lock()
	// A full listing resets what we know; anything not pushed is retried
	// by the next incremental poll.
	l.known = make(map[string]time.Time, len(paths))
	for _, r := range records[:pushed] {
		l.known[r.DocID().UniqueID()] = r.LastModified
	}
	l.mu.Unlock()

	logger.Debug("filesystem: listed %d of %d files under %s", pushed, len(records), l.root)
	return nil
}

// GetModifiedDocIDs pushes records for files added, changed or removed
// since the previous listing or poll.
func (l *Lister) GetModifiedDocIDs(ctx context.Context, pusher driven.DocIDPusher) error {
	if err := l.Validate(); err != nil {
		return domain.Fatal(err)
	}

	l.mu.Lock()
	watching := l.watching
	dirty := l.dirty
	l.dirty = make(map[string]struct{})
	known := make(map[string]time.Time, len(l.known))
	for k, v := range l.known {
		known[k] = v
	}
	l.mu.Unlock()

	var candidates map[string]struct{}
	if watching {
		var err error
		candidates, err = l.expandDirty(ctx, dirty, known)
		if err != nil {
			l.mu.Lock()
			for p := range dirty {
				l.dirty[p] = struct{}{}
			}
			l.mu.Unlock()
			return err
		}
	} else {
		files, err := l.scan(ctx)
		if err != nil {
			return err
		}
		candidates = make(map[string]struct{}, len(files)+len(known))
		for p := range files {
			candidates[p] = struct{}{}
		}
		for p := range known {
			candidates[p] = struct{}{}
		}
	}

	paths := make([]string, 0, len(candidates))
	for p := range candidates {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var records []domain.Record
	for _, p := range paths {
		info, err := os.Stat(l.abs(p))
		switch {
		case err == nil && info.Mode().IsRegular():
			if prev, ok := known[p]; ok && prev.Equal(info.ModTime()) {
				continue
			}
			records = append(records, newRecord(p, info.ModTime()))
		case errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()):
			if _, ok := known[p]; ok {
				rec := domain.NewRecord(domain.NewDocID(p))
				rec.Delete = true
				records = append(records, rec)
			}
		case err != nil:
			return fmt.Errorf("filesystem: stat %s: %w", p, err)
		}
	}

	pushed, err := l.push(ctx, pusher, records)

	l.mu.Lock()
	for _, r := range records[:pushed] {
		if r.Delete {
			delete(l.known, r.DocID().UniqueID())
		} else {
			l.known[r.DocID().UniqueID()] = r.LastModified
		}
	}
	// Requeue what was not delivered.
	for _, r := range records[pushed:] {
		l.dirty[r.DocID().UniqueID()] = struct{}{}
	}
	l.mu.Unlock()

	if err != nil {
		return err
	}
	logger.Debug("filesystem: pushed %d of %d modified files under %s", pushed, len(records), l.root)
	return nil
}

// push hands records to pusher in batches and returns how many were
// delivered. It stops at the first batch the pusher gives up on.
func (l *Lister) push(ctx context.Context, pusher driven.DocIDPusher, records []domain.Record) (int, error) {
	for start := 0; start < len(records); start += l.batchSize {
		end := min(start+l.batchSize, len(records))
		failed, err := pusher.PushRecords(ctx, records[start:end], nil)
		if err != nil {
			return start, err
		}
		if failed != nil {
			for i := start; i < end; i++ {
				if records[i].DocID() == failed.DocID() {
					return i, nil
				}
			}
			return start, nil
		}
	}
	return len(records), nil
}

// scan walks the tree and returns the modification time of every visible
// regular file, keyed by DocID.
func (l *Lister) scan(ctx context.Context) (map[string]time.Time, error) {
	files := make(map[string]time.Time)
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped rather than failing the listing.
			logger.Warn("filesystem: %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := l.rel(path)
		if relErr != nil || rel == "." {
			return nil
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files[rel] = info.ModTime()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Watch tracks changes with fsnotify until ctx is done or Close is called,
// so that polls only inspect reported paths. It returns once the watcher
// is running.
func (l *Lister) Watch(ctx context.Context) error {
	if err := l.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.watching {
		l.mu.Unlock()
		return ErrAlreadyWatching
	}
	l.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filesystem: creating watcher: %w", err)
	}
	if err := l.addTree(watcher, l.root); err != nil {
		watcher.Close()
		return err
	}

	// Anything that changed before the watcher was up is caught by one
	// full comparison on the first poll.
	if err := l.markAllDirty(ctx); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.watching = true
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer watcher.Close()
		defer func() {
			l.mu.Lock()
			l.watching = false
			l.mu.Unlock()
		}()

		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if rel, ok := l.handleFsEvent(watcher, event); ok {
					l.mu.Lock()
					l.dirty[rel] = struct{}{}
					l.mu.Unlock()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher: %v", err)
			}
		}
	}()

	return nil
}

// Watching reports whether Watch is running.
func (l *Lister) Watching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.watching
}

// Close stops a running watch and waits for it to exit.
func (l *Lister) Close() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// handleFsEvent converts an fsnotify event into the relative path to
// re-examine. New directories are added to the watch.
func (l *Lister) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	rel, err := l.rel(event.Name)
	if err != nil || rel == "." || isHidden(rel) {
		return "", false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if watcher != nil {
				if err := l.addTree(watcher, event.Name); err != nil {
					logger.Warn("filesystem: watching %s: %v", event.Name, err)
				}
			}
		}
	}
	return rel, true
}

func (l *Lister) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, relErr := l.rel(path); relErr == nil && rel != "." && isHidden(rel) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("filesystem: watching %s: %w", path, err)
		}
		return nil
	})
}

func (l *Lister) markAllDirty(ctx context.Context) error {
	files, err := l.scan(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for p := range files {
		l.dirty[p] = struct{}{}
	}
	for p := range l.known {
		l.dirty[p] = struct{}{}
	}
	return nil
}

// expandDirty turns reported paths into file candidates. A reported
// directory stands for every known file beneath it plus whatever it
// contains now.
func (l *Lister) expandDirty(ctx context.Context, dirty map[string]struct{}, known map[string]time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(dirty))
	for p := range dirty {
		out[p] = struct{}{}
		prefix := p + "/"
		for k := range known {
			if strings.HasPrefix(k, prefix) {
				out[k] = struct{}{}
			}
		}
		info, err := os.Stat(l.abs(p))
		if err != nil || !info.IsDir() {
			continue
		}
		sub := New(l.abs(p))
		files, err := sub.scan(ctx)
		if err != nil {
			return nil, err
		}
		for f := range files {
			out[prefix+f] = struct{}{}
		}
	}
	return out, nil
}

func (l *Lister) rel(path string) (string, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("filesystem: %s is outside %s", path, l.root)
	}
	return filepath.ToSlash(rel), nil
}

func (l *Lister) abs(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

func newRecord(rel string, modTime time.Time) domain.Record {
	rec := domain.NewRecord(domain.NewDocID(rel))
	rec.LastModified = modTime
	rec.Metadata = domain.Metadata{}
	rec.Metadata.Add(MetaContentType, detectMIMEType(rel))
	return rec
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// fallbackMIMETypes covers text formats the platform registry often lacks.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
}

// detectMIMEType guesses a MIME type from the file extension.
func detectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := fallbackMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
