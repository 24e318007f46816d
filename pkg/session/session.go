// Package session coordinates the lifetime of one inspection session:
// loading a file, extracting its structure tree, and layering validator
// findings on top.
//
// A session owns at most one open snapshot at a time. Opening a new
// file bumps a generation counter and cancels any in-flight validation;
// a validator result is applied only if its generation still matches,
// so findings for a previously open file are never merged into the
// current tree.
//
// File handles are scoped to extraction: the loader's handle is closed
// before OpenFile returns, and everything afterwards operates on the
// immutable tree.
package session

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/h-mayorquin/nwb-lens/pkg/cache"
	"github.com/h-mayorquin/nwb-lens/pkg/errors"
	"github.com/h-mayorquin/nwb-lens/pkg/extract"
	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/source"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// Snapshot is one opened file's immutable state. The tree never changes
// after extraction; validation swaps in a new snapshot with an overlay
// instead of mutating this one.
type Snapshot struct {
	Path       string
	Info       source.FileInfo
	Tree       *tree.Tree
	Overlay    *inspect.Overlay
	Generation uint64
}

// Options configures a session manager.
type Options struct {
	Loader source.Loader
	Cache  cache.Cache
	Keyer  cache.Keyer
	Runner *inspect.Runner
	Logger *log.Logger

	// MaxStringLen is passed through to extraction. Zero uses the
	// extraction default.
	MaxStringLen int
}

// ValidateAndSetDefaults checks required fields and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Loader == nil {
		return errors.New(errors.ErrCodeInvalidInput, "loader is required")
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Manager runs sessions. Safe for concurrent use: snapshot reads are
// lock-free, file opens are serialized.
type Manager struct {
	id     string
	opts   Options
	logger *log.Logger

	generation atomic.Uint64
	current    atomic.Pointer[Snapshot]

	mu            sync.Mutex
	cancelInspect context.CancelFunc
}

// NewManager creates a session manager.
func NewManager(opts Options) (*Manager, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Manager{
		id:     uuid.NewString(),
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// ID returns the session identifier.
func (m *Manager) ID() string { return m.id }

// Current returns the active snapshot, or nil before the first open.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// cachedTree is the cache encoding of an extraction result. The file
// info rides along because a cache hit never reopens the file.
type cachedTree struct {
	Info source.FileInfo `json:"info"`
	Tree json.RawMessage `json:"tree"`
}

// OpenFile loads and extracts the file at path, replacing any current
// snapshot. An in-flight validation for the previous file is canceled
// and its result discarded.
func (m *Manager) OpenFile(ctx context.Context, path string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gen := m.generation.Add(1)
	if m.cancelInspect != nil {
		m.cancelInspect()
		m.cancelInspect = nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", path)
	}
	key := m.opts.Keyer.TreeKey(path, stat.Size(), stat.ModTime())

	if snap, ok := m.fromCache(ctx, key, path, gen); ok {
		m.current.Store(snap)
		return snap, nil
	}

	start := time.Now()
	f, err := m.opts.Loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := extract.Extract(f.Root(), extract.Options{
		Logger:       m.logger,
		MaxStringLen: m.opts.MaxStringLen,
	})
	if err != nil {
		return nil, err
	}
	info := f.Info()
	m.logger.Debug("extracted structure",
		"path", path, "nodes", t.Len(), "duration", time.Since(start).Round(time.Millisecond))

	m.toCache(ctx, key, info, t)

	snap := &Snapshot{Path: path, Info: info, Tree: t, Generation: gen}
	m.current.Store(snap)
	return snap, nil
}

func (m *Manager) fromCache(ctx context.Context, key, path string, gen uint64) (*Snapshot, bool) {
	data, ok, err := m.opts.Cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var entry cachedTree
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	t, err := tree.UnmarshalTree(entry.Tree)
	if err != nil {
		return nil, false
	}
	m.logger.Debug("cache hit", "path", path)
	return &Snapshot{Path: path, Info: entry.Info, Tree: t, Generation: gen}, true
}

func (m *Manager) toCache(ctx context.Context, key string, info source.FileInfo, t *tree.Tree) {
	raw, err := tree.MarshalTree(t)
	if err != nil {
		return
	}
	data, err := json.Marshal(cachedTree{Info: info, Tree: raw})
	if err != nil {
		return
	}
	if err := m.opts.Cache.Set(ctx, key, data, cache.TreeTTL); err != nil {
		m.logger.Debug("cache write failed", "err", err)
	}
}

// StartInspection runs the validator against the current snapshot's
// file and applies the resulting overlay. If another file is opened
// while the validator runs, the result is discarded and
// ErrCodeStaleResult returned. A canceled context is returned as-is so
// callers can distinguish cancellation from failure.
func (m *Manager) StartInspection(ctx context.Context) (*Snapshot, error) {
	snap := m.current.Load()
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no file open")
	}
	if m.opts.Runner == nil {
		return nil, errors.New(errors.ErrCodeValidationUnavailable, "no validator configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.cancelInspect != nil {
		m.cancelInspect()
	}
	m.cancelInspect = cancel
	m.mu.Unlock()
	defer cancel()

	report, err := m.inspectWithCache(ctx, snap)
	if err != nil {
		return nil, err
	}
	return m.ApplyReport(snap.Generation, report)
}

func (m *Manager) inspectWithCache(ctx context.Context, snap *Snapshot) (*inspect.Report, error) {
	stat, statErr := os.Stat(snap.Path)
	var key string
	if statErr == nil {
		key = m.opts.Keyer.ReportKey(snap.Path, stat.Size(), stat.ModTime(), m.opts.Runner.Command[0])
		if data, ok, err := m.opts.Cache.Get(ctx, key); err == nil && ok {
			var report inspect.Report
			if err := json.Unmarshal(data, &report); err == nil {
				m.logger.Debug("validator report cache hit", "path", snap.Path)
				return &report, nil
			}
		}
	}

	report, err := m.opts.Runner.Run(ctx, snap.Path)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if data, err := json.Marshal(report); err == nil {
			_ = m.opts.Cache.Set(ctx, key, data, cache.ReportTTL)
		}
	}
	return report, nil
}

// ApplyReport merges a validator report into the snapshot of the given
// generation. A generation mismatch means the file changed while the
// report was produced; the report is discarded.
func (m *Manager) ApplyReport(generation uint64, report *inspect.Report) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.current.Load()
	if snap == nil || snap.Generation != generation {
		m.logger.Debug("discarding stale validator result", "generation", generation)
		return nil, errors.New(errors.ErrCodeStaleResult,
			"validator result for a previously open file")
	}

	overlay := inspect.Merge(snap.Tree, report.Issues)
	next := &Snapshot{
		Path:       snap.Path,
		Info:       snap.Info,
		Tree:       snap.Tree,
		Overlay:    overlay,
		Generation: snap.Generation,
	}
	m.current.Store(next)
	return next, nil
}

// Close cancels any in-flight validation and drops the snapshot.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelInspect != nil {
		m.cancelInspect()
		m.cancelInspect = nil
	}
	m.current.Store(nil)
}
