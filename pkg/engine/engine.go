package engine

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"storemy/pkg/bufferpool"
	dberr "storemy/pkg/error"
	"storemy/pkg/logging"
	"storemy/pkg/schema"
	"storemy/pkg/table"
)

// Engine owns one buffer pool and the set of tables opened through it.
// Every Table it hands out, and every Index those tables open, shares its
// buffer pool, passed explicitly rather than through a hidden global; DefaultEngine offers a
// process-wide fallback for callers that don't want to carry one, but New
// is the documented way to get one.
type Engine struct {
	cfg    Config
	bp     *bufferpool.Pool
	mu     sync.Mutex
	tables map[string]*table.Table
}

// New validates cfg and constructs an Engine with a fresh buffer pool.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		bp:     bufferpool.New(cfg.frameCount(), cfg.maxOpenFile()),
		tables: make(map[string]*table.Table),
	}, nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// DefaultEngine lazily constructs a process-wide Engine rooted at "." on
// first call, mirroring the original's theGlobalDiskBufferPool singleton.
// New(cfg) is still the documented primary constructor; this exists for
// callers that genuinely don't want to carry a handle.
func DefaultEngine() *Engine {
	defaultOnce.Do(func() {
		e, err := New(DefaultConfig("."))
		if err != nil {
			panic(err) // DefaultConfig(".") is always valid
		}
		defaultEngine = e
	})
	return defaultEngine
}

func (e *Engine) BufferPool() *bufferpool.Pool { return e.bp }

func (e *Engine) Paths() Paths { return Paths{BaseDir: e.cfg.BaseDir} }

// CreateTable creates and registers a brand-new table.
func (e *Engine) CreateTable(name string, fields []schema.FieldMeta) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tables[name]; ok {
		return nil, dberr.Code(dberr.CodeSchemaTableExist, "table already open: "+name)
	}
	t, err := table.Create(e.bp, e.cfg.BaseDir, name, fields)
	if err != nil {
		return nil, err
	}
	e.tables[name] = t
	logging.WithComponent("engine").Info("created table", "table", name)
	return t, nil
}

// OpenTable opens and registers an existing table, or returns the
// already-open one if another caller got there first.
func (e *Engine) OpenTable(name string) (*table.Table, error) {
	e.mu.Lock()
	if t, ok := e.tables[name]; ok {
		e.mu.Unlock()
		return t, nil
	}
	e.mu.Unlock()

	t, err := table.Open(e.bp, e.cfg.BaseDir, name)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.tables[name]; ok {
		return existing, nil
	}
	e.tables[name] = t
	return t, nil
}

// OpenTables opens every named table concurrently. Each table's own open
// sequence (meta file, data file, every index file) still runs serially
// through the buffer pool's single mutex; only different tables' opens
// overlap, the way the original fans out its own multi-step DDL teardown.
func (e *Engine) OpenTables(names []string) ([]*table.Table, error) {
	out := make([]*table.Table, len(names))
	g := new(errgroup.Group)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			t, err := e.OpenTable(name)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Table returns a previously created or opened table, if any.
func (e *Engine) Table(name string) (*table.Table, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	return t, ok
}

// Sync flushes every open table.
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tables {
		if err := t.Sync(); err != nil {
			return err
		}
	}
	return nil
}
