// Package engine threads one buffer pool and one open-table registry
// through every Table and Index this module creates, the way the
// original engine threads a single global disk buffer pool through every
// subsystem, except here the handle is explicit and constructed, not a
// hidden global. A process-wide fallback is offered (DefaultEngine) but is
// not the primary way callers get a handle.
package engine

import (
	"fmt"

	dberr "storemy/pkg/error"
	"storemy/pkg/page"
)

// Config sizes and locates an Engine's storage. Defaults match the
// original engine's compile-time constants (PageSize=8192, the pool
// deriving its frame count from MaxOpenFile).
type Config struct {
	// PageSize must equal page.Size; it is part of Config only so the
	// value is visible and validated at construction time, the same role
	// the original's own #define constant plays. This module's page
	// layout is not actually parameterized over page size.
	PageSize int

	// FrameCount sizes the buffer pool's frame pool. Zero means derive it
	// from MaxOpenFile the way the original derives POOL_NUM.
	FrameCount int

	// MaxOpenFile bounds how many files (a table's data file plus each of
	// its index files) can be open at once.
	MaxOpenFile int

	// BaseDir is the directory every table's data/meta/index files live
	// under.
	BaseDir string
}

// Option configures a Config on top of DefaultConfig's values.
type Option func(*Config)

func WithBaseDir(dir string) Option { return func(c *Config) { c.BaseDir = dir } }

func WithFrameCount(n int) Option { return func(c *Config) { c.FrameCount = n } }

func WithMaxOpenFile(n int) Option { return func(c *Config) { c.MaxOpenFile = n } }

// DefaultConfig returns a Config matching the original's compile-time
// defaults, rooted at baseDir.
func DefaultConfig(baseDir string) Config {
	return Config{
		PageSize:    page.Size,
		MaxOpenFile: defaultMaxOpenFile,
		BaseDir:     baseDir,
	}
}

// NewConfig applies opts on top of DefaultConfig(baseDir).
func NewConfig(baseDir string, opts ...Option) Config {
	cfg := DefaultConfig(baseDir)
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

const (
	defaultMaxOpenFile  = 64
	defaultPoolFraction = 4
)

func (c Config) validate() error {
	if c.PageSize != 0 && c.PageSize != page.Size {
		return dberr.Code(dberr.CodeInvalidArgument,
			fmt.Sprintf("engine: page size is fixed at %d, got %d", page.Size, c.PageSize))
	}
	if c.BaseDir == "" {
		return dberr.Code(dberr.CodeInvalidArgument, "engine: base directory cannot be empty")
	}
	return nil
}

func (c Config) frameCount() int {
	if c.FrameCount > 0 {
		return c.FrameCount
	}
	if c.MaxOpenFile > 0 {
		return c.MaxOpenFile / defaultPoolFraction
	}
	return defaultMaxOpenFile / defaultPoolFraction
}

func (c Config) maxOpenFile() int {
	if c.MaxOpenFile > 0 {
		return c.MaxOpenFile
	}
	return defaultMaxOpenFile
}
