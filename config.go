// Package gemm configuration constants
package gemm

import "runtime"

// Cache sizes the default blocking is derived from (in bytes)
const (
	// L1 cache size per core (typical for modern CPUs)
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core (typical for modern CPUs)
	L2CacheSize = 256 * 1024 // 256KB
)

// Blocking parameters. These are tunables, not part of the result contract:
// any positive values give results within GEMMTolerance of GemmNaive.
const (
	// DefaultPanelRows is the height of one parallel task's row panel
	DefaultPanelRows = 64

	// DefaultTileK is the width of a K tile: the PanelRows×TileK slice of A
	// fills L1 while a tile of B streams through.
	DefaultTileK = L1CacheSize / (DefaultPanelRows * float32Size)

	// DefaultTileN is the width of a column tile: a TileK×TileN tile of B
	// takes half of L2, leaving room for the rows of C it updates.
	DefaultTileN = L2CacheSize / 2 / (DefaultTileK * float32Size)

	// float32Size is the size of one element in bytes
	float32Size = 4
)

// Config holds the blocking and dispatch parameters of GemmParallel.
// Zero or negative sizes and nil hooks select the defaults.
type Config struct {
	// PanelRows is the number of output rows per parallel task
	PanelRows int

	// TileK is the K-tile width of the inner accumulation
	TileK int

	// TileN is the column tile width; rounded up to whole cache lines
	TileN int

	// Workers bounds the number of panels running at once. Only used by the
	// per-call executor; a caller-owned Pool has its own size.
	Workers int

	// Kernel is the tile multiply-accumulate
	Kernel TileKernel

	// Executor runs the panel tasks. Nil creates a transient group per call.
	Executor Executor
}

// Option adjusts a Config.
type Option func(*Config)

// DefaultConfig returns the configuration GemmParallel uses without options.
func DefaultConfig() Config {
	return Config{
		PanelRows: DefaultPanelRows,
		TileK:     DefaultTileK,
		TileN:     alignToCacheLine(DefaultTileN),
		Workers:   runtime.GOMAXPROCS(0),
		Kernel:    ScalarKernel,
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithPanelRows sets the panel height.
func WithPanelRows(rows int) Option {
	return func(c *Config) { c.PanelRows = rows }
}

// WithTileK sets the K-tile width.
func WithTileK(k int) Option {
	return func(c *Config) { c.TileK = k }
}

// WithTileN sets the column tile width.
func WithTileN(n int) Option {
	return func(c *Config) { c.TileN = n }
}

// WithWorkers bounds the number of concurrently running panels.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithKernel replaces the tile kernel.
func WithKernel(k TileKernel) Option {
	return func(c *Config) { c.Kernel = k }
}

// WithExecutor runs panels on e, typically a caller-owned *Pool.
func WithExecutor(e Executor) Option {
	return func(c *Config) { c.Executor = e }
}

// resolveConfig applies opts over DefaultConfig and fills in defaults for
// anything left unset.
func resolveConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.normalized()
}

// normalized replaces unset fields with defaults
func (c Config) normalized() Config {
	if c.PanelRows <= 0 {
		c.PanelRows = DefaultPanelRows
	}
	if c.TileK <= 0 {
		c.TileK = DefaultTileK
	}
	if c.TileN <= 0 {
		c.TileN = DefaultTileN
	}
	c.TileN = alignToCacheLine(c.TileN)
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Kernel == nil {
		c.Kernel = ScalarKernel
	}
	return c
}

// alignToCacheLine rounds n float32 elements up to whole cache lines
func alignToCacheLine(n int) int {
	per := CacheLineSize() / float32Size
	if per <= 1 {
		return n
	}
	return (n + per - 1) / per * per
}
