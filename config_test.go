package gemm

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultPanelRows, cfg.PanelRows)
	assert.Equal(t, DefaultTileK, cfg.TileK)
	assert.GreaterOrEqual(t, cfg.TileN, DefaultTileN)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.NotNil(t, cfg.Kernel)
	assert.Nil(t, cfg.Executor)
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg := resolveConfig([]Option{
		WithConfig(Config{PanelRows: -3}),
		nil,
	})
	assert.Equal(t, DefaultPanelRows, cfg.PanelRows)
	assert.Equal(t, DefaultTileK, cfg.TileK)
	assert.Equal(t, alignToCacheLine(DefaultTileN), cfg.TileN)
	assert.Positive(t, cfg.Workers)
	assert.NotNil(t, cfg.Kernel)
}

func TestResolveConfigOptions(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	cfg := resolveConfig([]Option{
		WithPanelRows(8),
		WithTileK(16),
		WithWorkers(3),
		WithExecutor(pool),
	})
	assert.Equal(t, 8, cfg.PanelRows)
	assert.Equal(t, 16, cfg.TileK)
	assert.Equal(t, 3, cfg.Workers)
	assert.Same(t, pool, cfg.Executor)

	// Later options win
	cfg = resolveConfig([]Option{WithPanelRows(8), WithPanelRows(32)})
	assert.Equal(t, 32, cfg.PanelRows)
}

func TestAlignToCacheLine(t *testing.T) {
	per := CacheLineSize() / float32Size
	if per <= 1 {
		t.Skipf("cache line of %d bytes holds at most one float32", CacheLineSize())
	}

	for _, n := range []int{1, per - 1, per, per + 1, 100, 257} {
		got := alignToCacheLine(n)
		assert.GreaterOrEqual(t, got, n)
		assert.Less(t, got-n, per)
		assert.Zero(t, got%per, "alignToCacheLine(%d) = %d", n, got)
	}

	cfg := resolveConfig([]Option{WithTileN(1)})
	assert.Equal(t, per, cfg.TileN)
}

func TestDefaultBlockingFitsCaches(t *testing.T) {
	assert.Equal(t, 128, DefaultTileK)
	assert.Equal(t, 256, DefaultTileN)

	aPanel := DefaultPanelRows * DefaultTileK * float32Size
	bTile := DefaultTileK * DefaultTileN * float32Size
	assert.LessOrEqual(t, aPanel, L1CacheSize, "A panel slice exceeds L1")
	assert.LessOrEqual(t, bTile, L2CacheSize/2, "B tile exceeds half of L2")
}
