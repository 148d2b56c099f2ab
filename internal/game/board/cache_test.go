package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/content"
)

func TestCache_ShippedOriginalBoard(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())

	topo, err := cache.Get("original")
	require.NoError(t, err)

	stats := topo.Statistics()
	assert.Equal(t, 42, stats.TerritoryCount)
	assert.Equal(t, 6, stats.ContinentCount)

	report := topo.VerifyIntegrity()
	assert.True(t, report.Valid, "issues: %v", report.Issues)
}

func TestCache_ShippedAdvancedBoard(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())

	topo, err := cache.Get("advanced")
	require.NoError(t, err)

	stats := topo.Statistics()
	assert.Equal(t, 42, stats.TerritoryCount)
	assert.Equal(t, 12, stats.ContinentCount)

	report := topo.VerifyIntegrity()
	assert.True(t, report.Valid, "issues: %v", report.Issues)
}

func TestCache_ShippedAdjacencyIsSymmetric(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())

	for _, version := range []string{"original", "advanced"} {
		topo, err := cache.Get(version)
		require.NoError(t, err)
		b := topo.Board()
		for i := range b.Territories {
			terr := &b.Territories[i]
			for _, adj := range terr.AdjacentTo {
				assert.True(t, topo.AreAdjacent(terr.ID, adj),
					"%s: %s -> %s missing from index", version, terr.ID, adj)
				assert.True(t, topo.AreAdjacent(adj, terr.ID),
					"%s: %s -> %s not reciprocated", version, terr.ID, adj)
			}
		}
	}
}

func TestCache_ReturnsSharedInstance(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())

	first, err := cache.Get("original")
	require.NoError(t, err)
	second, err := cache.Get("original")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCache_ClearForcesReload(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())

	first, err := cache.Get("original")
	require.NoError(t, err)
	cache.Clear()
	second, err := cache.Get("original")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestCache_UnknownVersion(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())
	_, err := cache.Get("hexcrawl")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestCache_Versions(t *testing.T) {
	cache := NewCache(content.Embedded(), zap.NewNop())
	assert.Equal(t, []string{"advanced", "original"}, cache.Versions())
}

func TestLoadBoardFromBytes_Malformed(t *testing.T) {
	_, err := LoadBoardFromBytes([]byte(`{not json`))
	assert.Error(t, err)

	_, err = LoadBoardFromBytes([]byte(`{"version":""}`))
	assert.Error(t, err)
}
