package slotpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMetrics(t *testing.T) {
	p, err := New[entity](8, WithSlack(25))
	require.NoError(t, err)

	m := p.Metrics()
	assert.Equal(t, 0, m.Live)
	assert.Equal(t, 8, m.Capacity)
	assert.Equal(t, 1, m.NumChunks)
	assert.Equal(t, 8, m.ChunkCapacity)
	assert.Equal(t, 25, m.Slack)
	assert.Equal(t, 0.0, m.Utilization)

	for i := 0; i < 6; i++ {
		_, err := p.Alloc()
		require.NoError(t, err)
	}

	m = p.Metrics()
	assert.Equal(t, 6, m.Live)
	assert.Equal(t, 8, m.Capacity)
	assert.InDelta(t, 0.75, m.Utilization, 1e-9)
	assert.Equal(t, m.Live, p.Count())
	assert.InDelta(t, p.Utilization(), m.Utilization, 1e-9)
}

func TestPoolMetricsEmptyPool(t *testing.T) {
	p, err := New[entity](8, WithInitialChunks(0))
	require.NoError(t, err)

	m := p.Metrics()
	assert.Equal(t, 0, m.Capacity)
	assert.Equal(t, 0, m.NumChunks)
	assert.Equal(t, 0.0, m.Utilization)
	assert.Equal(t, 0.0, p.Utilization())
}

func TestPoolMetricsAcrossChunks(t *testing.T) {
	p, err := New[entity](4)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err := p.Alloc()
		require.NoError(t, err)
	}

	m := p.Metrics()
	assert.Equal(t, 6, m.Live)
	assert.Equal(t, 8, m.Capacity)
	assert.Equal(t, 2, m.NumChunks)
	assert.InDelta(t, 0.75, m.Utilization, 1e-9)
}
