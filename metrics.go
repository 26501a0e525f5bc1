package slotpool

// Utilization returns the ratio of live slots to total capacity (0.0 to 1.0).
// Returns 0.0 if the pool currently holds no chunks.
func (p *Pool[T]) Utilization() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	capacity := len(p.chunks) * p.chunkCap
	if capacity == 0 {
		return 0
	}
	live := 0
	for _, c := range p.chunks {
		live += c.live()
	}
	return float64(live) / float64(capacity)
}

// Metrics returns a snapshot of pool statistics. The snapshot is taken under
// one lock acquisition, so its fields are mutually consistent at the
// chunk-list level.
func (p *Pool[T]) Metrics() PoolMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	live := 0
	for _, c := range p.chunks {
		live += c.live()
	}
	capacity := len(p.chunks) * p.chunkCap
	m := PoolMetrics{
		Live:          live,
		Capacity:      capacity,
		NumChunks:     len(p.chunks),
		ChunkCapacity: p.chunkCap,
		Slack:         p.slack,
	}
	if capacity > 0 {
		m.Utilization = float64(live) / float64(capacity)
	}
	return m
}

// PoolMetrics contains statistical information about a pool.
type PoolMetrics struct {
	Live          int     // Slots currently holding live objects
	Capacity      int     // Total slots across all chunks
	NumChunks     int     // Number of chunks
	ChunkCapacity int     // Slots per chunk
	Slack         int     // Configured shrink policy
	Utilization   float64 // Ratio of live to total slots (0.0-1.0)
}
