package slotpool

import "log/slog"

type config struct {
	initialChunks int
	slack         int
	maxChunks     int
	logger        *slog.Logger
}

func defaultConfig() config {
	return config{
		initialChunks: 1,
		slack:         -1,
		maxChunks:     0,
		logger:        slog.New(slog.DiscardHandler),
	}
}

// Option configures a Pool at construction time.
type Option func(*config)

// WithInitialChunks sets how many chunks New pre-allocates. Zero is valid:
// the first Alloc grows the pool. Default 1.
func WithInitialChunks(n int) Option {
	return func(c *config) { c.initialChunks = n }
}

// WithSlack sets the shrink policy. -1 never releases chunks (the default),
// 0 releases every trailing empty chunk eagerly, and a value in [1, 100]
// releases the trailing run of empty chunks, as a whole, only when the chunk
// immediately preceding the run is at least that percent empty. The
// threshold acts as hysteresis so an allocate/free pattern oscillating
// around a chunk boundary does not repeatedly create and destroy a chunk.
func WithSlack(s int) Option {
	return func(c *config) { c.slack = s }
}

// WithMaxChunks caps how many chunks the pool may hold. Alloc returns
// ErrPoolExhausted instead of growing past the cap. 0 means unlimited (the
// default).
func WithMaxChunks(n int) Option {
	return func(c *config) { c.maxChunks = n }
}

// WithLogger sets the logger for structural events (chunk growth and
// release), emitted at debug level. By default logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
