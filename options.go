package outline

// Option configures a Pipeline during creation.
//
// Example:
//
//	// CPU only, four workers, no region mask
//	p, err := outline.New(800, 600,
//		outline.WithWorkers(4),
//		outline.WithRegionMask(false),
//		outline.WithCPU(),
//	)
type Option func(*options)

// options holds optional configuration for Pipeline creation.
type options struct {
	workers    int
	regionMask bool
	analytic   bool
	settings   Settings
	backend    Backend
	cpuOnly    bool
}

// defaultOptions returns the default pipeline options.
func defaultOptions() options {
	return options{
		workers:    0, // GOMAXPROCS
		regionMask: true,
		settings:   DefaultSettings(),
	}
}

// WithWorkers sets the number of CPU workers. Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRegionMask enables or disables the dilation pass that bounds seed
// initialization. It never changes the output; it is on by default.
func WithRegionMask(enabled bool) Option {
	return func(o *options) {
		o.regionMask = enabled
	}
}

// WithAnalytic replaces the seed, flood and composite passes with a single
// ring-sampling pass. The result is an approximation suited to narrow
// outlines; backends are not used in this mode.
func WithAnalytic() Option {
	return func(o *options) {
		o.analytic = true
	}
}

// WithSettings sets the settings used by frames that carry none.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithBackend sets the backend for this pipeline instead of the registered
// one. New calls its Init and fails if Init does. The caller keeps
// ownership: Pipeline.Close does not close it.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithCPU ignores any registered backend.
func WithCPU() Option {
	return func(o *options) {
		o.cpuOnly = true
	}
}
