package timefit

import "time"

type (
	// TimeFit bundles field designators, direction, and fallback zone,
	// compiling the designators once so repeated calls avoid rebuilding
	// accessors. It is immutable after construction and safe to share
	// read-only across goroutines
	TimeFit struct {
		config Config
		start  accessor
		stop   accessor
	}
)

// NewTimeFit creates a TimeFit from the given configuration. Zero-value
// Start/Stop designators fall back to the "start"/"stop" field names
func NewTimeFit(cfg Config) *TimeFit {
	if cfg.Start.Name == "" && cfg.Start.Get == nil {
		cfg.Start = Named(DefaultStartField)
	}
	if cfg.Stop.Name == "" && cfg.Stop.Get == nil {
		cfg.Stop = Named(DefaultStopField)
	}
	return &TimeFit{
		config: cfg,
		start:  cfg.Start.compile(),
		stop:   cfg.Stop.compile(),
	}
}

// Config returns the configuration the TimeFit was built with
func (tf *TimeFit) Config() Config {
	return tf.config
}

// Normalize canonicalizes a timestamp representation using the
// configured fallback zone
func (tf *TimeFit) Normalize(value any) (time.Time, error) {
	return Normalize(value, tf.config.FallbackZone)
}

// oneShots caches TimeFit instances for the one-shot package functions,
// so repeated calls with the same field names skip recompiling the
// reflection-backed accessors
var oneShots = newLRUCache[*TimeFit](DefaultCacheSize)

// For returns a memoized TimeFit bound to the given start/stop field
// names with otherwise default configuration
func For(startField, stopField string) *TimeFit {
	key := startField + "\x00" + stopField
	return oneShots.Get(key, func() *TimeFit {
		cfg := DefaultConfig()
		cfg.Start = Named(startField)
		cfg.Stop = Named(stopField)
		return NewTimeFit(cfg)
	})
}

func defaultFit() *TimeFit {
	return For(DefaultStartField, DefaultStopField)
}

// StreamlineTimes is the one-shot form of TimeFit.StreamlineTimes using
// the default configuration
func StreamlineTimes(event any, timelines ...Timeline) (TimeRange, error) {
	return defaultFit().StreamlineTimes(event, timelines...)
}

// StreamlineEvent is the one-shot form of TimeFit.StreamlineEvent using
// the default configuration
func StreamlineEvent(event any, timelines ...Timeline) (any, error) {
	return defaultFit().StreamlineEvent(event, timelines...)
}

// Insert is the one-shot form of TimeFit.InsertDirected using the
// default configuration
func Insert(
	event any, timeline Timeline, dir Direction, offset int,
) (Timeline, int, error) {
	return defaultFit().InsertDirected(event, timeline, dir, offset)
}

// Ranges is the one-shot form of TimeFit.Ranges using the default
// configuration
func Ranges(timelines ...Timeline) ([][2]time.Time, error) {
	return defaultFit().Ranges(timelines...)
}
