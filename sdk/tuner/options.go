package tuner

import (
	"time"

	"github.com/leandrodaf/vcotuner/internal/zerocross"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

const (
	DefaultTickInterval   = 10 * time.Millisecond
	DefaultSettleTime     = 100 * time.Millisecond
	DefaultReferenceTicks = 1000
	// minTimeoutTicks keeps short notes from timing out before a couple of
	// audio blocks have arrived.
	minTimeoutTicks  = 10
	commandQueueSize = 16
)

type options struct {
	logger         contracts.Logger
	logLevel       *contracts.LogLevel // nil leaves the logger's level alone
	tickInterval   time.Duration
	settleTime     time.Duration
	referenceTicks int
	maxPeriods     int
	config         Config
	cycle          bool
	listeners      []Listener
	tickHooks      []func(time.Time)
	now            func() time.Time
}

func defaultOptions() options {
	return options{
		tickInterval:   DefaultTickInterval,
		settleTime:     DefaultSettleTime,
		referenceTicks: DefaultReferenceTicks,
		maxPeriods:     zerocross.DefaultMaxPeriodLengths,
		config:         DefaultConfig(),
		now:            time.Now,
	}
}

// Option configures a Tuner.
type Option func(*options)

// WithLogger sets the logger. The tuner never logs from the audio callback.
func WithLogger(l contracts.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogLevel sets the minimum level of the tuner's logger. Without it a
// logger passed to WithLogger keeps its own level.
func WithLogLevel(level contracts.LogLevel) Option {
	return func(o *options) { o.logLevel = &level }
}

// WithTickInterval sets the period of the control loop driven by Run.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// WithSettleTime sets how long the oscillator may settle after a note-on.
func WithSettleTime(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.settleTime = d
		}
	}
}

// WithReferenceTicks sets the tick budget for measurements without a predicted frequency.
func WithReferenceTicks(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.referenceTicks = n
		}
	}
}

// WithMaxPeriodLengths sets the detector capacity.
func WithMaxPeriodLengths(n int) Option {
	return func(o *options) { o.maxPeriods = n }
}

// WithConfig replaces the staged run configuration. Invalid configurations
// make New fail.
func WithConfig(c Config) Option {
	return func(o *options) { o.config = c }
}

// WithMeasurementRange stages the sweep range.
func WithMeasurementRange(r MeasurementRange) Option {
	return func(o *options) { o.config.Range = r }
}

// WithResolution stages the number of stable periods per measurement.
func WithResolution(n int) Option {
	return func(o *options) { o.config.Resolution = n }
}

// WithMidiChannel stages the MIDI channel.
func WithMidiChannel(ch uint8) Option {
	return func(o *options) { o.config.MidiChannel = ch }
}

// WithReferencePitch stages an explicit reference pitch.
func WithReferencePitch(p int) Option {
	return func(o *options) { o.config.ReferencePitch = p }
}

// WithCycle restarts a sweep on the tick after it finishes.
func WithCycle(on bool) Option {
	return func(o *options) { o.cycle = on }
}

// WithListener registers a listener before the first tick.
func WithListener(l Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTickHook calls fn at the start of every tick on the control goroutine.
// Device watchers that share the MIDI output with the tuner belong here.
func WithTickHook(fn func(now time.Time)) Option {
	return func(o *options) {
		if fn != nil {
			o.tickHooks = append(o.tickHooks, fn)
		}
	}
}
