// Package zerocross estimates oscillation periods from negative to positive
// zero crossings of a single channel audio stream.
//
// A Detector is shared by two goroutines: the control loop that arms and
// reads measurements, and the audio callback that fills them. Ownership of
// the measurement fields follows the sampling flag. While sampling is false
// only the control side may touch them; while it is true only the audio side
// may. The flags are atomics, so the flip that hands ownership over also
// publishes the fields written before it.
package zerocross

import "sync/atomic"

const (
	// DefaultMaxPeriodLengths bounds the number of periods a measurement may collect.
	DefaultMaxPeriodLengths = 600
	// WindowLength is the number of consecutive periods tested for stability.
	WindowLength = 5
	// StabilityTolerance is the maximum relative deviation from the window mean.
	StabilityTolerance = 0.1
)

// Verdict is the audio side's conclusion about the last measurement.
type Verdict int32

const (
	// VerdictPending means the measurement is still collecting periods.
	VerdictPending Verdict = iota
	// VerdictDone means enough periods were collected after the signal stabilized.
	VerdictDone
	// VerdictNotStable means the buffer filled before a stable window was found.
	VerdictNotStable
	// VerdictAborted means the audio stream stopped or restarted mid-measurement.
	VerdictAborted
)

func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictDone:
		return "done"
	case VerdictNotStable:
		return "not stable"
	case VerdictAborted:
		return "aborted"
	}
	return "unknown"
}

// Result is a finished measurement. Periods aliases the detector's buffer and
// is only valid until the next Arm.
type Result struct {
	Verdict    Verdict
	Periods    []float64 // stable periods, [FirstValid, Head)
	FirstValid int       // -1 if the signal never stabilized
	Head       int       // number of periods collected
}

// Progress is a lock free snapshot usable while a measurement is running.
type Progress struct {
	Periods int  // periods collected so far
	Stable  bool // a stable window has been found
}

// Detector implements the zero crossing period detector.
type Detector struct {
	// startSampling is set by the control side and cleared by the audio side.
	startSampling atomic.Bool
	// stopSampling is a one-shot cancel request, set by control, cleared by audio.
	stopSampling atomic.Bool

	// Written by audio, readable anywhere.
	numPeriods atomic.Int32
	stableSeen atomic.Bool

	// Owned by whichever side the sampling flag designates.
	periods          []float64
	head             int
	firstValid       int
	verdict          Verdict
	numPeriodSamples int

	// Audio side only.
	running       bool
	sampleCounter int64
	lastSample    float32
	lastCrossing  float64
	haveCrossing  bool
}

// New allocates a detector able to hold capacity periods.
// A capacity below WindowLength+2 selects DefaultMaxPeriodLengths.
func New(capacity int) *Detector {
	if capacity < WindowLength+2 {
		capacity = DefaultMaxPeriodLengths
	}
	return &Detector{periods: make([]float64, capacity), firstValid: -1}
}

// Capacity returns the maximum number of periods per measurement.
func (d *Detector) Capacity() int { return len(d.periods) }

// Arm starts a new measurement that completes after more than numPeriodSamples
// stable periods. It returns false while a measurement or a cancel request is
// still pending on the audio side.
func (d *Detector) Arm(numPeriodSamples int) bool {
	if d.stopSampling.Load() || d.startSampling.Load() {
		return false
	}
	if numPeriodSamples < 1 {
		numPeriodSamples = 1
	}
	d.head = 0
	d.firstValid = -1
	d.verdict = VerdictPending
	d.numPeriodSamples = numPeriodSamples
	d.numPeriods.Store(0)
	d.stableSeen.Store(false)
	d.startSampling.Store(true)
	return true
}

// Sampling reports whether the audio side currently owns the measurement.
func (d *Detector) Sampling() bool { return d.startSampling.Load() }

// CancelPending reports whether a cancel request has not been consumed yet.
func (d *Detector) CancelPending() bool { return d.stopSampling.Load() }

// Idle reports whether the control side may arm a new measurement.
func (d *Detector) Idle() bool { return !d.startSampling.Load() && !d.stopSampling.Load() }

// Cancel asks the audio side to drop the running measurement on its next block.
// It does not preempt a block that is being processed.
func (d *Detector) Cancel() {
	if d.startSampling.Load() {
		d.stopSampling.Store(true)
	}
}

// Progress returns the running measurement's counters.
func (d *Detector) Progress() Progress {
	return Progress{Periods: int(d.numPeriods.Load()), Stable: d.stableSeen.Load()}
}

// Result returns the last measurement once the audio side has handed it back.
// A measurement that was never finished reports VerdictAborted.
func (d *Detector) Result() (Result, bool) {
	if d.startSampling.Load() || d.stopSampling.Load() {
		return Result{}, false
	}
	r := Result{Verdict: d.verdict, FirstValid: d.firstValid, Head: d.head}
	if r.Verdict == VerdictPending {
		// handed back without a verdict: ResetIdle took the measurement away
		r.Verdict = VerdictAborted
	}
	if d.firstValid >= 0 {
		r.Periods = d.periods[d.firstValid:d.head]
	} else {
		r.Periods = d.periods[:d.head]
	}
	return r, true
}

// Process consumes one block of samples. It runs on the audio thread and
// neither blocks nor allocates.
func (d *Detector) Process(block []float32) {
	if d.stopSampling.Load() {
		if d.startSampling.Load() {
			d.head = 0
			d.firstValid = -1
			d.verdict = VerdictPending
			d.numPeriods.Store(0)
			d.running = false
			d.startSampling.Store(false)
		}
		d.stopSampling.Store(false)
	}
	if !d.startSampling.Load() {
		return
	}
	if !d.running {
		d.running = true
		d.sampleCounter = 0
		d.lastSample = 0
		d.haveCrossing = false
	}

	for _, s := range block {
		if d.lastSample < 0 && s >= 0 {
			// line through the bracketing samples, x relative to the previous one:
			// y = m*x + n, zero at x0 = -n/m
			m := float64(s) - float64(d.lastSample)
			n := float64(d.lastSample)
			pos := float64(d.sampleCounter-1) - n/m

			if d.haveCrossing {
				d.periods[d.head] = pos - d.lastCrossing
				d.head++
				d.numPeriods.Store(int32(d.head))
				d.updateStability()

				if d.firstValid >= 0 && d.head-d.firstValid > d.numPeriodSamples {
					d.finish(VerdictDone)
					return
				}
				if d.head >= len(d.periods) {
					d.finish(VerdictNotStable)
					return
				}
			}
			d.lastCrossing = pos
			d.haveCrossing = true
		}
		d.lastSample = s
		d.sampleCounter++
	}
}

// ResetIdle clears both flags. The audio driver calls it from its start and
// stop notifications, when no Process call can be in flight. It may race with
// Arm, so it never writes the control side's fields; the disarmed measurement
// surfaces as VerdictAborted from Result.
func (d *Detector) ResetIdle() {
	d.running = false
	d.startSampling.CompareAndSwap(true, false)
	d.stopSampling.Store(false)
}

func (d *Detector) finish(v Verdict) {
	d.verdict = v
	d.running = false
	d.startSampling.Store(false)
}

func (d *Detector) updateStability() {
	if d.firstValid >= 0 || d.head < WindowLength {
		return
	}
	start := d.head - WindowLength
	if Stable(d.periods[start:d.head]) {
		d.firstValid = start
		d.stableSeen.Store(true)
	}
}

// Stable reports whether every period deviates from the mean of window by
// less than StabilityTolerance.
func Stable(window []float64) bool {
	if len(window) == 0 {
		return false
	}
	var sum float64
	for _, p := range window {
		sum += p
	}
	mean := sum / float64(len(window))
	bound := mean * StabilityTolerance
	for _, p := range window {
		diff := p - mean
		if diff < 0 {
			diff = -diff
		}
		if diff >= bound {
			return false
		}
	}
	return true
}
