// Package tuner drives a voltage controlled oscillator through a MIDI-to-CV
// interface and measures the pitch it produces for each note.
//
// A Tuner is a tick driven state machine. Tick, the setters and the start and
// stop methods belong to one control goroutine, typically Run. The
// contracts.AudioCallback methods are called by the audio driver and only
// touch the zero crossing detector and a few atomics.
package tuner

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/vcotuner/internal/logger"
	"github.com/leandrodaf/vcotuner/internal/pitch"
	"github.com/leandrodaf/vcotuner/internal/zerocross"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// sanityTolerance is the minimum relative frequency change between the
// reference and the first sweep step.
const sanityTolerance = 0.1

// Tuner measures oscillator pitches. It implements contracts.AudioCallback.
type Tuner struct {
	midi       contracts.MIDIOutput
	logger     contracts.Logger
	opts       options
	detector   *zerocross.Detector
	summarizer *pitch.Summarizer

	// Set by the audio driver, consumed at the start of each tick.
	sampleRateBits atomic.Uint64
	audioStarted   atomic.Bool
	audioStopped   atomic.Bool
	deviceChanged  atomic.Bool

	commands chan func(*Tuner)

	staged      Config
	active      Config
	cycle       bool
	settleTicks int
	sampleRate  float64

	state       State
	transitions uint64 // incremented by enter
	mode        Mode
	ticks       int // ticks spent in the current state
	noteSent    bool
	settled     int
	pitches     []int
	step        int
	targetPitch int
	playing     int // sounding note, -1 if none
	playingCh   uint8

	referenceFrequency float64
	referencePitch     int
	haveReference      bool

	continuous     MeasurementResult
	haveContinuous bool
	single         MeasurementResult
	haveSingle     bool

	status    string
	errs      []ErrorRecord
	listeners []Listener
}

var _ contracts.AudioCallback = (*Tuner)(nil)

// New creates a stopped tuner sending notes to out. A nil out is accepted;
// every run then fails with ErrNoMidiDevice.
func New(out contracts.MIDIOutput, opts ...Option) (*Tuner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.config.Velocity == 0 {
		o.config.Velocity = DefaultVelocity
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = logger.NewZapLogger()
	}
	if o.logLevel != nil {
		o.logger.SetLevel(*o.logLevel)
	}

	d := zerocross.New(o.maxPeriods)
	if o.config.Resolution >= d.Capacity() {
		return nil, fmt.Errorf("%w: %d periods do not fit a %d period buffer", ErrInvalidResolution, o.config.Resolution, d.Capacity())
	}

	t := &Tuner{
		midi:        out,
		logger:      o.logger,
		opts:        o,
		detector:    d,
		summarizer:  pitch.NewSummarizer(d.Capacity()),
		commands:    make(chan func(*Tuner), commandQueueSize),
		staged:      o.config,
		active:      o.config,
		cycle:       o.cycle,
		settleTicks: int(math.Ceil(float64(o.settleTime) / float64(o.tickInterval))),
		playing:     -1,
		targetPitch: -1,
		listeners:   append([]Listener(nil), o.listeners...),
	}
	t.status = Stopped.def().status
	return t, nil
}

// AudioAboutToStart implements contracts.AudioCallback.
func (t *Tuner) AudioAboutToStart(sampleRate float64) {
	t.detector.ResetIdle()
	t.sampleRateBits.Store(math.Float64bits(sampleRate))
	t.audioStarted.Store(true)
}

// AudioBlock implements contracts.AudioCallback.
func (t *Tuner) AudioBlock(samples []float32) {
	t.detector.Process(samples)
}

// AudioStopped implements contracts.AudioCallback.
func (t *Tuner) AudioStopped() {
	t.detector.ResetIdle()
	t.audioStopped.Store(true)
}

// DeviceChanged reports a change of the MIDI or audio device setup. A running
// measurement is aborted on the next tick. Safe for concurrent use.
func (t *Tuner) DeviceChanged() {
	t.deviceChanged.Store(true)
}

// AddListener registers l.
func (t *Tuner) AddListener(l Listener) {
	t.listeners = append(t.listeners, l)
}

// RemoveListener unregisters l.
func (t *Tuner) RemoveListener(l Listener) {
	for i, x := range t.listeners {
		if x == l {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// Submit queues fn to run on the control goroutine at the start of the next tick.
func (t *Tuner) Submit(fn func(*Tuner)) error {
	select {
	case t.commands <- fn:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Run ticks the tuner until ctx is done, then stops any running measurement.
func (t *Tuner) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.opts.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.drainCommands()
			t.Stop()
			return nil
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Start begins a sweep: the reference pitch first, then every pitch of the
// staged range. A running measurement is stopped first.
func (t *Tuner) Start() {
	if !t.stopIfRunning() {
		return
	}
	t.latch(ModeSweep)
	t.haveReference = false
	t.referenceFrequency = 0
	t.pitches = t.active.Range.Pitches()
	t.step = 0
	t.targetPitch = t.active.referencePitch()
	t.enter(PrepReferenceMeasurement)
}

// StartContinuousMeasurement keeps measuring midiPitch until stopped.
func (t *Tuner) StartContinuousMeasurement(midiPitch int) error {
	if err := validatePitch(midiPitch); err != nil {
		return err
	}
	if !t.stopIfRunning() {
		return nil
	}
	t.latch(ModeContinuous)
	t.haveContinuous = false
	t.targetPitch = midiPitch
	t.enter(PrepContinuousMeasurement)
	return nil
}

// StartSingleMeasurement measures midiPitch once, then finishes.
func (t *Tuner) StartSingleMeasurement(midiPitch int) error {
	if err := validatePitch(midiPitch); err != nil {
		return err
	}
	if !t.stopIfRunning() {
		return nil
	}
	t.latch(ModeSingle)
	t.haveSingle = false
	t.targetPitch = midiPitch
	t.enter(PrepSingleMeasurement)
	return nil
}

// Stop aborts the running measurement without recording an error.
func (t *Tuner) Stop() {
	if t.state != Stopped {
		t.enter(Stopped)
	}
}

// Toggle stops a running tuner and starts a sweep on an idle one.
func (t *Tuner) Toggle() {
	if t.IsRunning() {
		t.Stop()
		return
	}
	t.Start()
}

// Tick advances the state machine by one step.
func (t *Tuner) Tick() {
	t.drainCommands()
	if len(t.opts.tickHooks) > 0 {
		now := t.opts.now()
		for _, hook := range t.opts.tickHooks {
			hook(now)
		}
	}
	t.checkDevices()

	def := t.state.def()
	switch def.kind {
	case kindPrepare:
		t.tickPrepare(def)
	case kindMeasure:
		t.tickMeasure(def)
	default:
		if t.state == Finished && t.cycle && t.mode == ModeSweep {
			t.logger.Info("restarting sweep")
			t.Start()
		}
	}
}

// State returns the current state.
func (t *Tuner) State() State { return t.state }

// IsRunning reports whether a run is in progress.
func (t *Tuner) IsRunning() bool { return t.state.Running() }

// Status returns the human readable description of the current state.
func (t *Tuner) Status() string { return t.status }

// SampleRate returns the rate reported by the audio driver, 0 before the first stream start.
func (t *Tuner) SampleRate() float64 { return t.sampleRate }

// Reference returns the measured reference frequency and the pitch it anchors.
func (t *Tuner) Reference() (freq float64, midiPitch int, ok bool) {
	return t.referenceFrequency, t.referencePitch, t.haveReference
}

// LatestContinuous returns the most recent continuous measurement.
func (t *Tuner) LatestContinuous() (MeasurementResult, bool) {
	return t.continuous, t.haveContinuous
}

// LatestSingle returns the result of the last single measurement.
func (t *Tuner) LatestSingle() (MeasurementResult, bool) {
	return t.single, t.haveSingle
}

// ReferenceDrift returns how far, in cents, the last single measurement
// lies from the pitch the sweep's reference predicts for it.
func (t *Tuner) ReferenceDrift() (float64, bool) {
	if !t.haveSingle || !t.haveReference {
		return 0, false
	}
	p := pitch.FrequencyToPitch(t.single.Frequency, t.referenceFrequency, float64(t.referencePitch))
	return pitch.Cents(p - float64(t.single.MidiPitch)), true
}

// DrainErrors returns the queued errors, oldest first, and clears the queue.
func (t *Tuner) DrainErrors() []ErrorRecord {
	errs := t.errs
	t.errs = nil
	return errs
}

// Config returns the staged configuration used by the next run.
func (t *Tuner) Config() Config { return t.staged }

// ActiveConfig returns the configuration of the current or last run.
func (t *Tuner) ActiveConfig() Config { return t.active }

// SetMeasurementRange stages the sweep range.
func (t *Tuner) SetMeasurementRange(lowest, increment, highest int) error {
	r := MeasurementRange{LowestPitch: lowest, PitchIncrement: increment, HighestPitch: highest}
	if err := r.Validate(); err != nil {
		return err
	}
	t.staged.Range = r
	return nil
}

// SetResolution stages the number of stable periods per measurement.
func (t *Tuner) SetResolution(numPeriodSamples int) error {
	if err := validateResolution(numPeriodSamples); err != nil {
		return err
	}
	if numPeriodSamples >= t.detector.Capacity() {
		return fmt.Errorf("%w: %d periods do not fit a %d period buffer", ErrInvalidResolution, numPeriodSamples, t.detector.Capacity())
	}
	t.staged.Resolution = numPeriodSamples
	return nil
}

// SetMidiChannel stages the MIDI channel, 1-16.
func (t *Tuner) SetMidiChannel(channel uint8) error {
	if err := validateChannel(channel); err != nil {
		return err
	}
	t.staged.MidiChannel = channel
	return nil
}

// SetReferencePitch stages the reference pitch; AutoReferencePitch selects
// the midpoint of the range.
func (t *Tuner) SetReferencePitch(midiPitch int) error {
	if midiPitch != AutoReferencePitch {
		if err := validatePitch(midiPitch); err != nil {
			return err
		}
	}
	t.staged.ReferencePitch = midiPitch
	return nil
}

// SetCycle switches cycle mode. Unlike the staged settings it applies at once.
func (t *Tuner) SetCycle(on bool) { t.cycle = on }

func (t *Tuner) latch(mode Mode) {
	t.active = t.staged
	t.mode = mode
	t.logger.Info("starting measurement",
		t.logger.Field().String("mode", mode.String()),
		t.logger.Field().Int("lowest", t.active.Range.LowestPitch),
		t.logger.Field().Int("increment", t.active.Range.PitchIncrement),
		t.logger.Field().Int("highest", t.active.Range.HighestPitch),
		t.logger.Field().Int("resolution", t.active.Resolution),
		t.logger.Field().Uint8("channel", t.active.MidiChannel),
	)
}

// stopIfRunning reports false when a listener started another run from OnStopped.
func (t *Tuner) stopIfRunning() bool {
	if t.state.Running() {
		return t.enter(Stopped)
	}
	return true
}

func (t *Tuner) drainCommands() {
	for {
		select {
		case fn := <-t.commands:
			fn(t)
		default:
			return
		}
	}
}

func (t *Tuner) checkDevices() {
	if t.audioStarted.Swap(false) {
		rate := math.Float64frombits(t.sampleRateBits.Load())
		if rate != t.sampleRate {
			t.logger.Info("audio sample rate", t.logger.Field().Float64("rate", rate))
		}
		t.sampleRate = rate
	}
	if t.audioStopped.Swap(false) {
		if t.state.Running() {
			t.abort(ErrAudioDeviceStopped, "")
		} else {
			t.logger.Debug("audio stream stopped while idle")
		}
	}
	if t.deviceChanged.Swap(false) {
		if t.state.Running() {
			t.abort(ErrAudioDeviceStopped, "device configuration changed")
		} else {
			t.Stop()
		}
	}
}

func (t *Tuner) tickPrepare(def stateDef) {
	t.ticks++
	if !t.detector.Idle() || t.sampleRate <= 0 {
		if t.ticks > t.opts.referenceTicks {
			t.abort(ErrAudioDeviceStopped, "the audio stream is not delivering samples")
		}
		return
	}
	if !t.noteSent {
		if err := t.playNote(t.targetPitch); err != nil {
			t.abort(ErrNoMidiDevice, err.Error())
			return
		}
		t.noteSent = true
		t.settled = 0
	}
	if t.settled < t.settleTicks {
		t.settled++
		return
	}
	if t.detector.Arm(t.active.Resolution) {
		t.enter(def.next)
	}
}

func (t *Tuner) tickMeasure(def stateDef) {
	t.ticks++
	if r, ok := t.detector.Result(); ok {
		t.complete(r)
		return
	}
	if limit := t.timeoutTicks(def); limit > 0 && t.ticks > limit {
		t.timedOut()
	}
}

// timeoutTicks converts the time a measurement of the target pitch should
// take, with a safety factor of two, into ticks.
func (t *Tuner) timeoutTicks(def stateDef) int {
	switch def.timeout {
	case timeoutFixed:
		return t.opts.referenceTicks
	case timeoutExpectedOrFixed:
		if !t.haveReference {
			return t.opts.referenceTicks
		}
	case timeoutNone:
		return 0
	}
	f := pitch.PitchToFrequency(float64(t.targetPitch), t.referenceFrequency, float64(t.referencePitch))
	seconds := 2 * float64(t.active.Resolution+zerocross.WindowLength+1) / f
	return max(int(math.Round(seconds/t.opts.tickInterval.Seconds())), minTimeoutTicks)
}

func (t *Tuner) timedOut() {
	p := t.detector.Progress()
	var err error
	switch {
	case p.Periods == 0:
		err = ErrNoZeroCrossings
	case !p.Stable:
		err = ErrHighJitterTimeout
	default:
		err = ErrStableTimeout
	}
	if t.state == ContinuousMeasurement {
		t.logger.Warn("continuous measurement timed out, re-arming",
			t.logger.Field().Int("periods", p.Periods),
			t.logger.Field().Bool("stable", p.Stable),
			t.logger.Field().Error("reason", err),
		)
		t.rearmContinuous()
		return
	}
	t.abort(err, "")
}

// rearmContinuous waits for the detector to drop the running measurement
// and arms it again without re-sending the note.
func (t *Tuner) rearmContinuous() {
	t.detector.Cancel()
	if !t.enter(PrepContinuousMeasurement) {
		return
	}
	t.noteSent = t.playing == t.targetPitch
	t.settled = t.settleTicks
}

func (t *Tuner) complete(r zerocross.Result) {
	switch r.Verdict {
	case zerocross.VerdictAborted, zerocross.VerdictPending:
		t.abort(ErrAudioDeviceStopped, "audio stream restarted during the measurement")
		return
	case zerocross.VerdictNotStable:
		if t.state == ContinuousMeasurement {
			t.logger.Warn("signal not stable, re-arming", t.logger.Field().Int("periods", r.Head))
			t.rearmContinuous()
			return
		}
		t.abort(ErrHighJitter, "")
		return
	}

	refFreq, refPitch := pitch.A4Frequency, float64(pitch.A4Note)
	if t.haveReference {
		refFreq, refPitch = t.referenceFrequency, float64(t.referencePitch)
	}
	s, err := t.summarizer.Summarize(r.Periods, t.sampleRate, refFreq, refPitch)
	if err != nil {
		t.abort(ErrHighJitter, err.Error())
		return
	}

	switch t.state {
	case ReferenceMeasurement:
		t.finishReference(s)
	case Measurement:
		t.finishStep(s)
	case ContinuousMeasurement:
		t.finishContinuous(s)
	case SingleMeasurement:
		t.finishSingle(s)
	}
}

func (t *Tuner) finishReference(s pitch.Summary) {
	t.referenceFrequency = s.Frequency
	t.referencePitch = t.targetPitch
	t.haveReference = true
	t.logger.Info("reference measured",
		t.logger.Field().Int("pitch", t.referencePitch),
		t.logger.Field().Float64("frequency", s.Frequency),
		t.logger.Field().Float64("deviation", s.FrequencyDeviation),
	)
	if err := t.releaseNote(); err != nil {
		t.abort(ErrNoMidiDevice, err.Error())
		return
	}
	t.step = 0
	t.targetPitch = t.pitches[0]
	t.enter(PrepMeasurement)
}

func (t *Tuner) finishStep(s pitch.Summary) {
	// A first step that sounds like the reference means the notes are not
	// reaching the oscillator.
	if t.step == 0 && t.targetPitch != t.referencePitch &&
		math.Abs(s.Frequency-t.referenceFrequency)/t.referenceFrequency < sanityTolerance {
		t.abort(ErrNoFrequencyChange, fmt.Sprintf("%.2f Hz at pitch %d, reference %.2f Hz", s.Frequency, t.targetPitch, t.referenceFrequency))
		return
	}
	if !t.emit(newResult(ModeSweep, t.targetPitch, s, t.opts.now())) {
		return
	}
	if err := t.releaseNote(); err != nil {
		t.abort(ErrNoMidiDevice, err.Error())
		return
	}
	t.step++
	if t.step >= len(t.pitches) {
		t.enter(Finished)
		return
	}
	t.targetPitch = t.pitches[t.step]
	t.enter(PrepMeasurement)
}

func (t *Tuner) finishContinuous(s pitch.Summary) {
	t.continuous = newResult(ModeContinuous, t.targetPitch, s, t.opts.now())
	t.haveContinuous = true
	if !t.emit(t.continuous) {
		return
	}
	t.ticks = 0
	if !t.detector.Arm(t.active.Resolution) {
		t.rearmContinuous()
	}
}

func (t *Tuner) finishSingle(s pitch.Summary) {
	t.single = newResult(ModeSingle, t.targetPitch, s, t.opts.now())
	t.haveSingle = true
	if !t.emit(t.single) {
		return
	}
	if err := t.releaseNote(); err != nil {
		t.abort(ErrNoMidiDevice, err.Error())
		return
	}
	t.enter(Finished)
}

// enter switches to s and notifies the listeners. It returns false when a
// listener called back into the tuner and moved it on to another state, in
// which case the caller must not touch the state any further.
func (t *Tuner) enter(s State) bool {
	prev := t.state
	t.state = s
	t.transitions++
	gen := t.transitions
	t.ticks = 0
	t.noteSent = false
	t.settled = 0

	switch s {
	case Stopped:
		t.detector.Cancel()
		if err := t.releaseNote(); err != nil {
			t.record(ErrNoMidiDevice, err.Error())
		}
		if prev != Stopped {
			t.logger.Info("measurement stopped", t.logger.Field().String("from", prev.String()))
			for _, l := range t.listeners {
				l.OnStopped()
			}
		}
	case Finished:
		t.logger.Info("measurement finished", t.logger.Field().String("mode", t.mode.String()))
		for _, l := range t.listeners {
			l.OnFinished()
		}
	case PrepReferenceMeasurement, PrepContinuousMeasurement, PrepSingleMeasurement:
		if !prev.Running() {
			for _, l := range t.listeners {
				l.OnStarted()
			}
		}
	}
	if t.transitions != gen {
		return false
	}
	t.setStatus(s.def().status)
	return t.transitions == gen
}

func (t *Tuner) setStatus(format string) {
	status := format
	if strings.Contains(format, "%d") {
		status = fmt.Sprintf(format, t.targetPitch)
	}
	if status == t.status {
		return
	}
	t.status = status
	for _, l := range t.listeners {
		l.OnStatusChanged(status)
	}
}

// emit delivers r to every listener and reports whether the tuner is still in
// the transition that produced it.
func (t *Tuner) emit(r MeasurementResult) bool {
	gen := t.transitions
	t.logger.Debug("measurement",
		t.logger.Field().String("mode", r.Mode.String()),
		t.logger.Field().Int("pitch", r.MidiPitch),
		t.logger.Field().Float64("frequency", r.Frequency),
		t.logger.Field().Float64("offset_cents", r.OffsetCents()),
		t.logger.Field().Int("periods", r.NumMeasurements),
	)
	for _, l := range t.listeners {
		l.OnMeasurement(r)
	}
	return t.transitions == gen
}

// abort records err and stops. The sounding note is released by enter.
func (t *Tuner) abort(err error, detail string) {
	t.record(err, detail)
	t.enter(Stopped)
}

func (t *Tuner) record(err error, detail string) {
	rec := ErrorRecord{Err: err, State: t.state, Pitch: t.targetPitch, Detail: detail, Timestamp: t.opts.now()}
	t.errs = append(t.errs, rec)
	t.logger.Error("measurement failed",
		t.logger.Field().String("state", rec.State.String()),
		t.logger.Field().Int("pitch", rec.Pitch),
		t.logger.Field().Error("error", rec),
	)
}

// playNote releases the sounding note, if any, and starts midiPitch.
func (t *Tuner) playNote(midiPitch int) error {
	if err := t.releaseNote(); err != nil {
		return err
	}
	if t.midi == nil {
		return contracts.ErrNoDeviceSelected
	}
	if err := t.midi.NoteOn(t.active.MidiChannel, uint8(midiPitch), t.active.Velocity); err != nil {
		return err
	}
	t.playing = midiPitch
	t.playingCh = t.active.MidiChannel
	return nil
}

// releaseNote sends the note-off for the sounding note. The note counts as
// released even when sending fails, so an abort never sends it twice.
func (t *Tuner) releaseNote() error {
	if t.playing < 0 {
		return nil
	}
	note, ch := t.playing, t.playingCh
	t.playing = -1
	if t.midi == nil {
		return contracts.ErrNoDeviceSelected
	}
	return t.midi.NoteOff(ch, uint8(note))
}
