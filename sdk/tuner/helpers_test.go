package tuner

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
	"github.com/leandrodaf/vcotuner/internal/logger"
	"github.com/leandrodaf/vcotuner/internal/pitch"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

const (
	testSampleRate = 48000.0
	testBlockSize  = 480 // one 10 ms block per tick
)

type midiEvent struct {
	on       bool
	channel  uint8
	note     uint8
	velocity uint8
}

// fakeMIDI records the notes it is asked to play.
type fakeMIDI struct {
	events  []midiEvent
	current int // sounding note, -1 if none
	failOn  error
	failOff error
}

func newFakeMIDI() *fakeMIDI { return &fakeMIDI{current: -1} }

func (m *fakeMIDI) ListDevices() ([]contracts.DeviceInfo, error) {
	return []contracts.DeviceInfo{{ID: 0, Name: "CV interface"}}, nil
}

func (m *fakeMIDI) SelectDevice(int) error { return nil }
func (m *fakeMIDI) Close() error           { return nil }

func (m *fakeMIDI) NoteOn(channel, note, velocity uint8) error {
	if m.failOn != nil {
		return m.failOn
	}
	m.events = append(m.events, midiEvent{on: true, channel: channel, note: note, velocity: velocity})
	m.current = int(note)
	return nil
}

func (m *fakeMIDI) NoteOff(channel, note uint8) error {
	if m.failOff != nil {
		return m.failOff
	}
	m.events = append(m.events, midiEvent{channel: channel, note: note})
	if m.current == int(note) {
		m.current = -1
	}
	return nil
}

func (m *fakeMIDI) noteOns() []int {
	var out []int
	for _, e := range m.events {
		if e.on {
			out = append(out, int(e.note))
		}
	}
	return out
}

// source renders the oscillator's output for the sounding note, -1 if none.
type source interface {
	render(note int, out []float32)
}

// sineSource plays a sine whose frequency depends on the note. The waveform
// restarts at phase zero on every note change.
type sineSource struct {
	t    *testing.T
	freq func(note int) float64
	rate float64
	note int
	buf  []float64
	pos  int
}

func newSineSource(t *testing.T, freq func(note int) float64) *sineSource {
	return &sineSource{t: t, freq: freq, rate: testSampleRate, note: -1}
}

func (s *sineSource) render(note int, out []float32) {
	if note != s.note {
		s.note = note
		s.pos = 0
		s.buf = nil
		if note >= 0 {
			g := signal.NewGenerator(core.WithSampleRate(s.rate))
			buf, err := g.Sine(s.freq(note), 0.8, 4*int(s.rate))
			if err != nil {
				s.t.Fatalf("Sine() error = %v", err)
			}
			s.buf = buf
		}
	}
	for i := range out {
		if s.pos < len(s.buf) {
			out[i] = float32(s.buf[s.pos])
			s.pos++
		} else {
			out[i] = 0
		}
	}
}

func equalTempered(note int) float64 { return pitch.MIDIFrequency(float64(note)) }

// silentSource never crosses zero.
type silentSource struct{}

func (silentSource) render(_ int, out []float32) {
	for i := range out {
		out[i] = 0
	}
}

// loopSource repeats a fixed waveform regardless of MIDI.
type loopSource struct {
	samples []float32
	pos     int
}

func (s *loopSource) render(_ int, out []float32) {
	for i := range out {
		out[i] = s.samples[s.pos]
		s.pos = (s.pos + 1) % len(s.samples)
	}
}

// alternating builds cycles of alternating lengths.
func alternating(a, b, pairs int) []float32 {
	var out []float32
	for i := 0; i < pairs; i++ {
		for _, l := range []int{a, b} {
			for k := 0; k < l; k++ {
				out = append(out, float32(math.Sin(2*math.Pi*float64(k)/float64(l))))
			}
		}
	}
	return out
}

// recorder keeps every notification.
type recorder struct {
	results  []MeasurementResult
	started  int
	stopped  int
	finished int
	statuses []string
}

func (r *recorder) OnMeasurement(m MeasurementResult) { r.results = append(r.results, m) }
func (r *recorder) OnStarted()                        { r.started++ }
func (r *recorder) OnStopped()                        { r.stopped++ }
func (r *recorder) OnFinished()                       { r.finished++ }
func (r *recorder) OnStatusChanged(s string)          { r.statuses = append(r.statuses, s) }

// rig feeds one audio block from src into the tuner before every tick.
type rig struct {
	t     *testing.T
	tuner *Tuner
	midi  *fakeMIDI
	src   source
	rec   *recorder
	block []float32
}

func newRig(t *testing.T, src source, opts ...Option) *rig {
	t.Helper()
	m := newFakeMIDI()
	rec := &recorder{}
	opts = append([]Option{
		WithLogger(logger.NewNopLogger()),
		WithResolution(20),
		WithListener(rec),
	}, opts...)
	tu, err := New(m, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tu.AudioAboutToStart(testSampleRate)
	return &rig{t: t, tuner: tu, midi: m, src: src, rec: rec, block: make([]float32, testBlockSize)}
}

func (r *rig) step() {
	r.src.render(r.midi.current, r.block)
	r.tuner.AudioBlock(r.block)
	r.tuner.Tick()
}

func (r *rig) steps(n int) {
	for i := 0; i < n; i++ {
		r.step()
	}
}

// runUntil steps until done reports true and returns the number of ticks taken.
func (r *rig) runUntil(done func() bool, maxTicks int) int {
	r.t.Helper()
	for i := 1; i <= maxTicks; i++ {
		r.step()
		if done() {
			return i
		}
	}
	r.t.Fatalf("condition not met after %d ticks: state %v, status %q, errors %v",
		maxTicks, r.tuner.State(), r.tuner.Status(), r.tuner.DrainErrors())
	return 0
}

func (r *rig) inState(s State) func() bool {
	return func() bool { return r.tuner.State() == s }
}

// singleError drains the queue and expects exactly one record.
func (r *rig) singleError() ErrorRecord {
	r.t.Helper()
	errs := r.tuner.DrainErrors()
	if len(errs) != 1 {
		r.t.Fatalf("DrainErrors() = %v, want one record", errs)
	}
	return errs[0]
}
