package tuner

import (
	"time"

	"github.com/leandrodaf/vcotuner/internal/pitch"
)

// Mode identifies the kind of run that produced a result.
type Mode int

const (
	ModeSweep Mode = iota
	ModeContinuous
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeSweep:
		return "sweep"
	case ModeContinuous:
		return "continuous"
	case ModeSingle:
		return "single"
	}
	return "unknown"
}

// MeasurementResult is the outcome of measuring one MIDI pitch.
// Pitch values are in semitones relative to the reference anchor.
type MeasurementResult struct {
	Mode            Mode
	MidiPitch       int
	Frequency       float64 // Hz
	Pitch           float64
	PitchOffset     float64 // Pitch - MidiPitch
	FreqDeviation   float64 // Hz
	PitchDeviation  float64
	NumMeasurements int // periods that went into the statistics
	Timestamp       time.Time
}

// OffsetCents returns PitchOffset in cents.
func (r MeasurementResult) OffsetCents() float64 { return pitch.Cents(r.PitchOffset) }

func newResult(mode Mode, midiPitch int, s pitch.Summary, at time.Time) MeasurementResult {
	return MeasurementResult{
		Mode:            mode,
		MidiPitch:       midiPitch,
		Frequency:       s.Frequency,
		Pitch:           s.Pitch,
		PitchOffset:     s.Pitch - float64(midiPitch),
		FreqDeviation:   s.FrequencyDeviation,
		PitchDeviation:  s.PitchDeviation,
		NumMeasurements: s.Count,
		Timestamp:       at,
	}
}
