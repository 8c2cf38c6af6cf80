// Package pitch converts between frequencies and MIDI pitches and condenses
// period measurements into frequency and pitch statistics.
package pitch

import (
	"errors"
	"fmt"
	"math"

	algotime "github.com/cwbudde/algo-dsp/stats/time"
)

const (
	// A4Note is the MIDI note of concert pitch.
	A4Note = 69
	// A4Frequency is concert pitch in Hz.
	A4Frequency = 440.0
)

var (
	ErrTooFewPeriods     = errors.New("at least two periods are required")
	ErrInvalidSampleRate = errors.New("sample rate must be > 0")
	ErrInvalidPeriod     = errors.New("period length must be > 0")
	ErrInvalidReference  = errors.New("reference frequency must be > 0")
)

// FrequencyToPitch returns the pitch of f in semitones, anchored so that
// refFreq maps to refPitch.
func FrequencyToPitch(f, refFreq, refPitch float64) float64 {
	return 12*math.Log2(f/refFreq) + refPitch
}

// PitchToFrequency is the inverse of FrequencyToPitch.
func PitchToFrequency(p, refFreq, refPitch float64) float64 {
	return refFreq * math.Exp2((p-refPitch)/12)
}

// MIDIFrequency returns the equal tempered frequency of a MIDI note.
func MIDIFrequency(note float64) float64 {
	return PitchToFrequency(note, A4Frequency, A4Note)
}

// Cents converts a pitch difference in semitones to cents.
func Cents(semitones float64) float64 { return semitones * 100 }

// Summary condenses one measurement.
type Summary struct {
	Count              int
	AveragePeriod      float64 // samples
	Frequency          float64 // Hz
	Pitch              float64 // semitones, relative to the reference anchor
	FrequencyDeviation float64 // sample standard deviation of per-period frequencies
	PitchDeviation     float64 // sample standard deviation of per-period pitches
}

// Summarizer computes Summaries. It keeps scratch buffers between calls and is
// not safe for concurrent use.
type Summarizer struct {
	freqs   []float64
	pitches []float64
}

// NewSummarizer preallocates scratch space for capacity periods.
func NewSummarizer(capacity int) *Summarizer {
	return &Summarizer{
		freqs:   make([]float64, 0, capacity),
		pitches: make([]float64, 0, capacity),
	}
}

// Summarize averages the period lengths, converts the average to a frequency
// and a pitch, and maps every single period through the same formulas to
// obtain the jitter.
func (s *Summarizer) Summarize(periods []float64, sampleRate, refFreq, refPitch float64) (Summary, error) {
	n := len(periods)
	if n < 2 {
		return Summary{}, fmt.Errorf("%w: got %d", ErrTooFewPeriods, n)
	}
	if sampleRate <= 0 {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if refFreq <= 0 {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidReference, refFreq)
	}

	s.freqs = s.freqs[:0]
	s.pitches = s.pitches[:0]
	for i, p := range periods {
		if p <= 0 {
			return Summary{}, fmt.Errorf("%w: period %d is %v", ErrInvalidPeriod, i, p)
		}
		f := sampleRate / p
		s.freqs = append(s.freqs, f)
		s.pitches = append(s.pitches, FrequencyToPitch(f, refFreq, refPitch))
	}

	avg := algotime.DC(periods)
	freq := sampleRate / avg
	return Summary{
		Count:              n,
		AveragePeriod:      avg,
		Frequency:          freq,
		Pitch:              FrequencyToPitch(freq, refFreq, refPitch),
		FrequencyDeviation: sampleStdDev(s.freqs),
		PitchDeviation:     sampleStdDev(s.pitches),
	}, nil
}

// sampleStdDev rescales the population variance to divide by n-1.
func sampleStdDev(x []float64) float64 {
	n := float64(len(x))
	v := algotime.Calculate(x).Variance * n / (n - 1)
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
