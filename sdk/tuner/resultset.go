package tuner

import (
	"math"
	"sort"
)

// ResultSet is a Listener that keeps the latest sweep result per MIDI pitch.
// It is cleared whenever a run starts. Continuous and single results are ignored.
type ResultSet struct {
	byPitch map[int]MeasurementResult
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{byPitch: make(map[int]MeasurementResult)}
}

func (s *ResultSet) OnMeasurement(r MeasurementResult) {
	if r.Mode == ModeSweep {
		s.byPitch[r.MidiPitch] = r
	}
}

func (s *ResultSet) OnStarted() { clear(s.byPitch) }

func (s *ResultSet) OnStopped()             {}
func (s *ResultSet) OnFinished()            {}
func (s *ResultSet) OnStatusChanged(string) {}

// Len returns the number of measured pitches.
func (s *ResultSet) Len() int { return len(s.byPitch) }

// Get returns the result for a MIDI pitch.
func (s *ResultSet) Get(midiPitch int) (MeasurementResult, bool) {
	r, ok := s.byPitch[midiPitch]
	return r, ok
}

// Results returns all results ordered by MIDI pitch.
func (s *ResultSet) Results() []MeasurementResult {
	out := make([]MeasurementResult, 0, len(s.byPitch))
	for _, r := range s.byPitch {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MidiPitch < out[j].MidiPitch })
	return out
}

// Summary condenses a sweep.
type Summary struct {
	Count              int
	MaxAbsOffset       float64 // semitones
	MeanPitchDeviation float64 // semitones
}

// Summary returns the largest absolute pitch offset and the mean pitch deviation.
func (s *ResultSet) Summary() Summary {
	sum := Summary{Count: len(s.byPitch)}
	if sum.Count == 0 {
		return sum
	}
	var dev float64
	for _, r := range s.byPitch {
		sum.MaxAbsOffset = math.Max(sum.MaxAbsOffset, math.Abs(r.PitchOffset))
		dev += r.PitchDeviation
	}
	sum.MeanPitchDeviation = dev / float64(sum.Count)
	return sum
}
