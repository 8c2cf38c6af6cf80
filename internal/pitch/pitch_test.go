package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestPitchRoundTrip(t *testing.T) {
	const (
		refFreq  = 437.9
		refPitch = 66
	)
	for _, k := range []int{-24, -12, -7, -1, 0, 1, 5, 12, 30} {
		f := refFreq * math.Pow(2, float64(k)/12)
		got := FrequencyToPitch(f, refFreq, refPitch)
		if math.Abs(got-float64(refPitch+k)) > 1e-9 {
			t.Fatalf("k=%d: pitch = %v, want %d", k, got, refPitch+k)
		}
		back := PitchToFrequency(got, refFreq, refPitch)
		if math.Abs(back-f)/f > 1e-12 {
			t.Fatalf("k=%d: frequency = %v, want %v", k, back, f)
		}
	}
}

func TestMIDIFrequency(t *testing.T) {
	tests := []struct {
		note float64
		want float64
	}{
		{69, 440},
		{57, 220},
		{60, 261.6255653},
		{81, 880},
	}
	for _, tt := range tests {
		if got := MIDIFrequency(tt.note); math.Abs(got-tt.want) > 1e-6 {
			t.Fatalf("MIDIFrequency(%v) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestSummarizeConstantPeriods(t *testing.T) {
	s := NewSummarizer(16)
	periods := []float64{100, 100, 100, 100}
	got, err := s.Summarize(periods, 44000, 440, 69)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.Count != 4 || got.AveragePeriod != 100 {
		t.Fatalf("Summary = %+v", got)
	}
	if math.Abs(got.Frequency-440) > 1e-9 || math.Abs(got.Pitch-69) > 1e-9 {
		t.Fatalf("frequency/pitch = %v/%v, want 440/69", got.Frequency, got.Pitch)
	}
	if got.FrequencyDeviation > 1e-9 || got.PitchDeviation > 1e-9 {
		t.Fatalf("deviations = %v/%v, want 0", got.FrequencyDeviation, got.PitchDeviation)
	}
}

func TestSummarizeSampleDeviation(t *testing.T) {
	s := NewSummarizer(2)
	// per-period frequencies 400 and 500 Hz: sample std = sqrt(2*50^2/1)
	got, err := s.Summarize([]float64{100, 80}, 40000, 440, 69)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if want := 50 * math.Sqrt2; math.Abs(got.FrequencyDeviation-want) > 1e-9 {
		t.Fatalf("FrequencyDeviation = %v, want %v", got.FrequencyDeviation, want)
	}
	if want := 40000.0 / 90; math.Abs(got.Frequency-want) > 1e-9 {
		t.Fatalf("Frequency = %v, want %v (from the average period)", got.Frequency, want)
	}
	p1 := FrequencyToPitch(400, 440, 69)
	p2 := FrequencyToPitch(500, 440, 69)
	if want := math.Abs(p1-p2) / math.Sqrt2; math.Abs(got.PitchDeviation-want) > 1e-9 {
		t.Fatalf("PitchDeviation = %v, want %v", got.PitchDeviation, want)
	}
}

func TestSummarizeErrors(t *testing.T) {
	s := NewSummarizer(4)
	if _, err := s.Summarize([]float64{100}, 48000, 440, 69); !errors.Is(err, ErrTooFewPeriods) {
		t.Fatalf("one period: err = %v", err)
	}
	if _, err := s.Summarize([]float64{100, 100}, 0, 440, 69); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("zero rate: err = %v", err)
	}
	if _, err := s.Summarize([]float64{100, -1}, 48000, 440, 69); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("negative period: err = %v", err)
	}
	if _, err := s.Summarize([]float64{100, 100}, 48000, 0, 69); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("zero reference: err = %v", err)
	}
}

func TestCents(t *testing.T) {
	if got := Cents(-0.035); math.Abs(got+3.5) > 1e-12 {
		t.Fatalf("Cents(-0.035) = %v, want -3.5", got)
	}
}
