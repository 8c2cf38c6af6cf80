package tuner

import (
	"errors"
	"fmt"
	"time"
)

// Measurement errors. Every one of them ends the run; none is retried.
var (
	ErrHighJitter = errors.New("There are zero crossings in the incoming signal but they don't seem to be coming in at a constant rate. " +
		"Are you sure you're recording on the correct channel? Please use only primitive waveforms (saw, square, triangle, sine, ...) " +
		"without any other processing such as delays, reverbs, etc. This error typically appears when you are accidentally recording " +
		"the signal from a microphone or another sound source, or when you have dropouts (clicks and pops) in your audio.")
	ErrHighJitterTimeout = fmt.Errorf("Timeout. %w", ErrHighJitter)
	ErrNoZeroCrossings   = errors.New("The incoming audio signal does not seem to contain any zero-crossings. " +
		"Are you sure the oscillator signal is getting through? Check your audio device settings.")
	ErrStableTimeout = errors.New("There are zero crossings in the incoming signal and they seem to come in at a constant rate, " +
		"but they are coming in much slower than they should be. Are you recording from the right oscillator?")
	ErrNoFrequencyChange = errors.New("Apparently the frequency of the oscillator is not changing between measurements. " +
		"Please check that your MIDI-to-CV interface is set to the correct MIDI channel and that it is the selected MIDI output device.")
	ErrNoMidiDevice       = errors.New("You don't have a MIDI output device selected or the selected device is not available.")
	ErrAudioDeviceStopped = errors.New("The audio device was stopped while the measurement was still running. " +
		"Please check that the device is still powered, all cables are connected and the driver is working correctly.")
)

// Configuration errors returned by the setters.
var (
	ErrInvalidRange      = errors.New("invalid measurement range")
	ErrInvalidResolution = errors.New("resolution must be at least one cycle per note")
	ErrInvalidChannel    = errors.New("MIDI channel must be within 1-16")
	ErrInvalidPitch      = errors.New("MIDI pitch must be within 0-127")
	ErrCommandQueueFull  = errors.New("tuner command queue full")
)

// ErrorRecord is a queued measurement error. Use errors.Is against the
// sentinels above to classify it.
type ErrorRecord struct {
	Err       error
	State     State  // state in which the error occurred
	Pitch     int    // MIDI pitch being measured, -1 if none
	Detail    string // optional context, e.g. the driver error
	Timestamp time.Time
}

func (r ErrorRecord) Error() string {
	if r.Detail == "" {
		return r.Err.Error()
	}
	return r.Err.Error() + " (" + r.Detail + ")"
}

func (r ErrorRecord) Unwrap() error { return r.Err }
