package tuner

import (
	"fmt"

	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// AutoReferencePitch selects the midpoint of the measurement range as the
// reference pitch.
const AutoReferencePitch = -1

// DefaultVelocity is the note-on velocity used for every measurement note.
const DefaultVelocity = 100

// MeasurementRange is the inclusive sweep from LowestPitch to HighestPitch.
type MeasurementRange struct {
	LowestPitch    int
	PitchIncrement int
	HighestPitch   int
}

// Validate checks the range against the MIDI note space.
func (r MeasurementRange) Validate() error {
	switch {
	case r.LowestPitch < 0 || r.HighestPitch > contracts.MaxNote:
		return fmt.Errorf("%w: pitches %d-%d outside 0-%d", ErrInvalidRange, r.LowestPitch, r.HighestPitch, contracts.MaxNote)
	case r.LowestPitch > r.HighestPitch:
		return fmt.Errorf("%w: lowest pitch %d above highest pitch %d", ErrInvalidRange, r.LowestPitch, r.HighestPitch)
	case r.PitchIncrement < 1:
		return fmt.Errorf("%w: increment %d", ErrInvalidRange, r.PitchIncrement)
	}
	return nil
}

// Midpoint is the default reference pitch.
func (r MeasurementRange) Midpoint() int { return (r.LowestPitch + r.HighestPitch) / 2 }

// Pitches lists the sweep steps.
func (r MeasurementRange) Pitches() []int {
	var out []int
	for p := r.LowestPitch; p <= r.HighestPitch; p += r.PitchIncrement {
		out = append(out, p)
	}
	return out
}

// Config is the part of the tuner configuration that is latched at run start.
type Config struct {
	Range          MeasurementRange
	Resolution     int   // stable periods per measurement
	MidiChannel    uint8 // 1-16
	ReferencePitch int   // AutoReferencePitch or 0-127
	Velocity       uint8
}

// DefaultConfig measures the "large, normal" regime at 50 cycles per note on channel 1.
func DefaultConfig() Config {
	return Config{
		Range:          MeasurementRange{LowestPitch: 36, PitchIncrement: 6, HighestPitch: 84},
		Resolution:     50,
		MidiChannel:    1,
		ReferencePitch: AutoReferencePitch,
		Velocity:       DefaultVelocity,
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return err
	}
	if err := validateResolution(c.Resolution); err != nil {
		return err
	}
	if err := validateChannel(c.MidiChannel); err != nil {
		return err
	}
	if c.Velocity > 127 {
		return fmt.Errorf("velocity %d outside 1-127", c.Velocity)
	}
	if c.ReferencePitch != AutoReferencePitch {
		return validatePitch(c.ReferencePitch)
	}
	return nil
}

// referencePitch resolves AutoReferencePitch.
func (c Config) referencePitch() int {
	if c.ReferencePitch == AutoReferencePitch {
		return c.Range.Midpoint()
	}
	return c.ReferencePitch
}

func validateResolution(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, n)
	}
	return nil
}

func validateChannel(ch uint8) error {
	if ch < contracts.MinChannel || ch > contracts.MaxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return nil
}

func validatePitch(p int) error {
	if p < 0 || p > contracts.MaxNote {
		return fmt.Errorf("%w: %d", ErrInvalidPitch, p)
	}
	return nil
}
