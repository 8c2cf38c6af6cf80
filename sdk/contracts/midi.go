package contracts

import "errors"

// MIDICommand is the status nibble of a channel voice message.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

const (
	// MinChannel and MaxChannel bound the user facing MIDI channel numbers.
	MinChannel = 1
	MaxChannel = 16
	// MaxNote is the highest valid MIDI note number.
	MaxNote = 127
)

var (
	// ErrNoDeviceSelected is returned when a note is sent before SelectDevice succeeded.
	ErrNoDeviceSelected = errors.New("no MIDI output device selected")
	// ErrDeviceUnavailable is returned when the selected device went away.
	ErrDeviceUnavailable = errors.New("MIDI output device unavailable")
	// ErrInvalidDevice is returned for an out of range device index.
	ErrInvalidDevice = errors.New("invalid MIDI device")
	// ErrUnsupportedPlatform is returned by the placeholder backends.
	ErrUnsupportedPlatform = errors.New("MIDI functionality is not available on this platform")
)

// MIDIOutput sends note messages to a MIDI-to-CV interface.
// Implementations must not block on the driver; NoteOn and NoteOff are
// called from the measurement control loop.
type MIDIOutput interface {
	ListDevices() ([]DeviceInfo, error) // Lists all available MIDI output destinations.
	SelectDevice(deviceID int) error    // Selects the destination used by NoteOn and NoteOff.
	NoteOn(channel, note, velocity uint8) error
	NoteOff(channel, note uint8) error
	Close() error // Releases the destination and the driver.
}
