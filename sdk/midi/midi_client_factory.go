package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/vcotuner/internal/midi/mididarwin"
	"github.com/leandrodaf/vcotuner/internal/midi/midirtmidi"
	"github.com/leandrodaf/vcotuner/internal/midi/midiwindows"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI output initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.MIDIOutput, error){
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI.
	"windows": midiwindows.NewMIDIClient, // winmm.
	"linux":   midirtmidi.NewMIDIClient,  // rtmidi over ALSA.
}

// NewClient initializes a MIDI output for the current operating system.
//
// Returns ErrUnsupportedOS if there is no backend for runtime.GOOS.
func NewClient(opts *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	if initializer, exists := clientInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
