package midi

import (
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// NewMIDIOutput creates a MIDI output with the specified options.
// It applies default options and initializes the platform backend.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.MIDIOutput: An instance of the MIDI output.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIOutput(opts ...contracts.Option) (contracts.MIDIOutput, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(&options)
	if err != nil {
		return nil, err
	}

	return client, nil
}
