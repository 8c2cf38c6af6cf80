//go:build !windows
// +build !windows

package midiwindows

import (
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI client for non-Windows systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	options.Logger.Info("Using dummy MIDI client for non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

// ListDevices reports that MIDI functionality is unavailable on this platform.
func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, contracts.ErrUnsupportedPlatform
}

// SelectDevice reports that MIDI functionality is unavailable on this platform.
func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return contracts.ErrUnsupportedPlatform
}

func (m *dummyMIDIClient) NoteOn(channel, note, velocity uint8) error {
	return contracts.ErrNoDeviceSelected
}

func (m *dummyMIDIClient) NoteOff(channel, note uint8) error {
	return contracts.ErrNoDeviceSelected
}

func (m *dummyMIDIClient) Close() error {
	return nil
}
