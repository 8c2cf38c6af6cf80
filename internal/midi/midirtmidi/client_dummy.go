//go:build !linux
// +build !linux

package midirtmidi

import (
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI client for non-Linux systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	options.Logger.Info("Using dummy MIDI client for non-Linux system")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, contracts.ErrUnsupportedPlatform
}

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
