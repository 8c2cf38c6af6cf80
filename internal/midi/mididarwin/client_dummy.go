//go:build !darwin
// +build !darwin

package mididarwin

import (
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// DummyMIDIClient stands in for the CoreMIDI backend on other systems.
type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	options.Logger.Info("Using dummy MIDI client for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, contracts.ErrUnsupportedPlatform
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return contracts.ErrUnsupportedPlatform
}

func (m *DummyMIDIClient) NoteOn(channel, note, velocity uint8) error {
	return contracts.ErrNoDeviceSelected
}

func (m *DummyMIDIClient) NoteOff(channel, note uint8) error {
	return contracts.ErrNoDeviceSelected
}

func (m *DummyMIDIClient) Close() error {
	return nil
}
