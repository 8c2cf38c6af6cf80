//go:build linux
// +build linux

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/vcotuner/internal/midi/wire"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ErrNoMIDIOutputs is returned when the ALSA sequencer exposes no output ports.
var ErrNoMIDIOutputs = errors.New("no MIDI outputs found")

// ClientMid sends note messages through rtmidi (ALSA) on Linux.
type ClientMid struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out
	send   func(midi.Message) error
	mu     sync.Mutex
}

// NewMIDIClient initializes the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("MIDI client created for Linux")
	return &ClientMid{logger: options.Logger, drv: drv}, nil
}

// ListDevices lists the available MIDI output ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	outs, err := m.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		m.logger.Warn(ErrNoMIDIOutputs.Error())
		return nil, ErrNoMIDIOutputs
	}
	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{ID: i, Name: out.String(), EntityName: out.String()}
	}
	return devices, nil
}

// SelectDevice opens an output port, closing the previous one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outs, err := m.drv.Outs()
	if err != nil {
		return fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		m.logger.Error(contracts.ErrInvalidDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return contracts.ErrInvalidDevice
	}
	m.closePort()

	out := outs[deviceID]
	if err := out.Open(); err != nil {
		return fmt.Errorf("open %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("send to %q: %w", out.String(), err)
	}
	m.out = out
	m.send = send
	m.logger.Info("MIDI output connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", out.String()))
	return nil
}

// NoteOn sends a note-on message.
func (m *ClientMid) NoteOn(channel, note, velocity uint8) error {
	msg, err := wire.NoteOn(channel, note, velocity)
	if err != nil {
		return err
	}
	return m.write(msg)
}

// NoteOff sends a note-off message.
func (m *ClientMid) NoteOff(channel, note uint8) error {
	msg, err := wire.NoteOff(channel, note)
	if err != nil {
		return err
	}
	return m.write(msg)
}

func (m *ClientMid) write(msg midi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.send == nil {
		return contracts.ErrNoDeviceSelected
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeviceUnavailable, err)
	}
	return nil
}

// Close closes the output port and the driver.
func (m *ClientMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closePort()
	if m.drv == nil {
		return nil
	}
	err := m.drv.Close()
	m.drv = nil
	m.logger.Info("MIDI output closed")
	return err
}

func (m *ClientMid) closePort() {
	if m.out != nil {
		if err := m.out.Close(); err != nil {
			m.logger.Warn("closing MIDI output failed", m.logger.Field().Error("error", err))
		}
		m.out = nil
	}
	m.send = nil
}
