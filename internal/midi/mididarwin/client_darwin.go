//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/vcotuner/internal/midi/wire"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"github.com/youpy/go-coremidi"
	"gitlab.com/gomidi/midi/v2"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices     = errors.New("no MIDI destinations found")
	ErrCreateOutputPort  = errors.New("error creating output port")
	ErrSendMIDIPacket    = errors.New("error sending MIDI packet")
	ErrDestinationLookup = errors.New("error listing MIDI destinations")
)

// ClientMid sends note messages through CoreMIDI on Darwin (macOS) systems.
type ClientMid struct {
	logger         contracts.Logger
	client         coremidi.Client           // CoreMIDI client instance for MIDI operations.
	outputPort     coremidi.OutputPort       // Output port used for every send.
	destination    *coremidi.Destination     // Selected destination; nil until SelectDevice succeeds.
	coreMIDIConfig *contracts.CoreMIDIConfig // Configuration for MIDI client.
	mu             sync.Mutex                // Guards destination.
	closeOnce      sync.Once
}

// NewMIDIClient initializes a CoreMIDI client with a single output port.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(client, options.CoreMIDIConfig.PortName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	options.Logger.Info("MIDI client successfully created")

	return &ClientMid{
		logger:         options.Logger,
		client:         client,
		outputPort:     port,
		coreMIDIConfig: options.CoreMIDIConfig,
	}, nil
}

// ListDevices retrieves and returns available MIDI destinations.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDestinationLookup, err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, d := range destinations {
		// Destinations expose no entity, so the endpoint name stands in for it.
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         d.Name(),
			EntityName:   d.Name(),
			Manufacturer: d.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice selects the destination that receives note messages.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationLookup, err)
	}
	if deviceID < 0 || deviceID >= len(destinations) {
		m.logger.Error(contracts.ErrInvalidDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return contracts.ErrInvalidDevice
	}

	dest := destinations[deviceID]
	m.destination = &dest
	m.logger.Info("MIDI destination selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", dest.Name()))
	return nil
}

// NoteOn sends a note-on message to the selected destination.
func (m *ClientMid) NoteOn(channel, note, velocity uint8) error {
	msg, err := wire.NoteOn(channel, note, velocity)
	if err != nil {
		return err
	}
	return m.send(msg)
}

// NoteOff sends a note-off message to the selected destination.
func (m *ClientMid) NoteOff(channel, note uint8) error {
	msg, err := wire.NoteOff(channel, note)
	if err != nil {
		return err
	}
	return m.send(msg)
}

func (m *ClientMid) send(msg midi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destination == nil {
		return contracts.ErrNoDeviceSelected
	}
	packet := coremidi.NewPacket(msg.Bytes(), 0)
	if err := packet.Send(&m.outputPort, m.destination); err != nil {
		m.logger.Error(ErrSendMIDIPacket.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %w: %v", contracts.ErrDeviceUnavailable, ErrSendMIDIPacket, err)
	}
	return nil
}

// Close forgets the destination. CoreMIDI releases the client with the process.
func (m *ClientMid) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.destination = nil
		m.logger.Info("MIDI output closed")
	})
	return nil
}
