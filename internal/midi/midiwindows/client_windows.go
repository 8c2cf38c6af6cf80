//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/vcotuner/internal/midi/wire"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIOUT windows.Handle

// CALLBACK_NULL opens the device without a status callback.
const CALLBACK_NULL = 0x00000000

// MMSYSERR_NODRIVER and friends signal that the device has gone away.
const (
	MMSYSERR_NOERROR     = 0
	MMSYSERR_BADDEVICEID = 2
	MMSYSERR_NODRIVER    = 6
	MIDIERR_NODEVICE     = 68
)

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

var ErrOpenDevice = errors.New("failed to open MIDI output device")

// ClientMid sends note messages through winmm.
type ClientMid struct {
	logger contracts.Logger
	handle HMIDIOUT
	open   bool
	mu     sync.Mutex
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// NewMIDIClient creates a MIDI output client for Windows
func NewMIDIClient(options *contracts.ClientOptions) (contracts.MIDIOutput, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &ClientMid{logger: options.Logger}, nil
}

// ListDevices lists the available MIDI output devices
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn("No MIDI output devices found")
		return nil, errors.New("no MIDI output devices found")
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != MMSYSERR_NOERROR {
			m.logger.Warn("Failed to get information for MIDI device", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			ID:           int(i),
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// SelectDevice opens a MIDI output device, closing any previously opened one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		if err := m.closeDevice(); err != nil {
			return fmt.Errorf("failed to close previous MIDI output: %w", err)
		}
	}

	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		0,
		0,
		CALLBACK_NULL,
	)
	if r1 != MMSYSERR_NOERROR {
		m.logger.Error(ErrOpenDevice.Error(), m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Error("error", err))
		if r1 == MMSYSERR_BADDEVICEID {
			return contracts.ErrInvalidDevice
		}
		return fmt.Errorf("%w %d: %v", ErrOpenDevice, deviceID, err)
	}

	m.open = true
	m.logger.Info("MIDI output device opened", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// NoteOn sends a note-on short message.
func (m *ClientMid) NoteOn(channel, note, velocity uint8) error {
	msg, err := wire.NoteOn(channel, note, velocity)
	if err != nil {
		return err
	}
	return m.send(msg)
}

// NoteOff sends a note-off short message.
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

	if !m.open {
		return contracts.ErrNoDeviceSelected
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(m.handle), uintptr(wire.ShortMessage(msg)))
	switch r1 {
	case MMSYSERR_NOERROR:
		return nil
	case MMSYSERR_NODRIVER, MIDIERR_NODEVICE:
		return contracts.ErrDeviceUnavailable
	default:
		return fmt.Errorf("midiOutShortMsg failed (0x%X): %v", r1, err)
	}
}

// Close resets and closes the output device.
func (m *ClientMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil
	}
	if err := m.closeDevice(); err != nil {
		return fmt.Errorf("failed to close MIDI output: %w", err)
	}
	m.logger.Info("MIDI output closed")
	return nil
}

// closeDevice silences all notes and releases the handle.
func (m *ClientMid) closeDevice() error {
	if m.handle == 0 {
		return fmt.Errorf("invalid MIDI device handle")
	}

	procMidiOutReset.Call(uintptr(m.handle))
	r1, _, err := procMidiOutClose.Call(uintptr(m.handle))
	if r1 != MMSYSERR_NOERROR {
		m.logger.Error("Failed to close MIDI device", m.logger.Field().Error("error", err))
		return err
	}

	m.open = false
	m.handle = 0
	return nil
}
