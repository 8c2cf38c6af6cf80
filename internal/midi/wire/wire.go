// Package wire encodes the channel voice messages the tuner sends.
package wire

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

var (
	ErrInvalidChannel  = errors.New("MIDI channel out of range")
	ErrInvalidNote     = errors.New("MIDI note out of range")
	ErrInvalidVelocity = errors.New("MIDI velocity out of range")
)

// NoteOn encodes a note-on for a user facing channel (1-16).
func NoteOn(channel, note, velocity uint8) (midi.Message, error) {
	if err := check(channel, note); err != nil {
		return nil, err
	}
	if velocity > 127 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVelocity, velocity)
	}
	return midi.NoteOn(channel-1, note, velocity), nil
}

// NoteOff encodes a note-off for a user facing channel (1-16).
func NoteOff(channel, note uint8) (midi.Message, error) {
	if err := check(channel, note); err != nil {
		return nil, err
	}
	return midi.NoteOff(channel-1, note), nil
}

// ShortMessage packs a three byte message into the little endian DWORD layout used by winmm.
func ShortMessage(msg midi.Message) uint32 {
	var v uint32
	for i, b := range msg.Bytes() {
		if i > 2 {
			break
		}
		v |= uint32(b) << (8 * i)
	}
	return v
}

func check(channel, note uint8) error {
	if channel < contracts.MinChannel || channel > contracts.MaxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	if note > contracts.MaxNote {
		return fmt.Errorf("%w: %d", ErrInvalidNote, note)
	}
	return nil
}
