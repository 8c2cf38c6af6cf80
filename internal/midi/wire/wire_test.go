package wire

import (
	"errors"
	"testing"
)

func TestNoteOnBytes(t *testing.T) {
	msg, err := NoteOn(1, 69, 100)
	if err != nil {
		t.Fatalf("NoteOn() error = %v", err)
	}
	got := msg.Bytes()
	want := []byte{0x90, 69, 100}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestNoteOffUsesChannel(t *testing.T) {
	msg, err := NoteOff(16, 60)
	if err != nil {
		t.Fatalf("NoteOff() error = %v", err)
	}
	if status := msg.Bytes()[0]; status != 0x8F {
		t.Fatalf("status = %#x, want 0x8f", status)
	}
}

func TestRangeChecks(t *testing.T) {
	if _, err := NoteOn(0, 60, 100); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("channel 0: err = %v, want ErrInvalidChannel", err)
	}
	if _, err := NoteOn(17, 60, 100); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("channel 17: err = %v, want ErrInvalidChannel", err)
	}
	if _, err := NoteOff(1, 128); !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("note 128: err = %v, want ErrInvalidNote", err)
	}
	if _, err := NoteOn(1, 60, 200); !errors.Is(err, ErrInvalidVelocity) {
		t.Fatalf("velocity 200: err = %v, want ErrInvalidVelocity", err)
	}
}

func TestShortMessage(t *testing.T) {
	msg, err := NoteOn(2, 0x3C, 0x64)
	if err != nil {
		t.Fatalf("NoteOn() error = %v", err)
	}
	if got, want := ShortMessage(msg), uint32(0x643C91); got != want {
		t.Fatalf("ShortMessage() = %#x, want %#x", got, want)
	}
}
