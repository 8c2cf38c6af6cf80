package midi

import (
	"slices"
	"time"

	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// DefaultRescanInterval is how often a Watcher lists the MIDI outputs.
const DefaultRescanInterval = time.Second

// Watcher detects MIDI output hot-plug and hot-unplug by periodically listing the
// destinations of a MIDIOutput. onChange runs on the goroutine calling Tick.
type Watcher struct {
	out      contracts.MIDIOutput
	logger   contracts.Logger
	interval time.Duration
	onChange func(devices []contracts.DeviceInfo)

	names        []string
	scanned      bool
	lastRescanAt time.Time
}

// NewWatcher creates a watcher. A non-positive interval selects DefaultRescanInterval.
func NewWatcher(out contracts.MIDIOutput, logger contracts.Logger, interval time.Duration, onChange func([]contracts.DeviceInfo)) *Watcher {
	if interval <= 0 {
		interval = DefaultRescanInterval
	}
	return &Watcher{out: out, logger: logger, interval: interval, onChange: onChange}
}

// Tick rescans the device list if the rescan interval has passed since the last scan.
// The first scan only records the list.
func (w *Watcher) Tick(now time.Time) {
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < w.interval {
		return
	}
	w.lastRescanAt = now

	devices, err := w.out.ListDevices()
	if err != nil {
		w.logger.Debug("midi: list outputs failed", w.logger.Field().Error("error", err))
		devices = nil
	}
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}

	if !w.scanned {
		w.scanned = true
		w.names = names
		return
	}
	if slices.Equal(names, w.names) {
		return
	}
	w.logger.Warn("midi: output list changed",
		w.logger.Field().Int("before", len(w.names)),
		w.logger.Field().Int("after", len(names)))
	w.names = names
	if w.onChange != nil {
		w.onChange(devices)
	}
}
