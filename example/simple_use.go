// Command simple_use measures a VCO through a MIDI-to-CV interface and a
// line input and prints the pitch it produces for every note of a sweep.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/vcotuner/internal/logger"
	"github.com/leandrodaf/vcotuner/sdk/audio"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"github.com/leandrodaf/vcotuner/sdk/midi"
	"github.com/leandrodaf/vcotuner/sdk/tuner"
	"go.uber.org/multierr"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		midiIndex  = flag.Int("midi", 0, "MIDI output device index")
		audioIndex = flag.Int("audio", 0, "audio capture device index")
		channel    = flag.Uint("channel", 1, "MIDI channel of the CV interface (1-16)")
		regime     = flag.String("regime", "large > normal", "measurement range preset")
		resolution = flag.Int("resolution", 50, "stable cycles measured per note")
		mode       = flag.String("mode", "sweep", "sweep, continuous or single")
		note       = flag.Int("pitch", 69, "MIDI note for continuous and single measurements")
		cycle      = flag.Bool("cycle", false, "repeat the sweep until interrupted")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
		list       = flag.Bool("list", false, "list the devices and exit")
	)
	flag.Parse()

	log := logger.NewDevelopmentLogger()
	defer log.Sync()
	level, ok := contracts.ParseLogLevel(*logLevel)
	if !ok {
		log.Error("Unknown log level", log.Field().String("level", *logLevel))
		return 2
	}
	log.SetLevel(level)

	out, err := midi.NewMIDIOutput(contracts.WithLogger(log), contracts.WithLogLevel(level))
	if err != nil {
		log.Error("Failed to initialize MIDI output", log.Field().Error("error", err))
		return 1
	}
	in, err := audio.NewAudioInput(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithAudioConfig(contracts.AudioConfig{SampleRate: 48000, PeriodFrames: 480}),
	)
	if err != nil {
		log.Error("Failed to initialize audio input", log.Field().Error("error", err))
		_ = out.Close()
		return 1
	}
	defer func() {
		if err := multierr.Combine(in.Close(), out.Close()); err != nil {
			log.Warn("Failed to close devices", log.Field().Error("error", err))
		}
	}()

	if *list {
		return listDevices(log, out, in)
	}

	r, ok := tuner.LookupRegime(*regime)
	if !ok {
		log.Error("Unknown regime", log.Field().String("regime", *regime))
		return 2
	}
	if err := out.SelectDevice(*midiIndex); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return 1
	}
	if err := in.SelectDevice(*audioIndex); err != nil {
		log.Error("Failed to select audio device", log.Field().Error("error", err))
		return 1
	}

	midiChannel, err := parseChannel(*channel)
	if err != nil {
		log.Error("Invalid MIDI channel", log.Field().Error("error", err))
		return 2
	}

	var tu *tuner.Tuner
	watcher := midi.NewWatcher(out, log, midi.DefaultRescanInterval, func([]contracts.DeviceInfo) {
		tu.DeviceChanged()
	})
	tu, err = tuner.New(out,
		tuner.WithLogger(log),
		tuner.WithLogLevel(level),
		tuner.WithMeasurementRange(r.Range),
		tuner.WithResolution(*resolution),
		tuner.WithMidiChannel(midiChannel),
		tuner.WithCycle(*cycle),
		tuner.WithTickHook(watcher.Tick),
	)
	if err != nil {
		log.Error("Invalid tuner configuration", log.Field().Error("error", err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rep := &reporter{tuner: tu, log: log, cancel: cancel, cycle: *cycle, results: tuner.NewResultSet()}
	tu.AddListener(rep.results)
	tu.AddListener(rep)

	if err := in.Start(tu); err != nil {
		log.Error("Failed to start audio capture", log.Field().Error("error", err))
		return 1
	}
	defer func() {
		if err := in.Stop(); err != nil {
			log.Warn("Failed to stop audio capture", log.Field().Error("error", err))
		}
	}()

	switch *mode {
	case "sweep":
		tu.Start()
	case "continuous":
		err = tu.StartContinuousMeasurement(*note)
	case "single":
		err = tu.StartSingleMeasurement(*note)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Error("Failed to start measurement", log.Field().Error("error", err))
		return 2
	}

	fmt.Println("Measuring... Press Ctrl+C to stop.")
	_ = tu.Run(ctx)
	rep.printSummary()
	return rep.exitCode
}

// parseChannel range checks the flag value before it is narrowed to a MIDI channel.
func parseChannel(channel uint) (uint8, error) {
	if channel < 1 || channel > 16 {
		return 0, fmt.Errorf("%w: got %d", tuner.ErrInvalidChannel, channel)
	}
	return uint8(channel), nil
}

func listDevices(log contracts.Logger, out contracts.MIDIOutput, in contracts.AudioInput) int {
	outs, err := out.ListDevices()
	if err != nil {
		log.Error("Failed to list MIDI outputs", log.Field().Error("error", err))
		return 1
	}
	ins, err := in.ListDevices()
	if err != nil {
		log.Error("Failed to list audio inputs", log.Field().Error("error", err))
		return 1
	}
	fmt.Println("MIDI outputs:")
	for i, d := range outs {
		fmt.Printf("  %d: %s\n", i, d.Name)
	}
	fmt.Println("Audio inputs:")
	for i, d := range ins {
		fmt.Printf("  %d: %s\n", i, d.Name)
	}
	fmt.Println("Regimes:")
	for _, r := range tuner.Regimes {
		fmt.Printf("  %-16s %d-%d step %d\n", r.Name, r.Range.LowestPitch, r.Range.HighestPitch, r.Range.PitchIncrement)
	}
	return 0
}

// reporter prints results as they arrive. It runs on the tuner's goroutine,
// so it may call back into the tuner.
type reporter struct {
	tuner    *tuner.Tuner
	log      contracts.Logger
	cancel   context.CancelFunc
	cycle    bool
	results  *tuner.ResultSet
	exitCode int
}

func (r *reporter) OnMeasurement(m tuner.MeasurementResult) {
	fmt.Printf("%-10s note %3d  %9.3f Hz  %+8.2f cents  jitter %6.2f cents  (%d periods)\n",
		m.Mode, m.MidiPitch, m.Frequency, m.OffsetCents(), 100*m.PitchDeviation, m.NumMeasurements)
}

func (r *reporter) OnStarted() {}

func (r *reporter) OnStopped() {
	for _, rec := range r.tuner.DrainErrors() {
		fmt.Fprintf(os.Stderr, "Measurement failed at note %d (%v): %v\n", rec.Pitch, rec.State, rec)
		r.exitCode = 1
	}
	r.cancel()
}

func (r *reporter) OnFinished() {
	if m, ok := r.tuner.LatestSingle(); ok && m.Mode == tuner.ModeSingle {
		if drift, ok := r.tuner.ReferenceDrift(); ok {
			fmt.Printf("Reference drift: %+.2f cents\n", drift)
		}
	}
	if !r.cycle {
		r.cancel()
	}
}

func (r *reporter) OnStatusChanged(status string) {
	r.log.Info(status)
}

func (r *reporter) printSummary() {
	s := r.results.Summary()
	if s.Count == 0 {
		return
	}
	fmt.Printf("%d notes, max offset %.2f cents, mean jitter %.2f cents\n",
		s.Count, 100*s.MaxAbsOffset, 100*s.MeanPitchDeviation)
}
