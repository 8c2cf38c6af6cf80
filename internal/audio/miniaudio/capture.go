// Package miniaudio captures a single input channel through miniaudio (malgo).
package miniaudio

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"go.uber.org/multierr"
)

var (
	ErrNoCaptureDevices = errors.New("no audio capture devices found")
	ErrAlreadyRunning   = errors.New("audio stream already running")
)

// Capture implements contracts.AudioInput.
type Capture struct {
	logger contracts.Logger
	cfg    contracts.AudioConfig
	ctx    *malgo.AllocatedContext

	mu       sync.Mutex
	selected *malgo.DeviceInfo
	device   *malgo.Device
	rate     float64
}

// NewCapture initializes a miniaudio context.
func NewCapture(options *contracts.ClientOptions) (*Capture, error) {
	log := options.Logger
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("malgo", log.Field().String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("malgo init failed: %w", err)
	}
	c := &Capture{logger: log, ctx: ctx}
	if options.AudioConfig != nil {
		c.cfg = *options.AudioConfig
	}
	return c, nil
}

// ListDevices lists the capture devices.
func (c *Capture) ListDevices() ([]contracts.DeviceInfo, error) {
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("listing capture devices: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNoCaptureDevices
	}
	devices := make([]contracts.DeviceInfo, len(infos))
	for i, info := range infos {
		devices[i] = contracts.DeviceInfo{ID: i, Name: info.Name(), EntityName: info.Name()}
	}
	return devices, nil
}

// SelectDevice chooses the capture device used by the next Start.
func (c *Capture) SelectDevice(deviceID int) error {
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return fmt.Errorf("listing capture devices: %w", err)
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return fmt.Errorf("%w: audio device %d", contracts.ErrInvalidDevice, deviceID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	info := infos[deviceID]
	c.selected = &info
	c.logger.Info("audio capture device selected",
		c.logger.Field().Int("deviceID", deviceID),
		c.logger.Field().String("deviceName", info.Name()))
	return nil
}

// Start opens the selected (or default) capture device as 32 bit float mono and
// starts delivering blocks to cb.
func (c *Capture) Start(cb contracts.AudioCallback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return ErrAlreadyRunning
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = c.cfg.SampleRate
	config.PeriodSizeInFrames = c.cfg.PeriodFrames
	config.Alsa.NoMMap = 1
	if c.selected != nil {
		config.Capture.DeviceID = c.selected.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if len(input) < 4 {
				return
			}
			cb.AudioBlock(float32View(input, frameCount))
		},
		Stop: func() {
			cb.AudioStopped()
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	c.rate = float64(device.SampleRate())
	cb.AudioAboutToStart(c.rate)

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}
	c.device = device
	c.logger.Info("audio capture started", c.logger.Field().Float64("sampleRate", c.rate))
	return nil
}

// Stop stops and releases the running device.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return contracts.ErrAudioNotRunning
	}
	err := c.device.Stop()
	c.device.Uninit()
	c.device = nil
	c.logger.Info("audio capture stopped")
	return err
}

// SampleRate returns the rate reported by the device at the last Start.
func (c *Capture) SampleRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Close stops any running device and tears down the context.
func (c *Capture) Close() error {
	var stopErr error
	if err := c.Stop(); err != nil && !errors.Is(err, contracts.ErrAudioNotRunning) {
		stopErr = err
	}
	uninitErr := c.ctx.Uninit()
	c.ctx.Free()
	return multierr.Append(stopErr, uninitErr)
}

// float32View reinterprets the driver buffer without copying; the audio thread must not allocate.
func float32View(b []byte, frames uint32) []float32 {
	n := len(b) / 4
	if int(frames) < n {
		n = int(frames)
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n)
}
