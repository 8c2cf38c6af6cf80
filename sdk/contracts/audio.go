package contracts

import "errors"

// ErrAudioNotRunning is returned by Stop when no stream was started.
var ErrAudioNotRunning = errors.New("audio stream is not running")

// AudioCallback receives a single channel of captured samples.
//
// AudioBlock runs on the driver's real-time thread and must not block,
// allocate or lock. AudioAboutToStart and AudioStopped are called while no
// AudioBlock call is in flight.
type AudioCallback interface {
	AudioAboutToStart(sampleRate float64)
	AudioBlock(samples []float32)
	AudioStopped()
}

// AudioInput is a capture device delivering blocks to an AudioCallback.
type AudioInput interface {
	ListDevices() ([]DeviceInfo, error)
	SelectDevice(deviceID int) error
	Start(cb AudioCallback) error
	Stop() error
	SampleRate() float64
	Close() error
}
