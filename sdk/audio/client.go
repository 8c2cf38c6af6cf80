// Package audio creates the capture device that feeds the tuner.
package audio

import (
	"github.com/leandrodaf/vcotuner/internal/audio/miniaudio"
	"github.com/leandrodaf/vcotuner/internal/logger"
	"github.com/leandrodaf/vcotuner/sdk/contracts"
)

// NewAudioInput creates a capture client with the specified options.
func NewAudioInput(opts ...contracts.Option) (contracts.AudioInput, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.AudioConfig == nil {
		options.AudioConfig = &contracts.AudioConfig{SampleRate: 48000}
	}
	options.Logger.SetLevel(options.LogLevel)

	capture, err := miniaudio.NewCapture(options)
	if err != nil {
		return nil, err
	}
	return capture, nil
}
