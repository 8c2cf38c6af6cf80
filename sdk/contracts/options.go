package contracts

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
	PortName   string // Name of the output port created on the client.
}

// AudioConfig holds capture settings for the audio backend.
type AudioConfig struct {
	SampleRate   uint32 // Requested sample rate; 0 lets the device choose.
	PeriodFrames uint32 // Requested block size in frames; 0 uses the driver default.
}

// ClientOptions defines the configuration options for the MIDI and audio clients.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
	AudioConfig    *AudioConfig    // Configuration specific to audio capture.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs the client's log output to a file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithAudioConfig sets the capture configuration for the audio client.
func WithAudioConfig(config AudioConfig) Option {
	return func(opts *ClientOptions) {
		opts.AudioConfig = &config
	}
}
