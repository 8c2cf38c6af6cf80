package contracts

// DeviceInfo describes a MIDI output destination or an audio capture device.
type DeviceInfo struct {
	ID           int    // Index accepted by SelectDevice.
	Name         string // Device name.
	Manufacturer string // Device manufacturer, if the backend reports one.
	EntityName   string // Name of the entity to which the device belongs.
}
