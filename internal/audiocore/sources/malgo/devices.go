// Package malgo discovers playback devices through miniaudio.
//
// The spatial backends open devices by name; this package lists what the
// system offers so a configured name can be checked before the backend is
// opened.
package malgo

import (
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/soundpool/internal/errors"
)

// ComponentMalgo identifies device discovery errors
const ComponentMalgo = "malgo"

// discardDeviceName is the null device miniaudio lists on some platforms
const discardDeviceName = "Discard all samples"

// PlaybackDevice describes one output device.
type PlaybackDevice struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// getBackendForPlatform returns the miniaudio backend for the current platform
func getBackendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.New(nil).
			Component(ComponentMalgo).
			Category(errors.CategoryAudioDevice).
			Context("error", "unsupported operating system").
			Context("os", runtime.GOOS).
			Build()
	}
}

// withContext runs fn with an initialized miniaudio context
func withContext(fn func(ctx *malgo.AllocatedContext) error) error {
	backend, err := getBackendForPlatform()
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(err).
			Component(ComponentMalgo).
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_context").
			Context("os", runtime.GOOS).
			Build()
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	return fn(ctx)
}

// EnumeratePlaybackDevices lists the playback devices of the platform backend.
func EnumeratePlaybackDevices() ([]PlaybackDevice, error) {
	var devices []PlaybackDevice
	err := withContext(func(ctx *malgo.AllocatedContext) error {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			return errors.New(err).
				Component(ComponentMalgo).
				Category(errors.CategoryAudioDevice).
				Context("operation", "enumerate_devices").
				Build()
		}
		devices = toPlaybackDevices(infos)
		return nil
	})
	return devices, err
}

func toPlaybackDevices(infos []malgo.DeviceInfo) []PlaybackDevice {
	devices := make([]PlaybackDevice, 0, len(infos))
	for i := range infos {
		if strings.Contains(infos[i].Name(), discardDeviceName) {
			continue
		}

		id, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			id = infos[i].ID.String()
		}

		devices = append(devices, PlaybackDevice{
			Index:     i,
			Name:      infos[i].Name(),
			ID:        id,
			IsDefault: infos[i].IsDefault == 1,
		})
	}
	return devices
}

// SelectDevice finds the device matching name. An empty name, "default" or
// "sysdefault" selects the system default, falling back to the first device.
// Otherwise an exact name wins over an ID match, which wins over a partial
// name match.
func SelectDevice(devices []PlaybackDevice, name string) (*PlaybackDevice, error) {
	if name == "" || name == "default" || name == "sysdefault" {
		if d := DefaultDevice(devices); d != nil {
			return d, nil
		}
	}

	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if devices[i].ID == name {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if name != "" && strings.Contains(devices[i].Name, name) {
			return &devices[i], nil
		}
	}

	return nil, errors.New(nil).
		Component(ComponentMalgo).
		Category(errors.CategoryNotFound).
		Context("device_name", name).
		Context("available_devices", len(devices)).
		Context("error", "no matching playback device found").
		Build()
}

// DefaultDevice returns the system default device, the first device when
// none is flagged, or nil for an empty list.
func DefaultDevice(devices []PlaybackDevice) *PlaybackDevice {
	for i := range devices {
		if devices[i].IsDefault {
			return &devices[i]
		}
	}
	if len(devices) > 0 {
		return &devices[0]
	}
	return nil
}

// HardwareDevices filters out plugin and virtual devices
func HardwareDevices(devices []PlaybackDevice) []PlaybackDevice {
	hardware := make([]PlaybackDevice, 0, len(devices))
	for _, d := range devices {
		if isHardwareDevice(d.ID) {
			hardware = append(hardware, d)
		}
	}
	return hardware
}

// ProbeDevice opens and starts the named playback device to verify it works.
func ProbeDevice(name string) error {
	return withContext(func(ctx *malgo.AllocatedContext) error {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			return errors.New(err).
				Component(ComponentMalgo).
				Category(errors.CategoryAudioDevice).
				Context("operation", "enumerate_devices").
				Build()
		}
		selected, err := SelectDevice(toPlaybackDevices(infos), name)
		if err != nil {
			return err
		}
		info := infos[selected.Index]

		config := malgo.DefaultDeviceConfig(malgo.Playback)
		config.Playback.Format = malgo.FormatS16
		config.Playback.Channels = 2
		config.Playback.DeviceID = info.ID.Pointer()
		config.SampleRate = 44100
		config.Alsa.NoMMap = 1

		device, err := malgo.InitDevice(ctx.Context, config, malgo.DeviceCallbacks{})
		if err != nil {
			return errors.New(err).
				Component(ComponentMalgo).
				Category(errors.CategoryAudioDevice).
				Context("device_name", selected.Name).
				Context("operation", "probe_init_device").
				Build()
		}
		defer device.Uninit()

		if err := device.Start(); err != nil {
			return errors.New(err).
				Component(ComponentMalgo).
				Category(errors.CategoryAudioDevice).
				Context("device_name", selected.Name).
				Context("operation", "probe_start_device").
				Build()
		}
		_ = device.Stop()
		return nil
	})
}

// hexToASCII converts a hexadecimal string to an ASCII string
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// isHardwareDevice checks if the device ID indicates a hardware device
func isHardwareDevice(decodedID string) bool {
	// ALSA hardware devices have IDs in the format ":X,Y"
	if runtime.GOOS == "linux" {
		return strings.Contains(decodedID, ":") && strings.Contains(decodedID, ",")
	}
	return true
}
