package malgo

import (
	"encoding/hex"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/soundpool/internal/errors"
)

var testDevices = []PlaybackDevice{
	{Index: 0, Name: "HDMI Output", ID: ":0,3"},
	{Index: 1, Name: "USB Speakers", ID: ":1,0", IsDefault: true},
	{Index: 2, Name: "PulseAudio Sound Server", ID: "pulse"},
}

func TestSelectDevice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantIndex int
	}{
		{"empty selects default", "", 1},
		{"default alias", "default", 1},
		{"sysdefault alias", "sysdefault", 1},
		{"exact name", "HDMI Output", 0},
		{"decoded id", "pulse", 2},
		{"partial name", "Speakers", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := SelectDevice(testDevices, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, got.Index)
		})
	}
}

func TestSelectDeviceNotFound(t *testing.T) {
	t.Parallel()

	_, err := SelectDevice(testDevices, "Bluetooth")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = SelectDevice(nil, "")
	require.Error(t, err)
}

func TestDefaultDeviceFallsBackToFirst(t *testing.T) {
	t.Parallel()

	devices := []PlaybackDevice{{Index: 4, Name: "a"}, {Index: 5, Name: "b"}}
	assert.Equal(t, 4, DefaultDevice(devices).Index)
	assert.Nil(t, DefaultDevice(nil))
}

func TestHexToASCII(t *testing.T) {
	t.Parallel()

	got, err := hexToASCII(hex.EncodeToString([]byte(":0,3")))
	require.NoError(t, err)
	assert.Equal(t, ":0,3", got)

	_, err = hexToASCII("zz")
	require.Error(t, err)
}

func TestHardwareDevices(t *testing.T) {
	t.Parallel()

	hardware := HardwareDevices(testDevices)
	if runtime.GOOS == "linux" {
		require.Len(t, hardware, 2)
		assert.Equal(t, "HDMI Output", hardware[0].Name)
		return
	}
	assert.Len(t, hardware, len(testDevices))
}
