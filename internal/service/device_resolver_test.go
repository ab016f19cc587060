package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// fakeLister is a DeviceLister with a fixed device table.
type fakeLister struct {
	devices       []domain.DeviceInfo
	input, output int // indexes, -1 for none
	listErr       error
}

func (f *fakeLister) Devices() ([]domain.DeviceInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeLister) DefaultInputDevice() (domain.DeviceInfo, error) {
	if f.input < 0 {
		return domain.DeviceInfo{}, domain.ErrNoDevice
	}
	return f.devices[f.input], nil
}

func (f *fakeLister) DefaultOutputDevice() (domain.DeviceInfo, error) {
	if f.output < 0 {
		return domain.DeviceInfo{}, domain.ErrNoDevice
	}
	return f.devices[f.output], nil
}

func loopback(name string) domain.DeviceInfo {
	return domain.DeviceInfo{Name: name, InputChannels: 2, IsLoopback: true}
}

func input(name string) domain.DeviceInfo {
	return domain.DeviceInfo{Name: name, InputChannels: 1}
}

func output(name string) domain.DeviceInfo {
	return domain.DeviceInfo{Name: name, OutputChannels: 2}
}

func TestSelectLoopback_PrefersOutputMatch(t *testing.T) {
	devices := []domain.DeviceInfo{
		loopback("Microphone Array"),
		loopback("Speakers (Realtek)"),
	}

	device, ok := SelectLoopback(devices, "Speakers (Realtek)")

	require.True(t, ok)
	assert.Equal(t, "Speakers (Realtek)", device.Name)
}

func TestSelectLoopback_SubstringEitherDirection(t *testing.T) {
	devices := []domain.DeviceInfo{
		loopback("Stereo Mix"),
		loopback("Speakers (Realtek) [Loopback]"),
	}

	device, ok := SelectLoopback(devices, "Speakers (Realtek)")
	require.True(t, ok)
	assert.Equal(t, "Speakers (Realtek) [Loopback]", device.Name, "loopback name contains output name")

	devices = []domain.DeviceInfo{
		loopback("Stereo Mix"),
		loopback("Speakers"),
	}
	device, ok = SelectLoopback(devices, "Speakers (Realtek)")
	require.True(t, ok)
	assert.Equal(t, "Speakers", device.Name, "output name contains loopback name")
}

func TestSelectLoopback_FallsBackToFirstLoopback(t *testing.T) {
	devices := []domain.DeviceInfo{
		input("Microphone"),
		loopback("Stereo Mix"),
		loopback("Monitor of HDMI"),
	}

	device, ok := SelectLoopback(devices, "Headphones (USB)")

	require.True(t, ok)
	assert.Equal(t, "Stereo Mix", device.Name)
}

func TestSelectLoopback_IgnoresNonLoopbackMatches(t *testing.T) {
	devices := []domain.DeviceInfo{
		output("Speakers (Realtek)"),
		loopback("Stereo Mix"),
	}

	device, ok := SelectLoopback(devices, "Speakers (Realtek)")

	require.True(t, ok)
	assert.Equal(t, "Stereo Mix", device.Name)
}

func TestSelectLoopback_NoLoopbackDevices(t *testing.T) {
	devices := []domain.DeviceInfo{input("Microphone"), output("Speakers")}

	_, ok := SelectLoopback(devices, "Speakers")
	assert.False(t, ok)

	_, ok = SelectLoopback(nil, "")
	assert.False(t, ok)
}

func TestLoopbackResolver(t *testing.T) {
	lister := &fakeLister{
		devices: []domain.DeviceInfo{
			output("Speakers (Realtek)"),
			loopback("Speakers (Realtek)"),
			loopback("Microphone Array"),
		},
		input:  -1,
		output: 0,
	}
	r := NewLoopbackResolver(lister)

	device, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ModeLoopback, r.Mode())
	assert.Equal(t, "Speakers (Realtek)", device.Name)
	assert.True(t, device.IsLoopback)
}

func TestLoopbackResolver_NoDefaultOutputStillUsesFirstLoopback(t *testing.T) {
	lister := &fakeLister{
		devices: []domain.DeviceInfo{input("Mic"), loopback("BlackHole 2ch")},
		input:   0,
		output:  -1,
	}

	device, err := NewLoopbackResolver(lister).Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "BlackHole 2ch", device.Name)
}

func TestLoopbackResolver_FailsWithoutLoopbackDevices(t *testing.T) {
	lister := &fakeLister{
		devices: []domain.DeviceInfo{input("Built-in Microphone"), output("Built-in Output")},
		input:   0,
		output:  1,
	}

	_, err := NewLoopbackResolver(lister).Resolve(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDevice)

	var resErr *domain.DeviceResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, domain.ModeLoopback, resErr.Mode)
	assert.Len(t, resErr.Available, 2)
	assert.Contains(t, err.Error(), "Built-in Microphone (loopback: false)")
	assert.Contains(t, err.Error(), "Built-in Output (loopback: false)")
}

func TestLoopbackResolver_EnumerationError(t *testing.T) {
	lister := &fakeLister{listErr: errors.New("host api gone"), input: -1, output: -1}

	_, err := NewLoopbackResolver(lister).Resolve(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoDevice)
	assert.Contains(t, err.Error(), "host api gone")
}

func TestMicrophoneResolver(t *testing.T) {
	lister := &fakeLister{
		devices: []domain.DeviceInfo{output("Speakers"), input("USB Mic")},
		input:   1,
		output:  0,
	}
	r := NewMicrophoneResolver(lister)

	device, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ModeMicrophone, r.Mode())
	assert.Equal(t, "USB Mic", device.Name)
}

func TestMicrophoneResolver_NoDefaultInput(t *testing.T) {
	lister := &fakeLister{devices: []domain.DeviceInfo{output("Speakers")}, input: -1, output: 0}

	_, err := NewMicrophoneResolver(lister).Resolve(context.Background())

	var resErr *domain.DeviceResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.ErrorIs(t, err, domain.ErrNoDevice)
	assert.Len(t, resErr.Available, 1)
}

func TestMicrophoneResolver_DefaultCannotCapture(t *testing.T) {
	lister := &fakeLister{devices: []domain.DeviceInfo{output("Speakers")}, input: 0, output: 0}

	_, err := NewMicrophoneResolver(lister).Resolve(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoDevice)
}

func TestResolver_CancelledContext(t *testing.T) {
	lister := &fakeLister{devices: []domain.DeviceInfo{input("Mic")}, input: 0, output: -1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMicrophoneResolver(lister).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewLoopbackResolver(lister).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewNamedResolver(domain.ModeMicrophone, "Mic", lister).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectByName(t *testing.T) {
	devices := []domain.DeviceInfo{
		input("BlackHole 16ch"),
		loopback("BlackHole 2ch"),
		output("BlackHole 2ch Output"),
	}

	device, ok := SelectByName(devices, "BlackHole 2ch")
	require.True(t, ok)
	assert.Equal(t, "BlackHole 2ch", device.Name, "exact match wins over earlier substring match")

	device, ok = SelectByName(devices, "blackhole")
	require.True(t, ok)
	assert.Equal(t, "BlackHole 16ch", device.Name)

	_, ok = SelectByName(devices, "output")
	assert.False(t, ok, "output-only devices cannot be captured")

	_, ok = SelectByName(devices, "")
	assert.False(t, ok)
}

func TestNewDeviceResolver(t *testing.T) {
	lister := &fakeLister{
		devices: []domain.DeviceInfo{
			input("Microphone Array"),
			output("Speakers (Realtek)"),
			loopback("Speakers (Realtek) [Loopback]"),
			input("USB Interface"),
		},
		input:  0,
		output: 1,
	}
	ctx := context.Background()

	t.Run("microphone", func(t *testing.T) {
		r := NewDeviceResolver(domain.ModeMicrophone, "", lister)
		device, err := r.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Microphone Array", device.Name)
	})

	t.Run("loopback", func(t *testing.T) {
		r := NewDeviceResolver(domain.ModeLoopback, "", lister)
		device, err := r.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Speakers (Realtek) [Loopback]", device.Name)
	})

	t.Run("preferred name wins", func(t *testing.T) {
		r := NewDeviceResolver(domain.ModeMicrophone, "usb", lister)
		device, err := r.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeMicrophone, r.Mode())
		assert.Equal(t, "USB Interface", device.Name)
	})

	t.Run("unknown preferred name falls back to mode", func(t *testing.T) {
		r := NewDeviceResolver(domain.ModeLoopback, "Focusrite", lister)
		device, err := r.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeLoopback, r.Mode())
		assert.Equal(t, "Speakers (Realtek) [Loopback]", device.Name)
	})
}
