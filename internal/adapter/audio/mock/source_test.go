package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/goscope/internal/domain"
)

var testParams = domain.StreamParams{SampleRate: 44100, FramesPerBuffer: 256}

func newInitializedSource(t *testing.T) *Source {
	t.Helper()
	src := NewSource()
	require.NoError(t, src.Initialize())
	return src
}

// TestNewSource tests creating a new mock source.
func TestNewSource(t *testing.T) {
	src := NewSource()

	require.NotNil(t, src)
	assert.False(t, src.IsInitialized())
	assert.Equal(t, 0, src.OpenCount())
}

// TestInitialize tests source initialization and its failure modes.
func TestInitialize(t *testing.T) {
	src := NewSource()

	require.NoError(t, src.Initialize())
	assert.True(t, src.IsInitialized())

	err := src.Initialize()
	assert.True(t, errors.Is(err, domain.ErrAlreadyInitialized))
}

func TestInitializeFailure(t *testing.T) {
	src := NewSource()
	src.SetFailInitialize(true)

	err := src.Initialize()

	var srcErr *domain.AudioSourceError
	assert.True(t, errors.As(err, &srcErr))
	assert.False(t, src.IsInitialized())
}

// TestShutdown tests shutting down the source.
func TestShutdown(t *testing.T) {
	src := newInitializedSource(t)

	require.NoError(t, src.Shutdown())
	assert.False(t, src.IsInitialized())
	assert.ErrorIs(t, src.Shutdown(), domain.ErrNotInitialized)
}

func TestNotInitialized(t *testing.T) {
	src := NewSource()

	_, err := src.Devices()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = src.DefaultInputDevice()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = src.Open(DefaultDevices()[0], testParams)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestDevicesAndDefaults(t *testing.T) {
	src := newInitializedSource(t)

	devices, err := src.Devices()
	require.NoError(t, err)
	assert.Equal(t, DefaultDevices(), devices)

	in, err := src.DefaultInputDevice()
	require.NoError(t, err)
	assert.Equal(t, "Microphone Array (Realtek)", in.Name)

	out, err := src.DefaultOutputDevice()
	require.NoError(t, err)
	assert.Equal(t, "Speakers (Realtek)", out.Name)
}

func TestDevicesReturnsCopy(t *testing.T) {
	src := newInitializedSource(t)

	devices, _ := src.Devices()
	devices[0].Name = "changed"

	again, _ := src.Devices()
	assert.Equal(t, "Microphone Array (Realtek)", again[0].Name)
}

func TestNoDefaultDevice(t *testing.T) {
	src := newInitializedSource(t)
	src.SetDevices(DefaultDevices(), -1, -1)

	_, err := src.DefaultInputDevice()
	assert.ErrorIs(t, err, domain.ErrNoDevice)

	_, err = src.DefaultOutputDevice()
	assert.ErrorIs(t, err, domain.ErrNoDevice)
}

func TestOpenAndRead(t *testing.T) {
	src := newInitializedSource(t)
	src.SetGenerator(StereoGenerator(ConstantGenerator(0.25), ConstantGenerator(-0.5)))

	stream, err := src.Open(DefaultDevices()[2], testParams)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, 2, stream.Channels())

	block, err := stream.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, block, 2)
	require.Len(t, block[0], 256)
	assert.Equal(t, float32(0.25), block[0][10])
	assert.Equal(t, float32(-0.5), block[1][10])

	assert.Equal(t, 1, src.OpenCount())
	assert.Equal(t, 1, src.ReadCount())
}

func TestReadContinuesSignal(t *testing.T) {
	src := newInitializedSource(t)
	src.SetGenerator(RampGenerator(0.0001))

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Read(context.Background())
	require.NoError(t, err)
	last := first[0][255]

	second, err := stream.Read(context.Background())
	require.NoError(t, err)
	assert.Greater(t, second[0][0], last)
}

func TestOpenFailures(t *testing.T) {
	t.Run("injected", func(t *testing.T) {
		src := newInitializedSource(t)
		src.SetFailOpen(true)

		_, err := src.Open(DefaultDevices()[0], testParams)
		var srcErr *domain.AudioSourceError
		assert.True(t, errors.As(err, &srcErr))
	})

	t.Run("unknown device", func(t *testing.T) {
		src := newInitializedSource(t)

		_, err := src.Open(domain.DeviceInfo{ID: 42, Name: "Ghost", InputChannels: 1}, testParams)
		assert.ErrorIs(t, err, domain.ErrUnknownDevice)
	})

	t.Run("output only device", func(t *testing.T) {
		src := newInitializedSource(t)

		_, err := src.Open(DefaultDevices()[1], testParams)
		assert.Error(t, err)
	})

	t.Run("bad params", func(t *testing.T) {
		src := newInitializedSource(t)

		_, err := src.Open(DefaultDevices()[0], domain.StreamParams{SampleRate: 44100})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestFailReadAfter(t *testing.T) {
	src := newInitializedSource(t)
	src.SetFailReadAfter(2)

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)
	defer stream.Close()

	for i := 0; i < 2; i++ {
		_, err := stream.Read(context.Background())
		require.NoError(t, err)
	}

	_, err = stream.Read(context.Background())
	assert.Error(t, err)
}

func TestStallHonorsContext(t *testing.T) {
	src := newInitializedSource(t)
	src.SetStall(true)

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = stream.Read(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestReadDelay(t *testing.T) {
	src := newInitializedSource(t)
	src.SetReadDelay(10 * time.Millisecond)

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)
	defer stream.Close()

	start := time.Now()
	_, err = stream.Read(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestReadAfterClose(t *testing.T) {
	src := newInitializedSource(t)

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	assert.Equal(t, 1, src.CloseCount())

	_, err = stream.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
	assert.ErrorIs(t, stream.Close(), domain.ErrStreamClosed)
}

func TestReadCancelledContext(t *testing.T) {
	src := newInitializedSource(t)

	stream, err := src.Open(DefaultDevices()[0], testParams)
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = stream.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSineGenerator(t *testing.T) {
	g := SineGenerator(11025, 1, 44100)

	assert.InDelta(t, 0, g(0, 0), 1e-6)
	assert.InDelta(t, 1, g(1, 0), 1e-6)
	assert.InDelta(t, 0, g(2, 1), 1e-6)
	assert.InDelta(t, -1, g(3, 1), 1e-6)
}

func TestSilenceGenerator(t *testing.T) {
	g := SilenceGenerator()
	assert.Equal(t, float32(0), g(123, 1))
}
