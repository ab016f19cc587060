package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// DeviceLister is the part of an audio source that resolvers need.
type DeviceLister interface {
	Devices() ([]domain.DeviceInfo, error)
	DefaultInputDevice() (domain.DeviceInfo, error)
	DefaultOutputDevice() (domain.DeviceInfo, error)
}

// NewDeviceResolver returns the resolver for mode. When preferredName is set,
// the named device is tried first and the mode resolver is the fallback.
func NewDeviceResolver(mode domain.CaptureMode, preferredName string, source DeviceLister) ports.DeviceResolver {
	var base ports.DeviceResolver
	if mode == domain.ModeLoopback {
		base = NewLoopbackResolver(source)
	} else {
		base = NewMicrophoneResolver(source)
	}

	if strings.TrimSpace(preferredName) == "" {
		return base
	}
	return &fallbackResolver{
		primary:  NewNamedResolver(mode, preferredName, source),
		fallback: base,
	}
}

// MicrophoneResolver picks the platform default input device.
type MicrophoneResolver struct {
	source DeviceLister
}

// NewMicrophoneResolver creates a microphone resolver.
func NewMicrophoneResolver(source DeviceLister) *MicrophoneResolver {
	return &MicrophoneResolver{source: source}
}

// Mode returns ModeMicrophone.
func (r *MicrophoneResolver) Mode() domain.CaptureMode {
	return domain.ModeMicrophone
}

// Resolve returns the default input device if it can capture.
func (r *MicrophoneResolver) Resolve(ctx context.Context) (domain.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceInfo{}, err
	}

	device, err := r.source.DefaultInputDevice()
	if err == nil && device.CanCapture() {
		return device, nil
	}
	if err == nil {
		err = domain.ErrNoDevice
	}
	return domain.DeviceInfo{}, resolutionError(domain.ModeMicrophone, r.source, err)
}

// LoopbackResolver picks a loopback capture of the active output device.
type LoopbackResolver struct {
	source DeviceLister
}

// NewLoopbackResolver creates a loopback resolver.
func NewLoopbackResolver(source DeviceLister) *LoopbackResolver {
	return &LoopbackResolver{source: source}
}

// Mode returns ModeLoopback.
func (r *LoopbackResolver) Mode() domain.CaptureMode {
	return domain.ModeLoopback
}

// Resolve matches the default output's name against the loopback devices.
// Without a default output, the first loopback device still qualifies.
func (r *LoopbackResolver) Resolve(ctx context.Context) (domain.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceInfo{}, err
	}

	devices, err := r.source.Devices()
	if err != nil {
		return domain.DeviceInfo{}, domain.NewDeviceResolutionError(domain.ModeLoopback, nil, errors.Join(domain.ErrNoDevice, err))
	}

	var outputName string
	if out, err := r.source.DefaultOutputDevice(); err == nil {
		outputName = out.Name
	}

	if device, ok := SelectLoopback(devices, outputName); ok {
		return device, nil
	}
	return domain.DeviceInfo{}, domain.NewDeviceResolutionError(domain.ModeLoopback, devices, domain.ErrNoDevice)
}

// SelectLoopback chooses among the loopback-capable devices: the first whose
// name contains outputName or is contained in it, else the first one found.
// ok is false when no device is loopback-capable.
func SelectLoopback(devices []domain.DeviceInfo, outputName string) (device domain.DeviceInfo, ok bool) {
	var first *domain.DeviceInfo
	for i := range devices {
		d := &devices[i]
		if !d.IsLoopback {
			continue
		}
		if first == nil {
			first = d
		}
		if outputName != "" && (strings.Contains(d.Name, outputName) || strings.Contains(outputName, d.Name)) {
			return *d, true
		}
	}
	if first == nil {
		return domain.DeviceInfo{}, false
	}
	return *first, true
}

// NamedResolver picks an input-capable device by name: an exact match first,
// then the first case-insensitive substring match.
type NamedResolver struct {
	mode   domain.CaptureMode
	name   string
	source DeviceLister
}

// NewNamedResolver creates a resolver for the device called name.
// mode is only reported, it does not affect matching.
func NewNamedResolver(mode domain.CaptureMode, name string, source DeviceLister) *NamedResolver {
	return &NamedResolver{mode: mode, name: strings.TrimSpace(name), source: source}
}

// Mode returns the mode the resolver was created for.
func (r *NamedResolver) Mode() domain.CaptureMode {
	return r.mode
}

// Resolve finds the named device.
func (r *NamedResolver) Resolve(ctx context.Context) (domain.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceInfo{}, err
	}

	devices, err := r.source.Devices()
	if err != nil {
		return domain.DeviceInfo{}, domain.NewDeviceResolutionError(r.mode, nil, errors.Join(domain.ErrNoDevice, err))
	}

	if device, ok := SelectByName(devices, r.name); ok {
		return device, nil
	}
	return domain.DeviceInfo{}, domain.NewDeviceResolutionError(r.mode, devices, domain.ErrNoDevice)
}

// SelectByName returns the capture-capable device called name, preferring
// an exact match over a case-insensitive substring match.
func SelectByName(devices []domain.DeviceInfo, name string) (domain.DeviceInfo, bool) {
	if name == "" {
		return domain.DeviceInfo{}, false
	}
	for _, d := range devices {
		if d.CanCapture() && d.Name == name {
			return d, true
		}
	}
	lower := strings.ToLower(name)
	for _, d := range devices {
		if d.CanCapture() && strings.Contains(strings.ToLower(d.Name), lower) {
			return d, true
		}
	}
	return domain.DeviceInfo{}, false
}

// fallbackResolver tries primary, then fallback.
type fallbackResolver struct {
	primary  ports.DeviceResolver
	fallback ports.DeviceResolver
}

func (r *fallbackResolver) Mode() domain.CaptureMode {
	return r.fallback.Mode()
}

func (r *fallbackResolver) Resolve(ctx context.Context) (domain.DeviceInfo, error) {
	device, err := r.primary.Resolve(ctx)
	if err == nil {
		return device, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.DeviceInfo{}, ctxErr
	}
	return r.fallback.Resolve(ctx)
}

// resolutionError builds a DeviceResolutionError listing whatever devices
// the source can still enumerate.
func resolutionError(mode domain.CaptureMode, source DeviceLister, cause error) *domain.DeviceResolutionError {
	devices, _ := source.Devices()
	if !errors.Is(cause, domain.ErrNoDevice) {
		cause = errors.Join(domain.ErrNoDevice, cause)
	}
	return domain.NewDeviceResolutionError(mode, devices, cause)
}

// Verify that the resolvers implement the DeviceResolver interface
var (
	_ ports.DeviceResolver = (*MicrophoneResolver)(nil)
	_ ports.DeviceResolver = (*LoopbackResolver)(nil)
	_ ports.DeviceResolver = (*NamedResolver)(nil)
	_ ports.DeviceResolver = (*fallbackResolver)(nil)
)
