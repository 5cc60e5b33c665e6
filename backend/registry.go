package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/g3d/gpucore"
)

// Names of the devices shipped with g3d.
const (
	BackendWGPU      = "wgpu"
	BackendRecording = "recording"
)

// Common registry errors.
var (
	// ErrBackendNotAvailable is returned when a requested device is not registered
	// or every registered factory failed.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// DeviceFactory creates a new device instance.
type DeviceFactory func() (gpucore.Device, error)

// registry holds registered devices.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]DeviceFactory)
	// Priority order for device selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendRecording}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in device packages.
// If a device with the same name is already registered, it will be replaced.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a device from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the sorted names of registered devices.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a device with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates a device by name.
func Get(name string) (gpucore.Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: create %q: %w", name, err)
	}
	return dev, nil
}

// Default returns the best available device based on priority.
// Priority order: wgpu > recording, then any other registered device
// in name order.
func Default() (gpucore.Device, error) {
	var errs []error
	tried := make(map[string]bool)
	for _, name := range append(append([]string(nil), backendPriority...), Available()...) {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true
		dev, err := Get(name)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}
