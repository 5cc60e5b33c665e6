package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d/gpucore"
)

// fakeDevice satisfies gpucore.Device by embedding a nil interface; only
// identity matters in these tests.
type fakeDevice struct {
	gpucore.Device
	name string
}

func withCleanRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]DeviceFactory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndGet(t *testing.T) {
	withCleanRegistry(t)

	Register("a", func() (gpucore.Device, error) { return &fakeDevice{name: "a"}, nil })
	if !IsRegistered("a") {
		t.Fatal("IsRegistered(a) = false, want true")
	}
	dev, err := Get("a")
	if err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	if got := dev.(*fakeDevice).name; got != "a" {
		t.Errorf("Get(a) name = %q, want %q", got, "a")
	}

	Unregister("a")
	if _, err := Get("a"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Get(a) after Unregister error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestDefaultPriority(t *testing.T) {
	withCleanRegistry(t)

	Register("zzz", func() (gpucore.Device, error) { return &fakeDevice{name: "zzz"}, nil })
	Register(BackendRecording, func() (gpucore.Device, error) { return &fakeDevice{name: BackendRecording}, nil })

	dev, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if got := dev.(*fakeDevice).name; got != BackendRecording {
		t.Errorf("Default() = %q, want %q", got, BackendRecording)
	}
}

func TestDefaultFallsBackOnFactoryError(t *testing.T) {
	withCleanRegistry(t)

	boom := errors.New("no adapter")
	Register(BackendWGPU, func() (gpucore.Device, error) { return nil, boom })
	Register(BackendRecording, func() (gpucore.Device, error) { return &fakeDevice{name: BackendRecording}, nil })

	dev, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if got := dev.(*fakeDevice).name; got != BackendRecording {
		t.Errorf("Default() = %q, want %q", got, BackendRecording)
	}
}

func TestDefaultNoneAvailable(t *testing.T) {
	withCleanRegistry(t)

	if _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}

	Register(BackendWGPU, func() (gpucore.Device, error) { return nil, errors.New("x") })
	if _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestAvailableSorted(t *testing.T) {
	withCleanRegistry(t)

	for _, n := range []string{"c", "a", "b"} {
		Register(n, func() (gpucore.Device, error) { return nil, nil })
	}
	got := Available()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Available()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
