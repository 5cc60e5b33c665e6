package wgpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/lru"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BackendName is the registry name of the device.
const BackendName = backend.BackendWGPU

// Errors returned by device construction.
var (
	// ErrNoAdapter is returned when no hal backend exposes an adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter")

	// ErrProvider is returned when a device provider does not expose hal
	// objects.
	ErrProvider = errors.New("wgpu: provider does not expose hal device")

	// ErrNoFrame is returned by draws issued outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("wgpu: no frame in progress")
)

func init() {
	backend.Register(BackendName, func() (gpucore.Device, error) {
		return New(Config{})
	})
}

// Config configures a device.
type Config struct {
	// Width and Height size the default framebuffer. They default to 1.
	Width, Height int

	// Format of the default framebuffer color. Defaults to RGBA8Unorm.
	Format gpucore.TextureFormat

	// Backends lists the hal backends tried in order by New.
	Backends []gputypes.Backend

	// PipelineCapacity bounds the render pipeline cache. Defaults to
	// DefaultPipelineCapacity.
	PipelineCapacity int
}

// DefaultPipelineCapacity is the default number of cached render pipelines.
const DefaultPipelineCapacity = 256

func (c Config) withDefaults() Config {
	c.Width = max(c.Width, 1)
	c.Height = max(c.Height, 1)
	if c.Format == gpucore.TextureFormatUndefined {
		c.Format = gpucore.TextureFormatRGBA8Unorm
	}
	if len(c.Backends) == 0 {
		c.Backends = []gputypes.Backend{gputypes.BackendVulkan, gputypes.BackendMetal, gputypes.BackendDX12}
	}
	if c.PipelineCapacity <= 0 {
		c.PipelineCapacity = DefaultPipelineCapacity
	}
	return c
}

// Stats reports device activity.
type Stats struct {
	Buffers, Textures, Programs, Framebuffers int
	Pipelines                                 lru.Stats
	Passes                                    int
	Draws                                     int
	UniformBytes                              uint64
}

// Device is a gpucore.Device backed by a hal device and queue. It is used
// from one goroutine.
type Device struct {
	cfg      Config
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	external bool

	nextID atomic.Uint64

	buffers      map[gpucore.BufferID]*buffer
	textures     map[gpucore.TextureID]*texture
	programs     map[gpucore.ProgramID]*program
	framebuffers map[gpucore.FramebufferID]*framebuffer

	screen      *framebuffer
	placeholder *texture
	pipelines   *lru.Cache[uint64, hal.RenderPipeline]
	blit        *blitter

	state   drawState
	frame   *frame
	retired []hal.RenderPipeline
	pool    uniformPool
	lost    bool
	stats   Stats
}

var _ gpucore.Device = (*Device)(nil)

// New opens the first adapter of the configured hal backends.
func New(cfg Config) (*Device, error) {
	cfg = cfg.withDefaults()
	for _, b := range cfg.Backends {
		hb, ok := hal.GetBackend(b)
		if !ok {
			continue
		}
		instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			slogger().Debug("wgpu: create instance", "backend", b, "err", err)
			continue
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			instance.Destroy()
			continue
		}
		selected := &adapters[0]
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
				selected = &adapters[i]
				break
			}
		}
		open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			instance.Destroy()
			slogger().Debug("wgpu: open adapter", "adapter", selected.Info.Name, "err", err)
			continue
		}
		d, err := NewFromHAL(open.Device, open.Queue, cfg)
		if err != nil {
			open.Device.Destroy()
			instance.Destroy()
			return nil, err
		}
		d.instance = instance
		d.external = false
		slogger().Info("wgpu: device opened", "adapter", selected.Info.Name, "backend", b)
		return d, nil
	}
	return nil, ErrNoAdapter
}

// NewFromProvider renders on the device of a host application. The
// provider must expose HalDevice and HalQueue; its surface format becomes
// the default framebuffer format.
func NewFromProvider(p gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProvider)
	}
	if cfg.Format == gpucore.TextureFormatUndefined && p.SurfaceFormat() == gputypes.TextureFormatBGRA8Unorm {
		cfg.Format = gpucore.TextureFormatBGRA8Unorm
	}
	return NewFromHAL(device, queue, cfg)
}

// NewFromHAL wraps an open hal device. The caller keeps ownership of
// device and queue.
func NewFromHAL(device hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	cfg = cfg.withDefaults()
	d := &Device{
		cfg:          cfg,
		device:       device,
		queue:        queue,
		external:     true,
		buffers:      make(map[gpucore.BufferID]*buffer),
		textures:     make(map[gpucore.TextureID]*texture),
		programs:     make(map[gpucore.ProgramID]*program),
		framebuffers: make(map[gpucore.FramebufferID]*framebuffer),
		state:        defaultDrawState(),
	}
	d.nextID.Store(1)
	d.pipelines = lru.New(cfg.PipelineCapacity, func(_ uint64, p hal.RenderPipeline) {
		// The evicted pipeline may still be referenced by the open frame.
		d.retired = append(d.retired, p)
	})
	if err := d.createScreen(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	placeholder, err := d.createTexture(gpucore.TextureDescriptor{
		Label:  "placeholder",
		Width:  1,
		Height: 1,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageTextureBinding | gpucore.TextureUsageCopyDst,
	})
	if err != nil {
		d.destroyScreen()
		return nil, fmt.Errorf("wgpu: create placeholder: %w", err)
	}
	d.placeholder = placeholder
	d.writeTexture(placeholder, []byte{255, 255, 255, 255})
	return d, nil
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// HAL returns the wrapped hal device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Stats returns resource counts and pipeline cache statistics.
func (d *Device) Stats() Stats {
	s := d.stats
	s.Buffers = len(d.buffers)
	s.Textures = len(d.textures)
	s.Programs = len(d.programs)
	s.Framebuffers = len(d.framebuffers)
	s.Pipelines = d.pipelines.Stats()
	return s
}

// IsContextLost implements gpucore.Device. A device is lost once a submit
// or fence wait fails; it does not recover.
func (d *Device) IsContextLost() bool { return d.lost }

// Destroy releases every resource. Devices opened by New also close the
// hal device.
func (d *Device) Destroy() {
	if d.frame != nil {
		d.frame.abort(d)
		d.frame = nil
	}
	d.pipelines.Clear()
	d.destroyRetired()
	d.pool.destroy(d.device)
	if d.blit != nil {
		d.blit.destroy(d.device)
		d.blit = nil
	}
	for id := range d.framebuffers {
		d.DestroyFramebuffer(id)
	}
	for id, p := range d.programs {
		p.destroy(d.device)
		delete(d.programs, id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	d.destroyScreen()
	if d.placeholder != nil {
		d.placeholder.destroy(d.device)
		d.placeholder = nil
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

func (d *Device) destroyRetired() {
	for _, p := range d.retired {
		d.device.DestroyRenderPipeline(p)
	}
	d.retired = d.retired[:0]
}
