package g3d

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/loader"
	"github.com/gogpu/g3d/math3d"
	"github.com/gogpu/g3d/program"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Default device from the backend registry
//	r, err := g3d.New()
//
//	// Injected device, 4x MSAA, ACES tone mapping
//	r, err := g3d.New(
//	    g3d.WithDevice(dev),
//	    g3d.WithSampleCount(4),
//	    g3d.WithToneMapping(program.ToneACES, 1),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	device      gpucore.Device
	backendName string
	logger      *slog.Logger
	loader      *loader.Loader

	width, height int
	pixelRatio    float32
	samples       int
	depthRange    math3d.DepthRange

	clearColor    gpucore.Color
	shadowMapSize int
	shadowType    program.ShadowMapType

	toneMapping      program.ToneMapping
	exposure         float32
	outputColorSpace program.ColorSpace
	clippingPlanes   []mgl32.Vec4

	programCacheCapacity int
}

// Defaults.
const (
	DefaultShadowMapSize        = 2048
	DefaultProgramCacheCapacity = 64
)

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		width:                1,
		height:               1,
		pixelRatio:           1,
		samples:              1,
		depthRange:           math3d.DepthZeroToOne,
		clearColor:           gpucore.Color{A: 1},
		shadowMapSize:        DefaultShadowMapSize,
		shadowType:           program.ShadowPCF,
		exposure:             1,
		outputColorSpace:     program.ColorSpaceSRGB,
		programCacheCapacity: DefaultProgramCacheCapacity,
	}
}

// WithDevice injects the device the renderer draws with. Without it New
// picks the highest priority device in the backend registry. The renderer
// does not destroy an injected device.
func WithDevice(d gpucore.Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithBackend selects a registered device by name, for example "wgpu" or
// "recording". It is ignored when WithDevice is also given.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithLogger installs l as the logger of g3d and all its sub-packages.
// It is equivalent to calling SetLogger before New.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLoader hands frame-synchronous delivery of l to the renderer: every
// RenderFrame polls it first. Without it the renderer creates a loader on
// the first call to Loader.
func WithLoader(l *loader.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithSize sets the initial logical size of the default framebuffer.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithPixelRatio sets the ratio of drawing buffer pixels to logical pixels.
func WithPixelRatio(ratio float32) Option {
	return func(o *options) {
		if ratio > 0 {
			o.pixelRatio = ratio
		}
	}
}

// WithSampleCount enables multisampling of the default framebuffer. The
// scene renders into a multisampled target that is resolved before present.
func WithSampleCount(n int) Option {
	return func(o *options) {
		o.samples = max(n, 1)
	}
}

// WithDepthRange selects the clip-space depth convention of the device.
// It defaults to [0,1], the WebGPU convention.
func WithDepthRange(d math3d.DepthRange) Option {
	return func(o *options) {
		o.depthRange = d
	}
}

// WithClearColor sets the color every frame starts from, in display (sRGB)
// values. Passes that write linear color clear with its linear equivalent.
func WithClearColor(c gpucore.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithShadowMapSize caps the shadow map resolution of every light.
func WithShadowMapSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.shadowMapSize = size
		}
	}
}

// WithShadowType selects the shadow map filter.
func WithShadowType(t program.ShadowMapType) Option {
	return func(o *options) {
		o.shadowType = t
	}
}

// WithToneMapping sets the tone mapping operator and exposure applied to
// tone-mapped materials.
func WithToneMapping(t program.ToneMapping, exposure float32) Option {
	return func(o *options) {
		o.toneMapping = t
		if exposure > 0 {
			o.exposure = exposure
		}
	}
}

// WithOutputColorSpace sets the color space of the default framebuffer.
func WithOutputColorSpace(cs program.ColorSpace) Option {
	return func(o *options) {
		o.outputColorSpace = cs
	}
}

// WithClippingPlanes sets global clipping planes. A fragment is discarded
// when dot(world, plane.xyz) > plane.w for any plane.
func WithClippingPlanes(planes ...mgl32.Vec4) Option {
	return func(o *options) {
		o.clippingPlanes = append([]mgl32.Vec4(nil), planes...)
	}
}

// WithProgramCacheCapacity bounds the cache of assembled shader sources.
// Compiled programs are reference counted and never evicted while in use.
func WithProgramCacheCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.programCacheCapacity = n
		}
	}
}
