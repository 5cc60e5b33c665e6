package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/gpucore"
)

// Resource errors.
var (
	// ErrUnsupportedFormat is returned when an element type or texel format
	// has no GPU counterpart.
	ErrUnsupportedFormat = errors.New("resource: unsupported format")

	// ErrSizeMismatch is returned when a re-upload would not fit the buffer
	// allocated on first upload. Call Reallocate instead.
	ErrSizeMismatch = errors.New("resource: size mismatch")

	// ErrDisposed is returned when uploading a disposed resource.
	ErrDisposed = errors.New("resource: resource disposed")
)

// Stats counts cache activity since creation or the last ResetStats.
type Stats struct {
	Buffers           int
	Textures          int
	FullUploads       int
	RangeUploads      int
	BytesUploaded     uint64
	TextureUploads    int
	MipmapGenerations int
	Reallocations     int
	Evictions         int
}

type bufferEntry struct {
	id      gpucore.BufferID
	size    uint64
	bytes   int
	usage   gpucore.BufferUsage
	version uint64
}

type textureEntry struct {
	id      gpucore.TextureID
	version uint64
	width   int
	height  int
	format  gpucore.TextureFormat
	mips    int
	sampler gpucore.SamplerState
}

// Cache owns the GPU copies of attributes and textures for one device.
// It is used from the render goroutine only.
type Cache struct {
	device gpucore.Device

	buffers    map[uint64]*bufferEntry
	textures   map[uint64]*textureEntry
	subscribed map[uint64]bool

	placeholder gpucore.TextureID
	stats       Stats
}

// New creates an empty cache over device.
func New(device gpucore.Device) *Cache {
	return &Cache{
		device:     device,
		buffers:    make(map[uint64]*bufferEntry),
		textures:   make(map[uint64]*textureEntry),
		subscribed: make(map[uint64]bool),
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Buffers = len(c.buffers)
	s.Textures = len(c.textures)
	return s
}

// ResetStats zeroes the activity counters.
func (c *Cache) ResetStats() {
	c.stats = Stats{}
}

// VertexFormat returns the device vertex format for a, or ErrUnsupportedFormat.
func VertexFormat(a *core.BufferAttribute) (gpucore.VertexFormat, error) {
	n := a.ItemSize()
	switch a.Kind() {
	case core.Float32:
		return gpucore.VertexFormatFloat32 + gpucore.VertexFormat(n-1), nil
	case core.Uint32:
		return gpucore.VertexFormatUint32 + gpucore.VertexFormat(n-1), nil
	case core.Int32:
		return gpucore.VertexFormatSint32 + gpucore.VertexFormat(n-1), nil
	case core.Uint8:
		if n == 4 {
			if a.Normalized {
				return gpucore.VertexFormatUnorm8x4, nil
			}
			return gpucore.VertexFormatUint8x4, nil
		}
	case core.Uint16:
		switch n {
		case 2:
			return gpucore.VertexFormatUint16x2, nil
		case 4:
			return gpucore.VertexFormatUint16x4, nil
		}
	case core.Int16:
		switch n {
		case 2:
			return gpucore.VertexFormatSint16x2, nil
		case 4:
			return gpucore.VertexFormatSint16x4, nil
		}
	}
	return 0, fmt.Errorf("%w: %s x%d vertex attribute", ErrUnsupportedFormat, a.Kind(), n)
}

// IndexFormat returns the device index format for a, or ErrUnsupportedFormat.
func IndexFormat(a *core.BufferAttribute) (gpucore.IndexFormat, error) {
	switch a.Kind() {
	case core.Uint16:
		return gpucore.IndexFormatUint16, nil
	case core.Uint32:
		return gpucore.IndexFormatUint32, nil
	default:
		return 0, fmt.Errorf("%w: %s index", ErrUnsupportedFormat, a.Kind())
	}
}

func checkUpload(a *core.BufferAttribute, usage gpucore.BufferUsage) error {
	if a.Disposed() {
		return fmt.Errorf("resource: attribute %d: %w", a.ID(), ErrDisposed)
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		_, err := IndexFormat(a)
		return err
	}
	if a.Kind() == core.Float64 || a.Kind().Size() == 0 {
		return fmt.Errorf("%w: %s array", ErrUnsupportedFormat, a.Kind())
	}
	return nil
}

// Buffer returns the GPU buffer of a without uploading.
func (c *Cache) Buffer(a *core.BufferAttribute) (gpucore.BufferID, bool) {
	e, ok := c.buffers[a.ID()]
	if !ok {
		return gpucore.InvalidID, false
	}
	return e.id, true
}

// Upload returns the GPU buffer of a, creating or refreshing it as needed.
// usage is applied on first allocation; CopyDst is always added.
func (c *Cache) Upload(a *core.BufferAttribute, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if err := checkUpload(a, usage); err != nil {
		return gpucore.InvalidID, err
	}

	e, ok := c.buffers[a.ID()]
	if !ok {
		return c.allocate(a, usage|gpucore.BufferUsageCopyDst)
	}
	if e.version == a.Version() {
		return e.id, nil
	}
	if a.ByteLen() != e.bytes {
		return gpucore.InvalidID, fmt.Errorf("%w: attribute %d is %d bytes, buffer holds %d",
			ErrSizeMismatch, a.ID(), a.ByteLen(), e.bytes)
	}

	ranges := a.UpdateRanges()
	if len(ranges) == 0 {
		if err := c.writeFull(e, a); err != nil {
			return gpucore.InvalidID, err
		}
	} else {
		spans := alignSpans(Coalesce(ranges), a.Kind().Size(), a.ByteLen())
		for _, s := range spans {
			if err := c.device.WriteBuffer(e.id, uint64(s.Start), spanBytes(a, s)); err != nil {
				return gpucore.InvalidID, fmt.Errorf("resource: write attribute %d range [%d,%d): %w",
					a.ID(), s.Start, s.End, err)
			}
			c.stats.RangeUploads++
			c.stats.BytesUploaded += uint64(s.End - s.Start)
		}
		slogger().Debug("resource: partial upload",
			slog.Uint64("attribute", a.ID()),
			slog.Int("declared", len(ranges)),
			slog.Int("writes", len(spans)))
	}
	a.ClearUpdateRanges()
	e.version = a.Version()
	return e.id, nil
}

// Reallocate destroys the buffer of a, if any, and uploads a into a new
// buffer sized to its current length. It is the only way to change the
// size of an uploaded attribute.
func (c *Cache) Reallocate(a *core.BufferAttribute, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if err := checkUpload(a, usage); err != nil {
		return gpucore.InvalidID, err
	}
	if e, ok := c.buffers[a.ID()]; ok {
		usage |= e.usage
		delete(c.buffers, a.ID())
		c.device.DestroyBuffer(e.id)
		c.stats.Reallocations++
	}
	return c.allocate(a, usage|gpucore.BufferUsageCopyDst)
}

func (c *Cache) allocate(a *core.BufferAttribute, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	size := uint64(alignUp(a.ByteLen(), 4))
	if size == 0 {
		size = 4
	}
	id, err := c.device.CreateBuffer(gpucore.BufferDescriptor{
		Label: fmt.Sprintf("attribute-%d", a.ID()),
		Size:  size,
		Usage: usage,
		Hint:  a.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("resource: allocate attribute %d: %w", a.ID(), err)
	}
	e := &bufferEntry{id: id, size: size, bytes: a.ByteLen(), usage: usage}
	if err := c.writeFull(e, a); err != nil {
		c.device.DestroyBuffer(id)
		return gpucore.InvalidID, err
	}
	c.buffers[a.ID()] = e
	e.version = a.Version()
	a.ClearUpdateRanges()
	c.subscribe(&a.Disposable, a.ID(), c.releaseBuffer)

	slogger().Debug("resource: buffer allocated",
		slog.Uint64("attribute", a.ID()),
		slog.Uint64("size", size))
	return id, nil
}

func (c *Cache) writeFull(e *bufferEntry, a *core.BufferAttribute) error {
	data := a.Bytes()
	if pad := alignUp(len(data), 4) - len(data); pad > 0 {
		data = append(data, make([]byte, pad)...)
	}
	if len(data) == 0 {
		return nil
	}
	if err := c.device.WriteBuffer(e.id, 0, data); err != nil {
		return fmt.Errorf("resource: write attribute %d: %w", a.ID(), err)
	}
	c.stats.FullUploads++
	c.stats.BytesUploaded += uint64(len(data))
	return nil
}

// spanBytes returns the bytes of a covering s, zero padded past the array.
func spanBytes(a *core.BufferAttribute, s byteSpan) []byte {
	es := a.Kind().Size()
	first := s.Start / es
	last := min((s.End+es-1)/es, a.Len())
	data := a.ByteRange(first, last-first)
	data = data[s.Start-first*es:]
	if want := s.End - s.Start; len(data) < want {
		data = append(data, make([]byte, want-len(data))...)
	} else {
		data = data[:want]
	}
	return data
}

// subscribe registers one dispose listener per resource identity. The
// listener captures only the identity so the cache holds no reference to
// the resource.
func (c *Cache) subscribe(d *core.Disposable, id uint64, release func(uint64)) {
	if c.subscribed[id] {
		return
	}
	c.subscribed[id] = true
	d.OnDispose(func() {
		delete(c.subscribed, id)
		release(id)
	})
}

// Release destroys the GPU buffer of a. Disposing a does the same.
func (c *Cache) Release(a *core.BufferAttribute) {
	c.releaseBuffer(a.ID())
}

func (c *Cache) releaseBuffer(key uint64) {
	e, ok := c.buffers[key]
	if !ok {
		return
	}
	delete(c.buffers, key)
	c.device.DestroyBuffer(e.id)
	c.stats.Evictions++
}

// Placeholder returns the shared 1x1 white texture used for textures that
// are not ready.
func (c *Cache) Placeholder() (gpucore.TextureID, error) {
	if c.placeholder != gpucore.InvalidID {
		return c.placeholder, nil
	}
	id, err := c.device.CreateTexture(gpucore.TextureDescriptor{
		Label:     "placeholder",
		Width:     1,
		Height:    1,
		Format:    gpucore.TextureFormatRGBA8Unorm,
		Usage:     gpucore.TextureUsageTextureBinding | gpucore.TextureUsageCopyDst,
		MipLevels: 1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("resource: placeholder: %w", err)
	}
	if err := c.device.WriteTexture(id, []byte{255, 255, 255, 255}); err != nil {
		c.device.DestroyTexture(id)
		return gpucore.InvalidID, fmt.Errorf("resource: placeholder: %w", err)
	}
	c.placeholder = id
	return id, nil
}

// Texture returns the GPU texture of t without uploading.
func (c *Cache) Texture(t *core.Texture) (gpucore.TextureID, bool) {
	e, ok := c.textures[t.ID()]
	if !ok {
		return gpucore.InvalidID, false
	}
	return e.id, true
}

func samplerOf(t *core.Texture) gpucore.SamplerState {
	minF, mipF := t.MinFilter.Sampler()
	return gpucore.SamplerState{
		MinFilter:    minF,
		MagFilter:    t.MagFilter,
		MipmapFilter: mipF,
		WrapS:        t.WrapS,
		WrapT:        t.WrapT,
	}
}

// UploadTexture returns the GPU texture of t, uploading when its version
// moved. A texture that is not ready resolves to the placeholder.
// Dimension, format or sampler changes reallocate the GPU texture.
func (c *Cache) UploadTexture(t *core.Texture) (gpucore.TextureID, error) {
	if t.Disposed() {
		return gpucore.InvalidID, fmt.Errorf("resource: texture %d: %w", t.ID(), ErrDisposed)
	}
	if !t.Ready() {
		return c.Placeholder()
	}
	if t.Format().BytesPerPixel() == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d format %s", ErrUnsupportedFormat, t.ID(), t.Format())
	}

	e, ok := c.textures[t.ID()]
	if ok && e.version == t.Version() {
		return e.id, nil
	}

	w, h := t.Size()
	mipmaps := t.GenerateMipmaps && t.MinFilter.NeedsMipmaps()
	mips := 1
	if mipmaps {
		mips = t.MipLevels()
	}
	sampler := samplerOf(t)

	if ok && (e.width != w || e.height != h || e.format != t.Format() || e.mips != mips || e.sampler != sampler) {
		c.releaseTexture(t.ID())
		ok = false
	}
	if !ok {
		id, err := c.device.CreateTexture(gpucore.TextureDescriptor{
			Label:     t.Name,
			Width:     w,
			Height:    h,
			Format:    t.Format(),
			Usage:     gpucore.TextureUsageTextureBinding | gpucore.TextureUsageCopyDst | gpucore.TextureUsageRenderAttachment,
			MipLevels: mips,
			Sampler:   sampler,
		})
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("resource: allocate texture %d: %w", t.ID(), err)
		}
		e = &textureEntry{id: id, width: w, height: h, format: t.Format(), mips: mips, sampler: sampler}
		c.textures[t.ID()] = e
		c.subscribe(&t.Disposable, t.ID(), c.releaseTexture)
	}

	if err := c.device.WriteTexture(e.id, t.Pixels()); err != nil {
		return gpucore.InvalidID, fmt.Errorf("resource: write texture %d: %w", t.ID(), err)
	}
	c.stats.TextureUploads++
	if mipmaps {
		if err := c.device.GenerateMipmaps(e.id); err != nil {
			return gpucore.InvalidID, fmt.Errorf("resource: mipmaps texture %d: %w", t.ID(), err)
		}
		c.stats.MipmapGenerations++
	}
	e.version = t.Version()
	return e.id, nil
}

// ReleaseTexture destroys the GPU texture of t. Disposing t does the same.
func (c *Cache) ReleaseTexture(t *core.Texture) {
	c.releaseTexture(t.ID())
}

func (c *Cache) releaseTexture(key uint64) {
	e, ok := c.textures[key]
	if !ok {
		return
	}
	delete(c.textures, key)
	c.device.DestroyTexture(e.id)
	c.stats.Evictions++
}

// Invalidate forgets every entry without destroying device objects. It is
// used after a context loss, when the IDs are already dead; entries are
// repopulated lazily by the next uploads.
func (c *Cache) Invalidate() {
	clear(c.buffers)
	clear(c.textures)
	c.placeholder = gpucore.InvalidID
	slogger().Info("resource: cache invalidated")
}

// Dispose destroys every GPU object owned by the cache.
func (c *Cache) Dispose() {
	for k, e := range c.buffers {
		c.device.DestroyBuffer(e.id)
		delete(c.buffers, k)
	}
	for k, e := range c.textures {
		c.device.DestroyTexture(e.id)
		delete(c.textures, k)
	}
	if c.placeholder != gpucore.InvalidID {
		c.device.DestroyTexture(c.placeholder)
		c.placeholder = gpucore.InvalidID
	}
}
