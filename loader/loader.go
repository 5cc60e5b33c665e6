package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/geometry"
)

// Errors reported by futures.
var (
	// ErrPending is returned by Result before the future completed.
	ErrPending = errors.New("loader: pending")

	// ErrClosed is returned by loads issued after Close.
	ErrClosed = errors.New("loader: closed")
)

// Opener opens a named asset.
type Opener func(ctx context.Context, name string) (io.ReadCloser, error)

// OpenFile opens name on the local file system.
func OpenFile(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name) //nolint:gosec // asset paths are caller supplied
}

// Options configures a Loader.
type Options struct {
	// Open fetches assets. Defaults to OpenFile.
	Open Opener

	// Workers bounds concurrent decodes. Defaults to GOMAXPROCS.
	Workers int

	// MaxTextureSize downscales larger images. Zero keeps the source size.
	MaxTextureSize int

	// CacheSize keeps about this many decoded images by name, so loading a
	// name again skips the open and decode. Zero disables the cache.
	// Cached pixels are shared between textures and must not be modified
	// in place.
	CacheSize int
}

// Completed is a finished load as reported by Poll.
type Completed interface {
	Name() string
	Err() error
}

// Future is the pending result of a load.
type Future[T any] struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	ready  atomic.Bool

	value T

	// Written by the worker before done closes.
	err error

	// commit runs on the render thread during Poll.
	commit func()
}

// Name returns the asset name.
func (f *Future[T]) Name() string { return f.name }

// Ready reports whether Poll delivered the result.
func (f *Future[T]) Ready() bool { return f.ready.Load() }

// Done is closed when the worker finished, before Poll delivers.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Err returns the load error once Ready, or ErrPending.
func (f *Future[T]) Err() error {
	if !f.Ready() {
		return ErrPending
	}
	return f.err
}

// Result returns the value and the load error. Texture futures return
// their texture before they are Ready, together with ErrPending.
func (f *Future[T]) Result() (T, error) {
	if !f.Ready() {
		return f.value, ErrPending
	}
	return f.value, f.err
}

// Cancel abandons the load. The future still completes, with
// context.Canceled, unless the result was already delivered.
func (f *Future[T]) Cancel() { f.cancel() }

func (f *Future[T]) deliver() {
	if f.err == nil {
		if err := f.ctx.Err(); err != nil {
			f.err = err
		} else if f.commit != nil {
			f.commit()
		}
	}
	f.cancel()
	f.ready.Store(true)
}

type pending interface {
	Completed
	deliver()
}

// Loader runs loads on a bounded worker pool.
type Loader struct {
	open    Opener
	sem     chan struct{}
	maxSize int
	images  *imageCache

	mu       sync.Mutex
	finished []pending
	closed   bool
	wg       sync.WaitGroup
}

// New returns a loader configured by opts.
func New(opts Options) *Loader {
	if opts.Open == nil {
		opts.Open = OpenFile
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		open:    opts.Open,
		sem:     make(chan struct{}, opts.Workers),
		maxSize: opts.MaxTextureSize,
		images:  newImageCache(opts.CacheSize),
	}
}

// Poll delivers every load finished since the previous call and returns
// them in completion order. It must be called from the render thread.
func (l *Loader) Poll() []Completed {
	l.mu.Lock()
	finished := l.finished
	l.finished = nil
	l.mu.Unlock()

	out := make([]Completed, len(finished))
	for i, p := range finished {
		p.deliver()
		if err := p.Err(); err != nil {
			slogger().Warn("loader: load failed", "name", p.Name(), "err", err)
		} else {
			slogger().Debug("loader: loaded", "name", p.Name())
		}
		out[i] = p
	}
	return out
}

// Close waits for running loads. Loads issued afterwards fail with
// ErrClosed.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

// LoadTexture decodes the image name. The returned texture is not ready
// until Poll delivers it.
func (l *Loader) LoadTexture(ctx context.Context, name string) *Future[*core.Texture] {
	tex := core.NewTexture()
	tex.Name = name
	f := newFuture[*core.Texture](ctx, name)
	f.value = tex
	maxSize := l.maxSize
	f.run(l, func(ctx context.Context) error {
		img, ok := l.images.get(name)
		if !ok {
			err := l.read(ctx, name, func(_ context.Context, r io.Reader) error {
				var err error
				img, err = decodeImage(r)
				return err
			})
			if err != nil {
				return err
			}
			l.images.set(name, img)
		}
		f.commit = func() {
			tex.SetImage(img)
			if maxSize > 0 {
				tex.Downscale(maxSize)
			}
		}
		return nil
	})
	return f
}

// LoadGeometry decodes the Wavefront OBJ file name.
func (l *Loader) LoadGeometry(ctx context.Context, name string) *Future[*geometry.Geometry] {
	f := newFuture[*geometry.Geometry](ctx, name)
	f.run(l, func(ctx context.Context) error {
		return l.read(ctx, name, func(ctx context.Context, r io.Reader) error {
			g, err := DecodeOBJ(ctx, r)
			if err != nil {
				return err
			}
			g.Name = name
			f.commit = func() { f.value = g }
			return nil
		})
	})
	return f
}

func newFuture[T any](ctx context.Context, name string) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Future[T]{name: name, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// run executes load on a loader worker and queues f for Poll.
func (f *Future[T]) run(l *Loader, load func(context.Context) error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		f.err = ErrClosed
		close(f.done)
		l.queue(f)
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.queue(f)
		defer close(f.done)

		select {
		case l.sem <- struct{}{}:
			defer func() { <-l.sem }()
		case <-f.ctx.Done():
			f.err = f.ctx.Err()
			return
		}
		f.err = load(f.ctx)
	}()
}

// read opens name and hands the stream to decode.
func (l *Loader) read(ctx context.Context, name string, decode func(context.Context, io.Reader) error) error {
	r, err := l.open(ctx, name)
	if err != nil {
		return fmt.Errorf("loader: open %s: %w", name, err)
	}
	defer r.Close()
	if err := decode(ctx, r); err != nil {
		return fmt.Errorf("loader: decode %s: %w", name, err)
	}
	return nil
}

// CacheStats reports the decoded image cache.
type CacheStats struct {
	Images    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// CacheStats returns counters of the decoded image cache.
func (l *Loader) CacheStats() CacheStats {
	st := l.images.stats()
	return CacheStats{Images: st.Len, Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions}
}

// ClearCache drops every cached image.
func (l *Loader) ClearCache() {
	l.images.clear()
}

func (l *Loader) queue(p pending) {
	l.mu.Lock()
	l.finished = append(l.finished, p)
	l.mu.Unlock()
}
