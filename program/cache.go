package program

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/lru"
)

// ErrShaderCompile is the sentinel every ShaderCompileError unwraps to.
var ErrShaderCompile = errors.New("program: shader compile failed")

// ErrReleased is returned by Release for a program whose count already
// reached zero.
var ErrReleased = errors.New("program: program already released")

// ShaderCompileError reports a program that failed to assemble or compile.
// It carries the assembled source and the compiler diagnostic.
type ShaderCompileError struct {
	Key        string
	Source     string
	Diagnostic string
	Err        error
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("program: compile %q: %s", e.Key, e.Diagnostic)
}

// Unwrap returns ErrShaderCompile and the underlying device error.
func (e *ShaderCompileError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrShaderCompile}
	}
	return []error{ErrShaderCompile, e.Err}
}

// Program is one compiled shader permutation.
type Program struct {
	key    string
	id     gpucore.ProgramID
	info   gpucore.ProgramInfo
	params Parameters
	source Source
	refs   int
}

// Key returns the cache key the program was compiled for.
func (p *Program) Key() string { return p.key }

// ID returns the device program.
func (p *Program) ID() gpucore.ProgramID { return p.id }

// Parameters returns the permutation of the program.
func (p *Program) Parameters() Parameters { return p.params }

// Uniforms returns the declared uniforms in location order.
func (p *Program) Uniforms() []gpucore.UniformDecl { return p.source.Uniforms }

// Samplers returns the declared samplers in unit order.
func (p *Program) Samplers() []string { return p.source.Samplers }

// Attributes returns the declared attributes in location order.
func (p *Program) Attributes() []string { return p.source.Attributes }

// UniformLocation returns the location of a uniform, or -1.
func (p *Program) UniformLocation(name string) int32 { return p.info.UniformLocation(name) }

// AttributeLocation returns the location of an attribute, or -1.
func (p *Program) AttributeLocation(name string) int32 { return p.info.AttributeLocation(name) }

// SamplerUnit returns the texture unit of a sampler, or -1.
func (p *Program) SamplerUnit(name string) int32 { return p.info.SamplerUnit(name) }

// RefCount returns the number of live acquisitions.
func (p *Program) RefCount() int { return p.refs }

// Stats counts cache activity.
type Stats struct {
	Programs      int
	Hits          int
	Misses        int
	Compiles      int
	CompileErrors int
	Destroyed     int
	SourceHits    uint64
}

// DefaultSourceCapacity bounds the number of assembled sources kept after
// their programs are destroyed.
const DefaultSourceCapacity = 64

// Cache owns the compiled programs of one device, keyed by Parameters.Key.
// It is used from the render goroutine only.
type Cache struct {
	device   gpucore.Device
	programs map[string]*Program
	sources  *lru.Cache[string, Source]
	stats    Stats
}

// NewCache creates an empty cache. sourceCapacity bounds the assembled
// source cache; values <= 0 select DefaultSourceCapacity.
func NewCache(device gpucore.Device, sourceCapacity int) *Cache {
	if sourceCapacity <= 0 {
		sourceCapacity = DefaultSourceCapacity
	}
	return &Cache{
		device:   device,
		programs: make(map[string]*Program),
		sources:  lru.New[string, Source](sourceCapacity, nil),
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Programs = len(c.programs)
	s.SourceHits = c.sources.Stats().Hits
	return s
}

// Len returns the number of live programs.
func (c *Cache) Len() int { return len(c.programs) }

// Get returns the live program for key without acquiring it.
func (c *Cache) Get(key string) (*Program, bool) {
	p, ok := c.programs[key]
	return p, ok
}

// Acquire returns the program for p, compiling it on first use. A hit
// increments the reference count and never recompiles. A failed compile is
// not cached.
func (c *Cache) Acquire(params Parameters) (*Program, error) {
	key := params.Key()
	if p, ok := c.programs[key]; ok {
		p.refs++
		c.stats.Hits++
		return p, nil
	}
	c.stats.Misses++

	src, err := c.sources.GetOrCreate(key, func() (Source, error) {
		return Assemble(params)
	})
	if err != nil {
		c.stats.CompileErrors++
		slogger().Warn("program: assemble failed", "key", key, "err", err)
		return nil, &ShaderCompileError{Key: key, Diagnostic: err.Error(), Err: err}
	}

	id, info, err := c.device.CreateProgram(src.Descriptor(params.Template))
	if err != nil {
		c.stats.CompileErrors++
		slogger().Warn("program: compile failed", "key", key, "err", err)
		return nil, &ShaderCompileError{Key: key, Source: src.Code, Diagnostic: err.Error(), Err: err}
	}
	c.stats.Compiles++
	slogger().Debug("program: compiled", "key", key, "uniforms", len(src.Uniforms), "samplers", len(src.Samplers))

	p := &Program{key: key, id: id, info: info, params: params, source: src, refs: 1}
	c.programs[key] = p
	return p, nil
}

// Release drops one acquisition of p and destroys the device program when
// none remain.
func (c *Cache) Release(p *Program) error {
	if p == nil {
		return nil
	}
	if p.refs <= 0 {
		return ErrReleased
	}
	p.refs--
	if p.refs > 0 {
		return nil
	}
	if c.programs[p.key] == p {
		delete(c.programs, p.key)
	}
	c.device.DestroyProgram(p.id)
	c.stats.Destroyed++
	slogger().Debug("program: destroyed", "key", p.key)
	return nil
}

// Invalidate forgets every program without destroying it. Call it after the
// device lost its context; assembled sources are kept for recompilation.
// Outstanding *Program values must not be released afterwards.
func (c *Cache) Invalidate() {
	for _, p := range c.programs {
		p.refs = 0
	}
	c.programs = make(map[string]*Program)
}

// Dispose destroys every live program regardless of reference counts.
func (c *Cache) Dispose() {
	for _, p := range c.programs {
		c.device.DestroyProgram(p.id)
		p.refs = 0
		c.stats.Destroyed++
	}
	c.programs = make(map[string]*Program)
	c.sources.Clear()
}
