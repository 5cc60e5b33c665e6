// Package program derives shader permutations from a resolved draw context
// and caches the compiled programs.
//
// A draw context is reduced to Parameters by ResolveParameters. Parameters
// with equal keys describe byte-identical shader source, so one compiled
// Program serves every draw that resolves to that key. Uniform values are
// never part of the key; they are set per draw through the location tables a
// Program carries.
//
// Source is assembled from WGSL chunks embedded in the package. The chunk
// preprocessor understands:
//
//	#include <name>     splice shaders/name.wgsl
//	#ifdef NAME         keep the block when NAME is defined
//	#ifndef NAME        keep the block when NAME is not defined
//	#else
//	#endif
//	#unroll NAME        repeat the block NAME times, replacing {i}
//	#endunroll
//
// and replaces ${NAME} with the value of define NAME.
//
// Programs are reference counted. Acquire on a hit increments the count and
// never recompiles; Release destroys the device program when the count
// reaches zero. Compile failures are returned as *ShaderCompileError and are
// not cached, so the next Acquire retries.
package program
