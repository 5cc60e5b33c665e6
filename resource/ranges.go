package resource

import (
	"slices"

	"github.com/gogpu/g3d/core"
)

// Coalesce sorts ranges by start and merges overlapping or adjacent ones.
// The input slice is not modified.
func Coalesce(ranges []core.UpdateRange) []core.UpdateRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b core.UpdateRange) int {
		return a.Start - b.Start
	})

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End() {
			if r.End() > last.End() {
				last.Count = r.End() - last.Start
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// byteSpan is a [Start, End) byte interval aligned for buffer writes.
type byteSpan struct {
	Start, End int
}

// alignSpans converts element ranges to 4-byte aligned byte spans and
// merges spans that touch after alignment.
func alignSpans(ranges []core.UpdateRange, elemSize, byteLen int) []byteSpan {
	var out []byteSpan
	for _, r := range ranges {
		s := alignDown(r.Start*elemSize, 4)
		e := min(alignUp(r.End()*elemSize, 4), alignUp(byteLen, 4))
		if n := len(out); n > 0 && s <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, e)
			continue
		}
		out = append(out, byteSpan{Start: s, End: e})
	}
	return out
}

func alignDown(v, a int) int { return v / a * a }

func alignUp(v, a int) int { return (v + a - 1) / a * a }
