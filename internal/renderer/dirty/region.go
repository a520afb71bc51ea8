// Package dirty tracks which content lines need repainting between render
// passes. Dirty lines are kept as coalesced half-open line ranges; too many
// disjoint ranges, or any structural change, collapse into a full redraw.
package dirty

import (
	"slices"

	"github.com/dshills/lineview/internal/renderer/core"
)

// Region is a dirty span of content lines, [Start, End).
type Region = core.Range

// mergeable reports whether a and b overlap or touch.
func mergeable(a, b Region) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// coalesce sorts regions and merges every overlapping or adjacent pair.
func coalesce(regions []Region) []Region {
	if len(regions) <= 1 {
		return regions
	}
	slices.SortFunc(regions, func(a, b Region) int {
		return a.Start - b.Start
	})

	out := regions[:1]
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if mergeable(*last, r) {
			*last = last.Union(r)
			continue
		}
		out = append(out, r)
	}
	return out
}
