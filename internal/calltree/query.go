package calltree

import (
	"sort"
	"strings"
)

// stopPrefixes lists normalized match names of noisy low-level runtime
// idioms. Rendering stops at these frames regardless of their children:
// descending into collection internals or buffer copies is uninformative.
var stopPrefixes = []string{
	"Dictionary<",
	"List<",
	"HashSet<",
	"ConcurrentDictionary<",
	"Buffer.Memmove",
	"Buffer.BlockCopy",
	"Array.Copy",
	"Span<",
	"ReadOnlySpan<",
	"String.Copy",
}

// ShouldStopAt reports whether a normalized match name is a forced
// traversal leaf.
func ShouldStopAt(matchName string) bool {
	if strings.Contains(matchName, "__Canon") {
		return true
	}
	for _, prefix := range stopPrefixes {
		if strings.HasPrefix(matchName, prefix) {
			return true
		}
	}
	return false
}

// VisibleChildren computes the externally-visible child set of a node.
// Children classified as runtime noise are elided rather than hidden:
// their own visible descendants are promoted in their place. Candidates
// are ordered by descending self or total time, trimmed to maxWidth, and,
// when siblingCutoffPercent is positive, trimmed below
// top*siblingCutoffPercent/100.
func VisibleChildren(
	n *Node,
	includeRuntimeNoise bool,
	useSelfTime bool,
	maxWidth int,
	siblingCutoffPercent float64,
	isRuntimeNoise func(*Node) bool,
) []*Node {
	candidates := collectVisible(n, includeRuntimeNoise, isRuntimeNoise, nil)
	metric := func(c *Node) float64 {
		if useSelfTime {
			return c.Self
		}
		return c.Total
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return metric(candidates[i]) > metric(candidates[j])
	})
	if maxWidth < 0 {
		maxWidth = 0
	}
	if len(candidates) == 0 {
		return candidates
	}
	top := metric(candidates[0])
	if siblingCutoffPercent <= 0 || top <= 0 {
		if len(candidates) > maxWidth {
			candidates = candidates[:maxWidth]
		}
		return candidates
	}
	minTime := top * siblingCutoffPercent / 100
	visible := make([]*Node, 0, maxWidth)
	for _, c := range candidates {
		if len(visible) == maxWidth {
			break
		}
		if metric(c) >= minTime {
			visible = append(visible, c)
		}
	}
	return visible
}

func collectVisible(n *Node, includeNoise bool, isNoise func(*Node) bool, out []*Node) []*Node {
	for _, child := range n.Children {
		if !includeNoise && isNoise != nil && isNoise(child) {
			out = collectVisible(child, includeNoise, isNoise, out)
			continue
		}
		out = append(out, child)
	}
	return out
}

// Hotness scores a node by how often it was on-CPU and how much time it
// directly consumed: (calls/totalSamples)*(self/totalTime). It is zero
// when either denominator is not positive and increases monotonically in
// both self time and call count.
func Hotness(n *Node, totalTime float64, totalSamples uint64) float64 {
	if totalTime <= 0 || totalSamples == 0 {
		return 0
	}
	return (float64(n.Calls) / float64(totalSamples)) * (n.Self / totalTime)
}

// IsHotspot reports whether a node's hotness meets the given threshold.
func IsHotspot(n *Node, totalTime float64, totalSamples uint64, threshold float64) bool {
	return Hotness(n, totalTime, totalSamples) >= threshold
}
