package analysis

import (
	"fmt"
	"math"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/speedscope"
)

// AnalyzeSampled merges every sampled profile of a document into one call
// tree. Each sample lists frames outermost-first; its weight contributes
// time at every level and self time at the leaf. With a samples unit, the
// weight also counts as that many calls.
func AnalyzeSampled(doc *speedscope.Document) (*CPUResult, error) {
	if doc == nil || len(doc.Shared.Frames) == 0 {
		return nil, fmt.Errorf("sampled: %w: document has no frame table", errorutil.ErrNoUsableData)
	}
	frames := newFrameTableFromShared(doc.Shared.Frames)
	root := calltree.NewRoot()

	var grandTotal float64
	var totalSamples uint64
	var merged int
	var isSampleUnit bool
	for _, profile := range doc.Profiles {
		if profile.Type != speedscope.ProfileTypeSampled || profile.Sampled == nil {
			continue
		}
		merged++
		p := profile.Sampled
		unit := speedscope.ParseUnit(p.Unit)
		isSampleUnit = isSampleUnit || unit.IsSamples

		for i, sample := range p.Samples {
			weight := 1.0
			if i < len(p.Weights) {
				weight = p.Weights[i]
			}
			timeWeight := weight * unit.ScaleToMillis
			var callWeight uint64
			if unit.IsSamples {
				if weight > 0 {
					callWeight = uint64(math.Max(1, math.Round(weight)))
				}
			} else {
				callWeight = 1
			}

			node := root
			for _, frameIndex := range sample {
				if !frames.valid(frameIndex) {
					continue
				}
				node = node.Child(frameIndex, frames.name(frameIndex))
				node.Total += timeWeight
				node.AddCalls(callWeight)
				frames.observe(frameIndex, timeWeight, callWeight)
			}
			if node != root {
				node.Self += timeWeight
			}
			grandTotal += timeWeight
			totalSamples++
		}
	}
	if merged == 0 {
		return nil, fmt.Errorf("sampled: %w: document has no sampled profiles", errorutil.ErrNoUsableData)
	}

	finalizeRoot(root, grandTotal, true)
	countLabel := "samples"
	if !isSampleUnit {
		countLabel = "calls"
	}
	return &CPUResult{
		AllFunctions:  frames.functionStats(),
		TotalTime:     root.Total,
		TotalSamples:  totalSamples,
		CallTreeRoot:  root,
		CallTreeTotal: root.Total,
		TimeUnitLabel: "ms",
		CountLabel:    countLabel,
		CountSuffix:   " " + countLabel,
	}, nil
}
