package analysis

import (
	"errors"
	"io"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/trace"
)

// AnalyzeCPU builds a call tree from the sampling provider's thread
// samples. Each sample is weighted by the elapsed time since the previous
// sample on the same thread, clamped at zero so out-of-order timestamps
// cannot produce negative durations. Zero observed samples is reported as
// ErrNoSamples, distinct from a decode failure.
func AnalyzeCPU(src trace.Source) (*CPUResult, error) {
	frames := newFrameTable()
	root := calltree.NewRoot()
	previousByThread := make(map[int64]float64)

	var totalSamples uint64
	var totalTime float64
	for {
		e, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &errorutil.DecodeError{Err: err}
		}
		if e.Provider != trace.SampleProviderName || e.Name != trace.ThreadSampleEventName {
			continue
		}

		var weight float64
		if previous, ok := previousByThread[e.ThreadID]; ok {
			weight = e.TimeMs - previous
			if weight < 0 {
				weight = 0
			}
		}
		previousByThread[e.ThreadID] = e.TimeMs
		totalSamples++
		totalTime += weight

		node := root
		for _, name := range trace.RootFirst(e.Stack) {
			frameIndex := frames.intern(name)
			node = node.Child(frameIndex, name)
			node.Total += weight
			node.AddCalls(1)
			frames.observe(frameIndex, weight, 1)
		}
		if node != root {
			node.Self += weight
		}
	}
	if totalSamples == 0 {
		return nil, errorutil.ErrNoSamples
	}

	finalizeRoot(root, totalTime, true)
	return &CPUResult{
		AllFunctions:  frames.functionStats(),
		TotalTime:     totalTime,
		TotalSamples:  totalSamples,
		CallTreeRoot:  root,
		CallTreeTotal: root.Total,
		TimeUnitLabel: "ms",
		CountLabel:    "samples",
		CountSuffix:   " samples",
	}, nil
}
