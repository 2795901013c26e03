package analysis

import (
	"errors"
	"io"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/trace"
)

type pendingWait struct {
	startMs float64
	stack   []string
}

// AnalyzeContention pairs lock wait-start and wait-stop events per traced
// thread and attributes the wait duration to the waiting stack. The stop
// payload's explicit duration is preferred; otherwise the timestamps are
// used. A stop without a stack falls back to the stack captured at start,
// and non-positive durations are discarded. Typed and generic event
// sources are deduplicated with one latch per signal.
func AnalyzeContention(src trace.Source) (*ContentionResult, error) {
	frames := newFrameTable()
	root := calltree.NewRoot()
	pendingByThread := make(map[int64][]pendingWait)

	var totalWaitMs float64
	var totalCount uint64
	var typedStartSeen, typedStopSeen bool
	for {
		e, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &errorutil.DecodeError{Err: err}
		}
		if e.Provider != trace.RuntimeProviderName {
			continue
		}

		switch e.Name {
		case trace.ContentionStartEventName:
			if e.Dynamic {
				if typedStartSeen {
					continue
				}
			} else {
				typedStartSeen = true
			}
			pendingByThread[e.ThreadID] = append(pendingByThread[e.ThreadID], pendingWait{
				startMs: e.TimeMs,
				stack:   trace.RootFirst(e.Stack),
			})
		case trace.ContentionStopEventName:
			if e.Dynamic {
				if typedStopSeen {
					continue
				}
			} else {
				typedStopSeen = true
			}
			pending := pendingByThread[e.ThreadID]
			if len(pending) == 0 {
				continue
			}
			wait := pending[len(pending)-1]
			pendingByThread[e.ThreadID] = pending[:len(pending)-1]

			durationMs := e.TimeMs - wait.startMs
			if ns, ok := e.Int64("DurationNs"); ok && ns > 0 {
				durationMs = float64(ns) / 1e6
			}
			if durationMs <= 0 {
				continue
			}
			names := trace.RootFirst(e.Stack)
			if len(names) == 0 {
				names = wait.stack
			}

			node := root
			for _, name := range names {
				frameIndex := frames.intern(name)
				node = node.Child(frameIndex, name)
				node.Total += durationMs
				node.AddCalls(1)
				frames.observe(frameIndex, durationMs, 1)
			}
			totalWaitMs += durationMs
			totalCount++
		}
	}

	finalizeRoot(root, totalWaitMs, true)
	return &ContentionResult{
		TopFunctions: frames.functionStats(),
		CallTreeRoot: root,
		TotalWaitMs:  totalWaitMs,
		TotalCount:   totalCount,
	}, nil
}
