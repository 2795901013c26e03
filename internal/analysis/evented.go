package analysis

import (
	"fmt"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/speedscope"
)

type openFrame struct {
	node     *calltree.Node
	openTime float64
	frame    int
}

// AnalyzeEvented merges every evented profile of a document into one call
// tree rooted at the sentinel "Total" node. Open/Close spans produce total
// time and call counts; self time is charged incrementally between
// consecutive events on each profile's stream. A Close that does not match
// the open frame on top of the stack is dropped, tolerating truncated or
// malformed streams.
func AnalyzeEvented(doc *speedscope.Document) (*CPUResult, error) {
	if doc == nil || len(doc.Shared.Frames) == 0 {
		return nil, fmt.Errorf("evented: %w: document has no frame table", errorutil.ErrNoUsableData)
	}
	frames := newFrameTableFromShared(doc.Shared.Frames)
	root := calltree.NewRoot()

	var grandTotal float64
	var sawTopLevelClose bool
	var merged int
	for _, profile := range doc.Profiles {
		if profile.Type != speedscope.ProfileTypeEvented || profile.Evented == nil {
			continue
		}
		merged++
		p := profile.Evented
		unit := speedscope.ParseUnit(p.Unit)

		var stack []openFrame
		var prevAt float64
		var havePrev bool
		for _, ev := range p.Events {
			at := ev.At * unit.ScaleToMillis
			if havePrev && len(stack) > 0 {
				stack[len(stack)-1].node.Self += at - prevAt
			}
			prevAt = at
			havePrev = true

			switch ev.Type {
			case speedscope.EventTypeOpenFrame:
				if !frames.valid(ev.Frame) {
					continue
				}
				parent := root
				if len(stack) > 0 {
					parent = stack[len(stack)-1].node
				}
				child := parent.Child(ev.Frame, frames.name(ev.Frame))
				child.AddCalls(1)
				frames.observe(ev.Frame, 0, 1)
				stack = append(stack, openFrame{node: child, openTime: at, frame: ev.Frame})
			case speedscope.EventTypeCloseFrame:
				if len(stack) == 0 || stack[len(stack)-1].frame != ev.Frame {
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				duration := at - top.openTime
				top.node.Total += duration
				top.node.ObserveSpan(top.openTime, at)
				frames.observe(top.frame, duration, 0)
				if len(stack) == 0 {
					grandTotal += duration
					sawTopLevelClose = true
				}
			}
		}
	}
	if merged == 0 {
		return nil, fmt.Errorf("evented: %w: document has no evented profiles", errorutil.ErrNoUsableData)
	}

	finalizeRoot(root, grandTotal, sawTopLevelClose)
	return &CPUResult{
		AllFunctions:  frames.functionStats(),
		TotalTime:     root.Total,
		CallTreeRoot:  root,
		CallTreeTotal: root.Total,
		TimeUnitLabel: "ms",
		CountLabel:    "calls",
		CountSuffix:   " calls",
	}, nil
}

// finalizeRoot fills the sentinel root's aggregates: calls are always the
// sum of its children's, and total falls back to the children's sum when
// no top-level close produced a grand total.
func finalizeRoot(root *calltree.Node, grandTotal float64, haveGrandTotal bool) {
	var childTotal float64
	var childCalls uint64
	for _, child := range root.Children {
		childTotal += child.Total
		childCalls += child.Calls
	}
	if haveGrandTotal {
		root.Total = grandTotal
	} else {
		root.Total = childTotal
	}
	root.Calls = childCalls
}
