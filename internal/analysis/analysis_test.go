package analysis

import (
	"errors"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/trace"
)

// stackOf builds a caller-linked stack from root-first frame names and
// returns the leaf.
func stackOf(names ...string) *trace.Frame {
	var caller *trace.Frame
	for _, name := range names {
		caller = &trace.Frame{Name: name, Caller: caller}
	}
	return caller
}

func childNamed(n *calltree.Node, name string) *calltree.Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var errBrokenTrace = errors.New("truncated container")

// brokenSource fails on the first read, standing in for an unreadable
// trace container.
type brokenSource struct{}

func (brokenSource) Next() (*trace.Event, error) {
	return nil, errBrokenTrace
}
