package analysis

import (
	"errors"
	"io"
	"sort"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/symbolname"
	"github.com/treelineprof/treeline/internal/trace"
)

// allocationAmountKeys is the ordered payload fallback for the allocated
// byte amount.
var allocationAmountKeys = []string{"AllocationAmount64", "AllocationAmount"}

// AnalyzeAllocation consumes allocation-tick events and produces two
// presentations at once: the frame-indexed call tree overlayed with
// bytes/count per allocating type at every level, and one string-keyed
// tree per allocated type built from frame names.
func AnalyzeAllocation(src trace.Source) (*AllocationResult, error) {
	frames := newFrameTable()
	root := calltree.NewRoot()
	typeRoots := make(map[string]*calltree.NamedNode)

	var totalBytes, totalCount uint64
	for {
		e, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &errorutil.DecodeError{Err: err}
		}
		if e.Provider != trace.RuntimeProviderName || e.Name != trace.AllocationTickEventName {
			continue
		}

		var amount int64
		for _, key := range allocationAmountKeys {
			if v, ok := e.Int64(key); ok && v > 0 {
				amount = v
				break
			}
		}
		if amount <= 0 {
			continue
		}
		bytes := uint64(amount)

		typeName := symbolname.UnknownType
		if raw, ok := e.String("TypeName"); ok {
			typeName = symbolname.NormalizeType(raw)
		}

		names := trace.RootFirst(e.Stack)
		node := root
		node.AddAllocation(typeName, bytes)
		for _, name := range names {
			frameIndex := frames.intern(name)
			node = node.Child(frameIndex, name)
			node.AddAllocation(typeName, bytes)
			node.AddCalls(1)
		}

		typeRoot, ok := typeRoots[typeName]
		if !ok {
			typeRoot = calltree.NewNamedRoot(typeName)
			typeRoots[typeName] = typeRoot
		}
		typeNode := typeRoot
		typeNode.Total += bytes
		typeNode.Count++
		for _, name := range names {
			typeNode = typeNode.Child(name)
			typeNode.Total += bytes
			typeNode.Count++
		}

		totalBytes += bytes
		totalCount++
	}

	roots := make([]*calltree.NamedNode, 0, len(typeRoots))
	for _, typeRoot := range typeRoots {
		roots = append(roots, typeRoot)
	}
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].Total == roots[j].Total {
			return roots[i].Name < roots[j].Name
		}
		return roots[i].Total > roots[j].Total
	})

	return &AllocationResult{
		TotalBytes:   totalBytes,
		TotalCount:   totalCount,
		TypeRoots:    roots,
		CallTreeRoot: root,
	}, nil
}
