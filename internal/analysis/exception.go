package analysis

import (
	"errors"
	"io"

	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/symbolname"
	"github.com/treelineprof/treeline/internal/trace"
)

// exceptionTypeKeys is the ordered payload fallback for the exception type
// name; the first non-empty field wins.
var exceptionTypeKeys = []string{"ExceptionType", "ExceptionTypeName", "TypeName"}

// AnalyzeExceptions builds independent throw-site and catch-site trees,
// globally and per exception type, plus a frequency table of innermost
// catch frames. Throw and catch are each observable through a typed and a
// generic event source; a run-scoped latch per signal prefers the typed
// one so the same exception is never counted twice.
func AnalyzeExceptions(src trace.Source) (*ExceptionResult, error) {
	throwRoot := calltree.NewNamedRoot(calltree.RootName)
	catchRoot := calltree.NewNamedRoot(calltree.RootName)
	result := &ExceptionResult{
		ExceptionTypes: make(map[string]uint64),
		TypeDetails:    make(map[string]*ExceptionTypeDetail),
		CatchSites:     make(map[string]uint64),
	}

	var typedThrowSeen, typedCatchSeen bool
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
		case trace.ExceptionStartEventName:
			if e.Dynamic {
				if typedThrowSeen {
					continue
				}
			} else {
				typedThrowSeen = true
			}
			typeName := exceptionTypeName(e)
			detail := result.typeDetail(typeName)

			result.TotalThrown++
			result.ExceptionTypes[typeName]++
			names := trace.RootFirst(e.Stack)
			mergeNamed(throwRoot, names)
			mergeNamed(detail.ThrowRoot, names)
		case trace.ExceptionCatchEventName:
			if e.Dynamic {
				if typedCatchSeen {
					continue
				}
			} else {
				typedCatchSeen = true
			}
			typeName := exceptionTypeName(e)
			detail := result.typeDetail(typeName)
			if detail.CatchRoot == nil {
				detail.CatchRoot = calltree.NewNamedRoot(typeName)
				detail.CatchSites = make(map[string]uint64)
			}

			result.TotalCaught++
			names := trace.RootFirst(e.Stack)
			mergeNamed(catchRoot, names)
			mergeNamed(detail.CatchRoot, names)
			if len(names) > 0 {
				site := names[len(names)-1]
				result.CatchSites[site]++
				detail.CatchSites[site]++
			}
		}
	}

	result.ThrowCallTreeRoot = throwRoot
	if result.TotalCaught > 0 {
		result.CatchCallTreeRoot = catchRoot
	}
	return result, nil
}

func (r *ExceptionResult) typeDetail(typeName string) *ExceptionTypeDetail {
	if detail, ok := r.TypeDetails[typeName]; ok {
		return detail
	}
	detail := &ExceptionTypeDetail{
		TypeName:  typeName,
		ThrowRoot: calltree.NewNamedRoot(typeName),
	}
	r.TypeDetails[typeName] = detail
	return detail
}

func exceptionTypeName(e *trace.Event) string {
	for _, key := range exceptionTypeKeys {
		if raw, ok := e.String(key); ok && raw != "" {
			return symbolname.NormalizeType(raw)
		}
	}
	return symbolname.UnknownType
}

// mergeNamed replays one root-first stack into a string-keyed tree,
// counting the occurrence at every level including the root.
func mergeNamed(root *calltree.NamedNode, names []string) {
	root.Count++
	node := root
	for _, name := range names {
		node = node.Child(name)
		node.Count++
	}
}
