package analysis

import (
	"testing"

	"github.com/treelineprof/treeline/internal/trace"
)

func allocationTick(stack *trace.Frame, payload map[string]interface{}) trace.Event {
	return trace.Event{
		Provider: trace.RuntimeProviderName,
		Name:     trace.AllocationTickEventName,
		Stack:    stack,
		Payload:  payload,
	}
}

func TestAnalyzeAllocation(t *testing.T) {
	src := trace.NewEvents([]trace.Event{
		allocationTick(stackOf("Program.Main", "Builder.Append"), map[string]interface{}{
			"AllocationAmount64": int64(1000),
			"TypeName":           "System.String",
		}),
		allocationTick(stackOf("Program.Main", "Builder.Append"), map[string]interface{}{
			"AllocationAmount64": int64(2000),
			"TypeName":           "System.String",
		}),
		// Older payload shape: 32-bit amount field, no 64-bit one.
		allocationTick(stackOf("Program.Main"), map[string]interface{}{
			"AllocationAmount": int64(500),
			"TypeName":         "System.Byte[]",
		}),
		// Missing type name falls back to the sentinel.
		allocationTick(stackOf("Program.Main"), map[string]interface{}{
			"AllocationAmount64": int64(100),
		}),
		// Non-positive amounts are discarded.
		allocationTick(stackOf("Program.Main"), map[string]interface{}{
			"AllocationAmount64": int64(0),
			"TypeName":           "System.String",
		}),
	})

	result, err := AnalyzeAllocation(src)
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalBytes != 3600 || result.TotalCount != 4 {
		t.Fatalf("totals = %v bytes, %v ticks, want 3600, 4", result.TotalBytes, result.TotalCount)
	}

	// Overlay on the frame-indexed tree.
	root := result.CallTreeRoot
	if got := root.AllocationByType["String"]; got != 3000 {
		t.Fatalf("root String bytes = %v, want 3000", got)
	}
	if got := root.AllocationByType["Byte<>"]; got != 500 {
		t.Fatalf("root Byte<> bytes = %v, want 500", got)
	}
	if got := root.AllocationByType["Unknown"]; got != 100 {
		t.Fatalf("root Unknown bytes = %v, want 100", got)
	}
	main := childNamed(root, "Program.Main")
	if main == nil || main.AllocationByType["String"] != 3000 {
		t.Fatalf("Program.Main overlay = %+v", main)
	}
	if main.AllocationCountByType["String"] != 2 {
		t.Fatalf("Program.Main String count = %v, want 2", main.AllocationCountByType["String"])
	}
	appendNode := childNamed(main, "Builder.Append")
	if appendNode == nil || appendNode.AllocationByType["String"] != 3000 {
		t.Fatalf("Builder.Append overlay = %+v", appendNode)
	}

	// Per-type trees ordered by descending bytes.
	if len(result.TypeRoots) != 3 {
		t.Fatalf("type roots = %d, want 3", len(result.TypeRoots))
	}
	if result.TypeRoots[0].Name != "String" || result.TypeRoots[0].Total != 3000 {
		t.Fatalf("leading type root = %+v", result.TypeRoots[0])
	}
	if result.TypeRoots[1].Name != "Byte<>" || result.TypeRoots[2].Name != "Unknown" {
		t.Fatalf("type root order = %v, %v", result.TypeRoots[1].Name, result.TypeRoots[2].Name)
	}
	stringTree := result.TypeRoots[0]
	if stringTree.Count != 2 {
		t.Fatalf("String tick count = %v, want 2", stringTree.Count)
	}
	mainNamed := stringTree.Children["Program.Main"]
	if mainNamed == nil || mainNamed.Total != 3000 || mainNamed.Count != 2 {
		t.Fatalf("String tree Program.Main = %+v", mainNamed)
	}
}
