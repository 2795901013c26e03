package analysis

import (
	"github.com/treelineprof/treeline/internal/calltree"
)

type (
	// FunctionStat is one row of the per-frame aggregate side index.
	FunctionStat struct {
		Name       string  `json:"name"`
		TimeMs     float64 `json:"time_ms"`
		Calls      uint64  `json:"calls"`
		FrameIndex int     `json:"frame_index"`
	}

	// CPUResult is produced by the evented, sampled and CPU-sampling
	// ingestors.
	CPUResult struct {
		AllFunctions  []FunctionStat `json:"all_functions"`
		TotalTime     float64        `json:"total_time"`
		TotalSamples  uint64         `json:"total_samples"`
		CallTreeRoot  *calltree.Node `json:"call_tree_root"`
		CallTreeTotal float64        `json:"call_tree_total"`
		TimeUnitLabel string         `json:"time_unit_label"`
		CountLabel    string         `json:"count_label"`
		CountSuffix   string         `json:"count_suffix"`
	}

	// AllocationResult holds both allocation presentations: the overlayed
	// call tree ("where does allocation happen") and one tree per
	// allocated type ("for type T, what is its allocation call tree").
	AllocationResult struct {
		TotalBytes   uint64                `json:"total_bytes"`
		TotalCount   uint64                `json:"total_count"`
		TypeRoots    []*calltree.NamedNode `json:"type_roots"`
		CallTreeRoot *calltree.Node        `json:"call_tree_root"`
	}

	// ExceptionTypeDetail aggregates one exception type's throw and catch
	// trees plus its catch-site frequency table.
	ExceptionTypeDetail struct {
		TypeName   string              `json:"type_name"`
		ThrowRoot  *calltree.NamedNode `json:"throw_root"`
		CatchRoot  *calltree.NamedNode `json:"catch_root,omitempty"`
		CatchSites map[string]uint64   `json:"catch_sites,omitempty"`
	}

	ExceptionResult struct {
		ExceptionTypes    map[string]uint64               `json:"exception_types"`
		ThrowCallTreeRoot *calltree.NamedNode             `json:"throw_call_tree_root"`
		TotalThrown       uint64                          `json:"total_thrown"`
		TypeDetails       map[string]*ExceptionTypeDetail `json:"type_details"`
		CatchSites        map[string]uint64               `json:"catch_sites,omitempty"`
		CatchCallTreeRoot *calltree.NamedNode             `json:"catch_call_tree_root,omitempty"`
		TotalCaught       uint64                          `json:"total_caught"`
	}

	ContentionResult struct {
		TopFunctions []FunctionStat `json:"top_functions"`
		CallTreeRoot *calltree.Node `json:"call_tree_root"`
		TotalWaitMs  float64        `json:"total_wait_ms"`
		TotalCount   uint64         `json:"total_count"`
	}
)
