package calltree

// RootFrameIndex is the frame index of the sentinel node every analysis
// tree is rooted at.
const RootFrameIndex = -1

// RootName is the display name of the sentinel root node.
const RootName = "Total"

type (
	// Node is the canonical mergeable call-tree entity. A node is created
	// lazily on first visit and only ever mutated additively for the
	// lifetime of one analysis call; the children relation is a strict
	// tree, one node per (parent, frame index) pair.
	Node struct {
		FrameIndex int           `json:"frame_index"`
		Name       string        `json:"name"`
		Total      float64       `json:"total"`
		Self       float64       `json:"self"`
		Calls      uint64        `json:"calls"`
		Children   map[int]*Node `json:"children,omitempty"`

		// MinStart and MaxEnd bound the timed invocations of this node.
		// They are meaningful only once HasTimes is set, which only the
		// evented/timed protocols do.
		MinStart float64 `json:"min_start,omitempty"`
		MaxEnd   float64 `json:"max_end,omitempty"`
		HasTimes bool    `json:"-"`

		AllocationByType      map[string]uint64 `json:"allocation_by_type,omitempty"`
		AllocationCountByType map[string]uint64 `json:"allocation_count_by_type,omitempty"`
		ExceptionByType       map[string]uint64 `json:"exception_by_type,omitempty"`
	}

	// NamedNode is the string-keyed variant used where no stable per-run
	// frame table exists: per-type allocation trees (Total carries bytes)
	// and exception throw/catch trees (Count carries occurrences).
	NamedNode struct {
		Name     string                `json:"name"`
		Total    uint64                `json:"total"`
		Count    uint64                `json:"count"`
		Children map[string]*NamedNode `json:"children,omitempty"`
	}
)

// NewRoot returns the sentinel root of a new tree.
func NewRoot() *Node {
	return &Node{FrameIndex: RootFrameIndex, Name: RootName}
}

// Child returns the child for the given frame, creating it on first visit.
func (n *Node) Child(frameIndex int, name string) *Node {
	if c, ok := n.Children[frameIndex]; ok {
		return c
	}
	if n.Children == nil {
		n.Children = make(map[int]*Node)
	}
	c := &Node{FrameIndex: frameIndex, Name: name}
	n.Children[frameIndex] = c
	return c
}

// AddCalls increments the call count, saturating instead of overflowing.
func (n *Node) AddCalls(count uint64) {
	if n.Calls > ^uint64(0)-count {
		n.Calls = ^uint64(0)
		return
	}
	n.Calls += count
}

// ObserveSpan widens the timing bounds with one timed invocation.
func (n *Node) ObserveSpan(start, end float64) {
	if !n.HasTimes {
		n.MinStart = start
		n.MaxEnd = end
		n.HasTimes = true
		return
	}
	if start < n.MinStart {
		n.MinStart = start
	}
	if end > n.MaxEnd {
		n.MaxEnd = end
	}
}

// AddAllocation records bytes allocated by a type beneath this frame.
func (n *Node) AddAllocation(typeName string, bytes uint64) {
	if n.AllocationByType == nil {
		n.AllocationByType = make(map[string]uint64)
		n.AllocationCountByType = make(map[string]uint64)
	}
	n.AllocationByType[typeName] += bytes
	n.AllocationCountByType[typeName]++
}

// AddException records one exception of the given type thrown beneath
// this frame.
func (n *Node) AddException(typeName string) {
	if n.ExceptionByType == nil {
		n.ExceptionByType = make(map[string]uint64)
	}
	n.ExceptionByType[typeName]++
}

// NewNamedRoot returns the root of a string-keyed tree.
func NewNamedRoot(name string) *NamedNode {
	return &NamedNode{Name: name}
}

// Child returns the child with the given name, creating it on first visit.
func (n *NamedNode) Child(name string) *NamedNode {
	if c, ok := n.Children[name]; ok {
		return c
	}
	if n.Children == nil {
		n.Children = make(map[string]*NamedNode)
	}
	c := &NamedNode{Name: name}
	n.Children[name] = c
	return c
}
