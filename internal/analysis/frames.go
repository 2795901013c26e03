package analysis

import (
	"sort"

	"github.com/treelineprof/treeline/internal/speedscope"
	"github.com/treelineprof/treeline/internal/symbolname"
)

// frameTable interns frame names to stable per-run indices and carries the
// per-frame aggregate time/count side index. Evented and sampled inputs
// preload it from the document's shared frame list; trace-event analyses
// grow it as new frame names appear.
type frameTable struct {
	indexByName map[string]int
	names       []string
	timeMs      []float64
	calls       []uint64
}

func newFrameTable() *frameTable {
	return &frameTable{indexByName: make(map[string]int)}
}

func newFrameTableFromShared(frames []speedscope.Frame) *frameTable {
	t := &frameTable{
		indexByName: make(map[string]int, len(frames)),
		names:       make([]string, len(frames)),
		timeMs:      make([]float64, len(frames)),
		calls:       make([]uint64, len(frames)),
	}
	for i, f := range frames {
		name := f.Name
		if name == "" {
			name = symbolname.UnmanagedCode
		}
		t.names[i] = name
		t.indexByName[name] = i
	}
	return t
}

func (t *frameTable) intern(name string) int {
	if name == "" {
		name = symbolname.UnmanagedCode
	}
	if i, ok := t.indexByName[name]; ok {
		return i
	}
	i := len(t.names)
	t.indexByName[name] = i
	t.names = append(t.names, name)
	t.timeMs = append(t.timeMs, 0)
	t.calls = append(t.calls, 0)
	return i
}

func (t *frameTable) name(i int) string {
	if i < 0 || i >= len(t.names) {
		return symbolname.UnmanagedCode
	}
	return t.names[i]
}

func (t *frameTable) valid(i int) bool {
	return i >= 0 && i < len(t.names)
}

func (t *frameTable) observe(i int, timeMs float64, calls uint64) {
	if !t.valid(i) {
		return
	}
	t.timeMs[i] += timeMs
	t.calls[i] += calls
}

// functionStats returns the side index as display-named rows ordered by
// descending aggregate time, dropping frames that were never observed.
func (t *frameTable) functionStats() []FunctionStat {
	stats := make([]FunctionStat, 0, len(t.names))
	for i, name := range t.names {
		if t.timeMs[i] == 0 && t.calls[i] == 0 {
			continue
		}
		stats = append(stats, FunctionStat{
			Name:       symbolname.NormalizeDisplay(name),
			TimeMs:     t.timeMs[i],
			Calls:      t.calls[i],
			FrameIndex: i,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TimeMs == stats[j].TimeMs {
			return stats[i].Calls > stats[j].Calls
		}
		return stats[i].TimeMs > stats[j].TimeMs
	})
	return stats
}
