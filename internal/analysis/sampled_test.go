package analysis

import (
	"errors"
	"testing"

	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/speedscope"
)

func sampledDocument(p *speedscope.SampledProfile) *speedscope.Document {
	return &speedscope.Document{
		Shared: speedscope.SharedData{Frames: []speedscope.Frame{
			{Name: "A"}, {Name: "B"},
		}},
		Profiles: []speedscope.Profile{{
			Type:    speedscope.ProfileTypeSampled,
			Sampled: p,
		}},
	}
}

func TestAnalyzeSampledWeights(t *testing.T) {
	doc := sampledDocument(&speedscope.SampledProfile{
		Unit:    "samples",
		Samples: [][]int{{0}, {0, 1}},
		Weights: []float64{2, 1},
	})

	result, err := AnalyzeSampled(doc)
	if err != nil {
		t.Fatal(err)
	}

	a := childNamed(result.CallTreeRoot, "A")
	if a == nil || a.Total != 3 || a.Calls != 3 {
		t.Fatalf("A = %+v, want total 3, calls 3", a)
	}
	b := childNamed(a, "B")
	if b == nil || b.Total != 1 || b.Calls != 1 {
		t.Fatalf("A.B = %+v, want total 1, calls 1", b)
	}

	// Self lands on each sample's leaf.
	if a.Self != 2 || b.Self != 1 {
		t.Fatalf("self = %v/%v, want 2/1", a.Self, b.Self)
	}

	if result.TotalTime != 3 || result.TotalSamples != 2 {
		t.Fatalf("totals = %v/%v, want 3/2", result.TotalTime, result.TotalSamples)
	}
	if result.CountLabel != "samples" || result.CountSuffix != " samples" {
		t.Fatalf("count labels = %q/%q", result.CountLabel, result.CountSuffix)
	}
}

func TestAnalyzeSampledDefaultWeight(t *testing.T) {
	// Missing weights default to 1; a timed unit counts one call per sample.
	doc := sampledDocument(&speedscope.SampledProfile{
		Unit:    "milliseconds",
		Samples: [][]int{{0}, {0}},
	})

	result, err := AnalyzeSampled(doc)
	if err != nil {
		t.Fatal(err)
	}
	a := childNamed(result.CallTreeRoot, "A")
	if a.Total != 2 || a.Calls != 2 || a.Self != 2 {
		t.Fatalf("A = %+v, want total 2, calls 2, self 2", a)
	}
	if result.CountLabel != "calls" {
		t.Fatalf("count label = %q, want calls", result.CountLabel)
	}
}

func TestAnalyzeSampledNoProfiles(t *testing.T) {
	doc := &speedscope.Document{
		Shared: speedscope.SharedData{Frames: []speedscope.Frame{{Name: "A"}}},
	}
	if _, err := AnalyzeSampled(doc); !errors.Is(err, errorutil.ErrNoUsableData) {
		t.Fatalf("err = %v, want ErrNoUsableData", err)
	}
}
