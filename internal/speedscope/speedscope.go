package speedscope

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/treelineprof/treeline/internal/errorutil"
)

const (
	EventTypeOpenFrame  EventType = "O"
	EventTypeCloseFrame EventType = "C"

	ProfileTypeEvented ProfileType = "evented"
	ProfileTypeSampled ProfileType = "sampled"
)

type (
	EventType   string
	ProfileType string
	ValueUnit   string

	Frame struct {
		Name string `json:"name"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	Event struct {
		Type  EventType `json:"type"`
		Frame int       `json:"frame"`
		At    float64   `json:"at"`
	}

	EventedProfile struct {
		Name   string      `json:"name"`
		Type   ProfileType `json:"type"`
		Unit   ValueUnit   `json:"unit"`
		Events []Event     `json:"events"`
	}

	SampledProfile struct {
		Name    string      `json:"name"`
		Type    ProfileType `json:"type"`
		Unit    ValueUnit   `json:"unit"`
		Samples [][]int     `json:"samples"`
		Weights []float64   `json:"weights"`
	}

	// Profile is the evented/sampled union, dispatched on the "type"
	// field at decode time.
	Profile struct {
		Type ProfileType

		Evented *EventedProfile
		Sampled *SampledProfile
	}

	Document struct {
		Shared   SharedData `json:"shared"`
		Profiles []Profile  `json:"profiles"`
	}

	profileType struct {
		Type ProfileType `json:"type"`
	}
)

func (p *Profile) UnmarshalJSON(b []byte) error {
	var t profileType
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	p.Type = t.Type
	switch t.Type {
	case ProfileTypeEvented:
		p.Evented = new(EventedProfile)
		return json.Unmarshal(b, p.Evented)
	case ProfileTypeSampled:
		p.Sampled = new(SampledProfile)
		return json.Unmarshal(b, p.Sampled)
	default:
		return fmt.Errorf("speedscope: unknown profile type %q", t.Type)
	}
}

func (p Profile) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case ProfileTypeEvented:
		return json.Marshal(p.Evented)
	case ProfileTypeSampled:
		return json.Marshal(p.Sampled)
	default:
		return nil, fmt.Errorf("speedscope: unknown profile type %q", p.Type)
	}
}

// Parse decodes an evented/sampled export document. A document missing its
// frame table or profile list yields ErrNoUsableData so callers can fall
// back to other input interpretations.
func Parse(b []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("speedscope: %w: %v", errorutil.ErrNoUsableData, err)
	}
	if len(doc.Shared.Frames) == 0 || len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("speedscope: %w: document has no frames or profiles", errorutil.ErrNoUsableData)
	}
	return &doc, nil
}

// Unit describes how a profile's values convert to the canonical
// millisecond scale, and whether values are raw sample counts.
type Unit struct {
	ScaleToMillis float64
	IsSamples     bool
	Label         string
}

// ParseUnit resolves a declared value unit, accepting common aliases
// case-insensitively. An absent unit defaults to milliseconds.
func ParseUnit(u ValueUnit) Unit {
	switch strings.ToLower(strings.TrimSpace(string(u))) {
	case "nanoseconds", "ns":
		return Unit{ScaleToMillis: 1e-6, Label: "ns"}
	case "microseconds", "us", "µs":
		return Unit{ScaleToMillis: 1e-3, Label: "µs"}
	case "seconds", "sec", "s":
		return Unit{ScaleToMillis: 1e3, Label: "s"}
	case "samples", "count":
		return Unit{ScaleToMillis: 1, IsSamples: true, Label: "samples"}
	case "milliseconds", "ms", "":
		fallthrough
	default:
		return Unit{ScaleToMillis: 1, Label: "ms"}
	}
}
