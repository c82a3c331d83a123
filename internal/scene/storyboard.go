// Package scene describes animations between board encodings as
// storyboards: text nodes plus an ordered list of steps for an external
// animation driver.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kraktus/fen-manim/internal/boardtext"
	"github.com/kraktus/fen-manim/internal/fenrun"
	yaml "gopkg.in/yaml.v3"
)

var (
	ErrUnknownScene = errors.New("unknown scene")
	ErrNodeNotFound = errors.New("node not found")
	ErrDuplicateID  = errors.New("duplicate node id")
)

// Colours use the driver's palette values.
const (
	Blue   = "#58C4DD"
	Orange = "#FF862F"
)

const (
	defaultWait    = 1.0
	defaultRunTime = 1.0
)

type NodeKind string

const (
	KindText  NodeKind = "text"
	KindSVG   NodeKind = "svg"
	KindGroup NodeKind = "group"
)

type LayoutKind string

const (
	LayoutGrid  LayoutKind = "grid"
	LayoutDown  LayoutKind = "down"
	LayoutRight LayoutKind = "right"
)

// Layout arranges the children of a group node.
type Layout struct {
	Kind LayoutKind `json:"kind" yaml:"kind"`
	Cols int        `json:"cols,omitempty" yaml:"cols,omitempty"`
	Buff float64    `json:"buff,omitempty" yaml:"buff,omitempty"`
	// RowAlign follows the driver's grid convention, "d" aligns on the baseline.
	RowAlign string `json:"row_align,omitempty" yaml:"row_align,omitempty"`
}

type Node struct {
	ID          string           `json:"id" yaml:"id"`
	Kind        NodeKind         `json:"kind" yaml:"kind"`
	Caption     string           `json:"caption,omitempty" yaml:"caption,omitempty"`
	Text        string           `json:"text,omitempty" yaml:"text,omitempty"`
	Spans       []boardtext.Span `json:"spans,omitempty" yaml:"spans,omitempty"`
	Color       string           `json:"color,omitempty" yaml:"color,omitempty"`
	Font        string           `json:"font,omitempty" yaml:"font,omitempty"`
	FontSize    float64          `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	Width       float64          `json:"width,omitempty" yaml:"width,omitempty"`
	Scale       float64          `json:"scale,omitempty" yaml:"scale,omitempty"`
	LineSpacing float64          `json:"line_spacing,omitempty" yaml:"line_spacing,omitempty"`
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	Children    []string         `json:"children,omitempty" yaml:"children,omitempty"`
	Layout      *Layout          `json:"layout,omitempty" yaml:"layout,omitempty"`
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionWait   Action = "wait"
	ActionPlay   Action = "play"
)

type Transition string

const (
	ReplacementTransform    Transition = "ReplacementTransform"
	TransformMatchingShapes Transition = "TransformMatchingShapes"
	FadeIn                  Transition = "FadeIn"
	FadeOut                 Transition = "FadeOut"
)

// Animation is one effect inside a play step. Transforms use From and To,
// fades use only Target.
type Animation struct {
	Transition Transition `json:"transition" yaml:"transition"`
	From       string     `json:"from,omitempty" yaml:"from,omitempty"`
	To         string     `json:"to,omitempty" yaml:"to,omitempty"`
	Target     string     `json:"target,omitempty" yaml:"target,omitempty"`
}

type Step struct {
	Action     Action      `json:"action" yaml:"action"`
	Targets    []string    `json:"targets,omitempty" yaml:"targets,omitempty"`
	Animations []Animation `json:"animations,omitempty" yaml:"animations,omitempty"`
	// RunTime is seconds; zero means the driver default of one second.
	RunTime float64 `json:"run_time,omitempty" yaml:"run_time,omitempty"`
}

type Storyboard struct {
	Name  string       `json:"name" yaml:"name"`
	FEN   string       `json:"fen,omitempty" yaml:"fen,omitempty"`
	Runs  []fenrun.Run `json:"runs,omitempty" yaml:"runs,omitempty"`
	Nodes []Node       `json:"nodes" yaml:"nodes"`
	Steps []Step       `json:"steps" yaml:"steps"`
}

// Node looks a node up by id.
func (s *Storyboard) Node(id string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// Validate checks ids are unique and every reference resolves.
func (s *Storyboard) Validate() error {
	ids := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	ref := func(id, where string) error {
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("%w: %q referenced by %s", ErrNodeNotFound, id, where)
		}
		return nil
	}
	for _, n := range s.Nodes {
		for _, c := range n.Children {
			if err := ref(c, "group "+n.ID); err != nil {
				return err
			}
		}
	}
	for i, st := range s.Steps {
		where := fmt.Sprintf("step %d", i)
		for _, id := range st.Targets {
			if err := ref(id, where); err != nil {
				return err
			}
		}
		for _, a := range st.Animations {
			for _, id := range []string{a.From, a.To, a.Target} {
				if id == "" {
					continue
				}
				if err := ref(id, where); err != nil {
					return err
				}
			}
		}
		if st.Action == ActionPlay && len(st.Animations) == 0 {
			return fmt.Errorf("%s: play without animations", where)
		}
	}
	return nil
}

// Duration is the total playing time, assuming driver defaults for unset
// run times.
func (s *Storyboard) Duration() time.Duration {
	var secs float64
	for _, st := range s.Steps {
		switch {
		case st.Action != ActionWait && st.Action != ActionPlay:
		case st.RunTime > 0:
			secs += st.RunTime
		case st.Action == ActionWait:
			secs += defaultWait
		default:
			secs += defaultRunTime
		}
	}
	return time.Duration(secs * float64(time.Second))
}

func (s *Storyboard) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s *Storyboard) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Encode serialises the storyboard as "yaml" or "json".
func (s *Storyboard) Encode(format string) ([]byte, error) {
	switch format {
	case "json":
		return s.JSON()
	case "yaml", "yml", "":
		return s.YAML()
	default:
		return nil, fmt.Errorf("unsupported storyboard format %q", format)
	}
}

// Decode parses a storyboard written by Encode.
func Decode(format string, data []byte) (*Storyboard, error) {
	var sb Storyboard
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &sb)
	case "yaml", "yml", "":
		err = yaml.Unmarshal(data, &sb)
	default:
		return nil, fmt.Errorf("unsupported storyboard format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode storyboard: %w", err)
	}
	return &sb, nil
}

// Frame is a step together with the nodes it touches, the unit sent to a
// driver that does not keep the whole storyboard.
type Frame struct {
	Scene string `json:"scene"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	Step  Step   `json:"step"`
	Nodes []Node `json:"nodes,omitempty"`
}

// Frames expands steps into self-contained frames. Group children are
// included after their group.
func (s *Storyboard) Frames() []Frame {
	frames := make([]Frame, 0, len(s.Steps))
	for i, st := range s.Steps {
		seen := map[string]bool{}
		var nodes []Node
		var add func(id string)
		add = func(id string) {
			if id == "" || seen[id] {
				return
			}
			n, ok := s.Node(id)
			if !ok {
				return
			}
			seen[id] = true
			nodes = append(nodes, *n)
			for _, c := range n.Children {
				add(c)
			}
		}
		for _, id := range st.Targets {
			add(id)
		}
		for _, a := range st.Animations {
			add(a.From)
			add(a.To)
			add(a.Target)
		}
		frames = append(frames, Frame{Scene: s.Name, Index: i, Total: len(s.Steps), Step: st, Nodes: nodes})
	}
	return frames
}
