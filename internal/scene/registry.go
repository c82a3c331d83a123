package scene

import (
	"fmt"
	"sort"

	"github.com/kraktus/fen-manim/internal/msgcat"
	"github.com/kraktus/fen-manim/internal/position"
)

// Input carries what builders need besides the scene name.
type Input struct {
	Position *position.Position
	// SVGPath is the board image the svg node points at.
	SVGPath string
	Font    string
	Catalog *msgcat.Catalog
	// Text overrides the one-line string used by the dots scene.
	Text string
}

type builder func(in Input) (*Storyboard, error)

var builders = map[string]builder{
	"fen":   buildFEN,
	"dots":  buildDots,
	"ranks": buildRanks,
}

// Names lists the registered scenes, sorted.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build assembles and validates the named storyboard.
func Build(name string, in Input) (*Storyboard, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	if in.Position == nil {
		in.Position = position.MustParse(position.DefaultFEN)
	}
	if in.Font == "" {
		in.Font = DefaultFont
	}
	if in.Catalog == nil {
		in.Catalog = msgcat.Default()
	}
	sb, err := b(in)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	sb.Name = name
	if err := sb.Validate(); err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return sb, nil
}
