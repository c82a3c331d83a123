// Package boardtext derives the textual encodings animated between: the
// delimited board, the one-line board and the EPD board segment, plus
// per-substring colouring for text nodes.
package boardtext

import (
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

const RankSeparator = "/"

// WithDelimiter appends a rank separator to every line but the last.
func WithDelimiter(ascii string) string {
	return strings.ReplaceAll(ascii, "\n", RankSeparator+"\n")
}

// OneLine joins the ranks with separators and drops the square padding.
func OneLine(ascii string) string {
	return strings.ReplaceAll(strings.ReplaceAll(ascii, "\n", RankSeparator), " ", "")
}

// EPDBoard returns the piece placement field of an EPD or FEN string.
func EPDBoard(epd string) string {
	fields := strings.Fields(epd)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Lines splits a board dump per rank.
func Lines(ascii string) []string {
	if ascii == "" {
		return nil
	}
	return strings.Split(ascii, "\n")
}

// Span is a maximal substring rendered with a single colour. An empty Color
// means the node's default colour.
type Span struct {
	Text  string `json:"text" yaml:"text"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// MarshalYAML writes the text double quoted. Block scalars cannot carry the
// leading newline a delimited board span starts with.
func (s Span) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "text"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Text, Style: yaml.DoubleQuotedStyle},
	)
	if s.Color != "" {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "color"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Color, Style: yaml.DoubleQuotedStyle},
		)
	}
	return node, nil
}

// Colorize assigns colours to substrings. Keys of colors are matched at every
// position, longest key first; unmatched characters keep the default colour.
// Consecutive characters with the same colour are merged.
func Colorize(text string, colors map[string]string) []Span {
	if text == "" {
		return nil
	}
	keys := sortedKeys(colors)
	var spans []Span
	push := func(s, color string) {
		if n := len(spans); n > 0 && spans[n-1].Color == color {
			spans[n-1].Text += s
			return
		}
		spans = append(spans, Span{Text: s, Color: color})
	}
	for i := 0; i < len(text); {
		matched := false
		for _, k := range keys {
			if strings.HasPrefix(text[i:], k) {
				push(k, colors[k])
				i += len(k)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		_, size := decodeRune(text[i:])
		push(text[i:i+size], "")
		i += size
	}
	return spans
}

// DigitColors maps the FEN empty-square counts 1..8 to color.
func DigitColors(color string) map[string]string {
	m := make(map[string]string, 8)
	for i := 1; i <= 8; i++ {
		m[strconv.Itoa(i)] = color
	}
	return m
}

// Plain concatenates span texts.
func Plain(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
