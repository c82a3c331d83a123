package boardsvg

import (
	"bytes"
	"strings"
)

// normalizeColor accepts "b58863", "#b58863" or "# b58863" and returns the
// "#rrggbb" form; named colours pass through.
func normalizeColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return ""
	}
	if strings.HasPrefix(c, "#") {
		return "#" + strings.TrimSpace(c[1:])
	}
	if isHex(c) && (len(c) == 3 || len(c) == 6) {
		return "#" + c
	}
	return c
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// sanitizeSVG fixes style spellings the rasteriser chokes on.
func sanitizeSVG(doc []byte) []byte {
	fixed := bytes.ReplaceAll(doc, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	return fixed
}
