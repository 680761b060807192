package font

import "strings"

// Substitute resolves a PDF base-font name to a well-known system-font
// family when no embedded font program is available. It checks the
// PostScript name first, then falls back to the base font's family
// guess, landing finally on the three documented substitutes.
func Substitute(baseFontName string) string {
	n := strings.ToLower(baseFontName)
	// Strip a subset tag like "ABCDEF+Helvetica-Bold".
	if i := strings.Index(n, "+"); i == 6 {
		n = n[i+1:]
	}

	switch {
	case strings.Contains(n, "times") || strings.Contains(n, "serif") || strings.Contains(n, "georgia") || strings.Contains(n, "garamond"):
		return "Liberation Serif"
	case strings.Contains(n, "arial") || strings.Contains(n, "helvetica") || strings.Contains(n, "verdana") || strings.Contains(n, "tahoma"):
		return "Liberation Sans"
	case strings.Contains(n, "courier") || strings.Contains(n, "mono") || strings.Contains(n, "consolas"):
		return "Liberation Mono"
	}
	return "Liberation Sans"
}

// Style describes the bold/italic variant implied by a base-font name,
// used to pick the right file among a family's variants.
type Style struct {
	Bold   bool
	Italic bool
}

// ParseStyle inspects a base-font name for "Bold"/"Italic"/"Oblique"
// markers.
func ParseStyle(baseFontName string) Style {
	n := strings.ToLower(baseFontName)
	return Style{
		Bold:   strings.Contains(n, "bold"),
		Italic: strings.Contains(n, "italic") || strings.Contains(n, "oblique"),
	}
}
