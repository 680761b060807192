package font

import "testing"

func TestSubstitute(t *testing.T) {
	tests := map[string]string{
		"ABCDEF+Times-Roman":  "Liberation Serif",
		"Arial-BoldMT":        "Liberation Sans",
		"Helvetica":           "Liberation Sans",
		"CourierNewPSMT":      "Liberation Mono",
		"SomeUnknownFontName": "Liberation Sans",
	}
	for in, want := range tests {
		if got := Substitute(in); got != want {
			t.Errorf("Substitute(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseStyle(t *testing.T) {
	s := ParseStyle("Arial-BoldItalicMT")
	if !s.Bold || !s.Italic {
		t.Errorf("expected bold+italic, got %+v", s)
	}
	s = ParseStyle("TimesNewRomanPSMT")
	if s.Bold || s.Italic {
		t.Errorf("expected plain style, got %+v", s)
	}
}

func TestParseRejectsStreamCIDToGIDMap(t *testing.T) {
	_, err := Parse("F1", nil, Encoding{Kind: EncodingIdentityH, CIDToGIDIdentity: false}, nil, 0)
	if err == nil {
		t.Fatal("expected error for non-identity CIDToGIDMap")
	}
}

func TestWidthFallsBackToDefault(t *testing.T) {
	pf, err := Parse("F1", nil, Encoding{Kind: EncodingWinAnsi}, map[uint16]float64{'A': 722}, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := pf.Width('A'); w != 722 {
		t.Errorf("expected width 722 for 'A', got %v", w)
	}
	if w := pf.Width('Z'); w != 500 {
		t.Errorf("expected default width 500 for unlisted code, got %v", w)
	}
}
