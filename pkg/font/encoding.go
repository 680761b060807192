package font

// EncodingKind is the sum type of supported font encodings: adding a
// new one is an additional variant plus a decoder function, not a
// duck-typed interface hierarchy.
type EncodingKind int

const (
	EncodingWinAnsi EncodingKind = iota
	EncodingIdentityH
)

// Encoding describes how character codes map to glyphs.
type Encoding struct {
	Kind EncodingKind

	// Differences overrides specific WinAnsi codes with named glyphs
	// (only meaningful when Kind == EncodingWinAnsi).
	Differences map[byte]string

	// CIDToGIDIdentity must be true for EncodingIdentityH fonts; a
	// stream CIDToGIDMap is a hard failure at parse time.
	CIDToGIDIdentity bool
}
