// Package cache is the content-addressed, file-system page cache:
// per-page MRC artifacts keyed by a SHA-256 hash of the PDF path,
// page index, content-stream bytes, and normalised settings.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/mrcpdf/mrcpdf/pkg/config"
)

// Settings is the subset of a job's merged configuration that affects
// MRC output and must therefore participate in the cache key.
type Settings struct {
	DPI            uint32
	FgDPI          uint32
	BgQuality      uint8
	FgQuality      uint8
	PreserveImages bool
	ColorMode      config.ColorMode
}

// canonicalJSON renders Settings as the canonical JSON object the key
// hash commits to: exactly six fields, in lexicographic key order,
// unquoted numbers and booleans, a lower-case string colour mode.
func canonicalJSON(s Settings) string {
	return fmt.Sprintf(
		`{"bg_quality":%d,"color_mode":"%s","dpi":%d,"fg_dpi":%d,"fg_quality":%d,"preserve_images":%t}`,
		s.BgQuality, s.ColorMode.String(), s.DPI, s.FgDPI, s.FgQuality, s.PreserveImages,
	)
}

// ComputeKey computes sha256(pdf_path_bytes || page_index_u32_le ||
// content_stream || canonical_settings_json), returned as 64 lower-case
// hex characters.
func ComputeKey(pdfPath string, pageIndex uint32, contentStream []byte, s Settings) string {
	h := sha256.New()
	h.Write([]byte(pdfPath))

	var idxBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], pageIndex)
	h.Write(idxBuf[:])

	h.Write(contentStream)
	h.Write([]byte(canonicalJSON(s)))

	return hex.EncodeToString(h.Sum(nil))
}
