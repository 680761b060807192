package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/contentstream"
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
)

var mrcCacheFiles = []string{"mask.jbig2", "foreground.jpg", "background.jpg", "metadata.json"}
var bwCacheFiles = []string{"mask.jbig2", "metadata.json"}

// Metadata is the persisted, canonical-JSON per-entry descriptor.
type Metadata struct {
	CacheKey       string             `json:"cache_key"`
	CacheType      string             `json:"cache_type"`
	Width          uint32             `json:"width"`
	Height         uint32             `json:"height"`
	PageWidthPts   float64            `json:"page_width_pts"`
	PageHeightPts  float64            `json:"page_height_pts"`
	ColorMode      string             `json:"color_mode"`
	PageIndex      uint32             `json:"page_index"`
	Regions        []TextRegionMeta   `json:"regions"`
	ModifiedImages []ModifiedImageMeta `json:"modified_images"`
}

// TextRegionMeta is one text-region crop's persisted descriptor.
type TextRegionMeta struct {
	BBox        contentstream.BBox `json:"bbox"`
	PixelWidth  uint32             `json:"pixel_width"`
	PixelHeight uint32             `json:"pixel_height"`
	File        string             `json:"file"`
}

// ModifiedImageMeta is one redacted image XObject's persisted descriptor.
type ModifiedImageMeta struct {
	Name             string `json:"name"`
	Filter           string `json:"filter"`
	ColorSpace       string `json:"color_space"`
	BitsPerComponent uint8  `json:"bits_per_component"`
	File             string `json:"file"`
}

// Store is a file-system cache rooted at a configured directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory need not exist
// yet; Store creates it on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// validateKey enforces the 64-lowercase-hex path-traversal guard.
func validateKey(key string) error {
	if len(key) != 64 {
		return errtyp.Newf(errtyp.Cache, "invalid cache key: expected 64-character lowercase hex string, got %q", key)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return errtyp.Newf(errtyp.Cache, "invalid cache key: expected 64-character lowercase hex string, got %q", key)
		}
	}
	return nil
}

// sanitizeXObjectName encodes an XObject name for file-system use,
// keeping alphanumerics, '_', and '-', escaping everything else as
// uppercase %XX.
func sanitizeXObjectName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func (s *Store) keyDir(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key), nil
}

// writeAtomic writes files (path -> contents, relative to the entry
// directory) into a temp directory, then renames it into place,
// removing any prior entry first.
func writeAtomic(dir string, files map[string][]byte) error {
	tmpDir := dir + ".tmp"

	if _, err := os.Stat(tmpDir); err == nil {
		_ = os.RemoveAll(tmpDir)
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return errtyp.Wrap(errtyp.Cache, err, "creating temp cache dir")
	}

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), data, 0o644); err != nil {
			return errtyp.Wrapf(errtyp.Cache, err, "writing cache file %s", name)
		}
	}

	if _, err := os.Stat(dir); err == nil {
		_ = os.RemoveAll(dir)
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		return errtyp.Wrap(errtyp.Cache, err, "renaming temp cache dir into place")
	}

	return nil
}

// StoreMRCOrBW writes an Mrc or Bw PageOutput under key.
func (s *Store) StoreMRCOrBW(key string, out mrc.PageOutput) error {
	dir, err := s.keyDir(key)
	if err != nil {
		return err
	}

	var meta Metadata
	files := map[string][]byte{}

	switch out.Kind {
	case mrc.KindMrc:
		l := out.Mrc
		files["mask.jbig2"] = l.MaskJBIG2
		files["foreground.jpg"] = l.ForegroundJPEG
		files["background.jpg"] = l.BackgroundJPEG
		meta = Metadata{
			CacheKey: key, CacheType: "mrc",
			Width: l.Width, Height: l.Height,
			PageWidthPts: l.PageWidthPts, PageHeightPts: l.PageHeightPts,
			ColorMode: l.ColorMode.String(),
		}
	case mrc.KindBw:
		l := out.Bw
		files["mask.jbig2"] = l.MaskJBIG2
		meta = Metadata{
			CacheKey: key, CacheType: "bw",
			Width: l.Width, Height: l.Height,
			PageWidthPts: l.PageWidthPts, PageHeightPts: l.PageHeightPts,
			ColorMode: config.BW.String(),
		}
	default:
		return errtyp.New(errtyp.Cache, "StoreMRCOrBW called with a non-MRC/BW PageOutput")
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return errtyp.Wrap(errtyp.Cache, err, "marshaling cache metadata")
	}
	files["metadata.json"] = metaJSON

	log.Cache.Printf("store: type=%s key=%s\n", meta.CacheType, key[:16])
	return writeAtomic(dir, files)
}

// StoreTextMasked writes a TextMasked PageOutput under key.
func (s *Store) StoreTextMasked(key string, data *mrc.TextMaskedData, bitmapW, bitmapH uint32) error {
	dir, err := s.keyDir(key)
	if err != nil {
		return err
	}

	files := map[string][]byte{"stripped_content.bin": data.StrippedContentStream}

	regions := make([]TextRegionMeta, len(data.TextRegions))
	for i, r := range data.TextRegions {
		filename := fmt.Sprintf("region_%d.jbig2", i)
		files[filename] = r.JBIG2Data
		regions[i] = TextRegionMeta{BBox: r.BBoxPoints, PixelWidth: r.PixelWidth, PixelHeight: r.PixelHeight, File: filename}
	}

	modified := make([]ModifiedImageMeta, 0, len(data.ModifiedImages))
	for name, mod := range data.ModifiedImages {
		safe := sanitizeXObjectName(name)
		filename := "modified_" + safe + ".bin"
		files[filename] = mod.Data
		modified = append(modified, ModifiedImageMeta{
			Name: name, Filter: mod.Filter, ColorSpace: mod.ColorSpace,
			BitsPerComponent: mod.BitsPerComponent, File: filename,
		})
	}

	meta := Metadata{
		CacheKey: key, CacheType: "text_masked",
		Width: bitmapW, Height: bitmapH,
		PageWidthPts: data.PageWidthPts, PageHeightPts: data.PageHeightPts,
		ColorMode: data.ColorMode.String(), PageIndex: data.PageIndex,
		Regions: regions, ModifiedImages: modified,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return errtyp.Wrap(errtyp.Cache, err, "marshaling cache metadata")
	}
	files["metadata.json"] = metaJSON

	log.Cache.Printf("store: type=text_masked key=%s\n", key[:16])
	return writeAtomic(dir, files)
}

// readMetadata reads and validates metadata.json against key, the
// expected colour mode, and optional bitmap dimensions. A key mismatch
// is a fatal Cache error (silent corruption); a mode/dimension
// mismatch is a silent cache miss (nil, nil).
func (s *Store) readMetadata(dir, key string, expectedMode config.ColorMode, bitmapDims *[2]uint32) (*Metadata, error) {
	b, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "reading cache metadata")
	}
	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "parsing cache metadata")
	}

	if meta.CacheKey != key {
		return nil, errtyp.Newf(errtyp.Cache, "cache key mismatch: expected %q, found %q", key, meta.CacheKey)
	}

	if meta.ColorMode != expectedMode.String() {
		return nil, nil
	}

	if bitmapDims != nil && (meta.Width != bitmapDims[0] || meta.Height != bitmapDims[1]) {
		return nil, nil
	}

	return &meta, nil
}

// Retrieve returns the cached PageOutput for key, or nil with no error
// on a cache miss (missing directory, mode mismatch, dimension
// mismatch). A key-mismatch within a present entry is a fatal error.
func (s *Store) Retrieve(key string, expectedMode config.ColorMode, bitmapDims *[2]uint32) (*mrc.PageOutput, error) {
	dir, err := s.keyDir(key)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		log.Cache.Printf("retrieve: miss (dir not found) key=%s\n", key[:16])
		return nil, nil
	}

	meta, err := s.readMetadata(dir, key, expectedMode, bitmapDims)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		log.Cache.Printf("retrieve: miss (metadata mismatch) key=%s\n", key[:16])
		return nil, nil
	}

	if meta.CacheType == "text_masked" {
		return s.retrieveTextMasked(dir, meta)
	}
	return s.retrieveMRCOrBW(dir, meta, expectedMode)
}

func (s *Store) retrieveMRCOrBW(dir string, meta *Metadata, expectedMode config.ColorMode) (*mrc.PageOutput, error) {
	mask, err := os.ReadFile(filepath.Join(dir, "mask.jbig2"))
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "reading cached mask")
	}

	if expectedMode == config.BW {
		return &mrc.PageOutput{Kind: mrc.KindBw, Bw: &mrc.BwLayers{
			MaskJBIG2: mask, Width: meta.Width, Height: meta.Height,
			PageWidthPts: meta.PageWidthPts, PageHeightPts: meta.PageHeightPts,
		}}, nil
	}

	fg, err := os.ReadFile(filepath.Join(dir, "foreground.jpg"))
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "reading cached foreground")
	}
	bg, err := os.ReadFile(filepath.Join(dir, "background.jpg"))
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "reading cached background")
	}

	return &mrc.PageOutput{Kind: mrc.KindMrc, Mrc: &mrc.MrcLayers{
		MaskJBIG2: mask, ForegroundJPEG: fg, BackgroundJPEG: bg,
		Width: meta.Width, Height: meta.Height,
		PageWidthPts: meta.PageWidthPts, PageHeightPts: meta.PageHeightPts,
		ColorMode: expectedMode,
	}}, nil
}

func (s *Store) retrieveTextMasked(dir string, meta *Metadata) (*mrc.PageOutput, error) {
	stripped, err := os.ReadFile(filepath.Join(dir, "stripped_content.bin"))
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Cache, err, "reading cached stripped content")
	}

	regions := make([]mrc.TextRegionCrop, len(meta.Regions))
	for i, rm := range meta.Regions {
		data, err := os.ReadFile(filepath.Join(dir, rm.File))
		if err != nil {
			return nil, errtyp.Wrapf(errtyp.Cache, err, "reading cached region %s", rm.File)
		}
		regions[i] = mrc.TextRegionCrop{JBIG2Data: data, BBoxPoints: rm.BBox, PixelWidth: rm.PixelWidth, PixelHeight: rm.PixelHeight}
	}

	modified := make(map[string]mrc.ImageModification, len(meta.ModifiedImages))
	for _, im := range meta.ModifiedImages {
		data, err := os.ReadFile(filepath.Join(dir, im.File))
		if err != nil {
			return nil, errtyp.Wrapf(errtyp.Cache, err, "reading cached modified image %s", im.File)
		}
		modified[im.Name] = mrc.ImageModification{Data: data, Filter: im.Filter, ColorSpace: im.ColorSpace, BitsPerComponent: im.BitsPerComponent}
	}

	mode, err := config.ParseColorMode(meta.ColorMode)
	if err != nil {
		mode = config.RGB
	}

	return &mrc.PageOutput{Kind: mrc.KindTextMasked, TextMasked: &mrc.TextMaskedData{
		StrippedContentStream: stripped, TextRegions: regions, ModifiedImages: modified,
		PageIndex: meta.PageIndex, PageWidthPts: meta.PageWidthPts, PageHeightPts: meta.PageHeightPts,
		ColorMode: mode,
	}}, nil
}

// Contains reports whether key's entry exists and has all files its
// own metadata says it should have.
func (s *Store) Contains(key string) bool {
	dir, err := s.keyDir(key)
	if err != nil {
		return false
	}

	b, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return false
	}
	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return false
	}

	if meta.CacheType == "text_masked" {
		if _, err := os.Stat(filepath.Join(dir, "stripped_content.bin")); err != nil {
			return false
		}
		for _, r := range meta.Regions {
			if _, err := os.Stat(filepath.Join(dir, r.File)); err != nil {
				return false
			}
		}
		for _, im := range meta.ModifiedImages {
			if _, err := os.Stat(filepath.Join(dir, im.File)); err != nil {
				return false
			}
		}
		return true
	}

	required := mrcCacheFiles
	if meta.ColorMode == "bw" {
		required = bwCacheFiles
	}
	for _, f := range required {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}
