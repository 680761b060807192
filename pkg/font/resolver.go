package font

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
)

// SystemResolver locates an on-disk outline file for a PDF base-font
// name when the font program isn't embedded, searching one or more
// font directories by family name and style. Each resolver indexes its
// directories once, on first use, and shares that read-only index
// across all later lookups.
type SystemResolver struct {
	dirs []string

	once  sync.Once
	index map[string][]string // lower-case family name -> candidate file paths
}

// NewSystemResolver builds a resolver scoped to dirs (e.g.
// "/usr/share/fonts/truetype/liberation").
func NewSystemResolver(dirs ...string) *SystemResolver {
	return &SystemResolver{dirs: dirs}
}

func (r *SystemResolver) ensureIndex() {
	r.once.Do(func() {
		r.index = make(map[string][]string)
		for _, dir := range r.dirs {
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || info.IsDir() {
					return nil
				}
				ext := strings.ToLower(filepath.Ext(path))
				if ext != ".ttf" && ext != ".otf" && ext != ".ttc" {
					return nil
				}
				base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ext))
				family := familyKey(base)
				r.index[family] = append(r.index[family], path)
				return nil
			})
		}
	})
}

func familyKey(fileBase string) string {
	for _, sep := range []string{"-bolditalic", "-boldoblique", "-bold", "-italic", "-oblique", "-regular"} {
		if i := strings.Index(fileBase, sep); i >= 0 {
			fileBase = fileBase[:i]
		}
	}
	return strings.TrimSpace(fileBase)
}

// Resolve finds a font program for baseFontName, preferring an exact
// family+style match and falling back through Substitute's well-known
// substitutes.
func (r *SystemResolver) Resolve(baseFontName string) ([]byte, error) {
	r.ensureIndex()

	style := ParseStyle(baseFontName)
	family := strings.ToLower(strings.TrimSuffix(baseFontName, filepath.Ext(baseFontName)))
	if path, ok := r.pickFile(family, style); ok {
		return os.ReadFile(path)
	}

	substitute := strings.ToLower(strings.ReplaceAll(Substitute(baseFontName), " ", ""))
	if path, ok := r.pickFile(substitute, style); ok {
		log.Parse.Printf("Resolve: substituting %q for unresolved font %q\n", Substitute(baseFontName), baseFontName)
		return os.ReadFile(path)
	}

	return nil, errtyp.Newf(errtyp.Render, "no system font file found for %q or its substitute", baseFontName)
}

func (r *SystemResolver) pickFile(familyLower string, style Style) (string, bool) {
	key := familyKey(familyLower)
	candidates, ok := r.index[key]
	if !ok || len(candidates) == 0 {
		return "", false
	}

	want := func(name string) bool {
		n := strings.ToLower(name)
		return strings.Contains(n, "bold") == style.Bold &&
			(strings.Contains(n, "italic") || strings.Contains(n, "oblique")) == style.Italic
	}
	for _, c := range candidates {
		if want(c) {
			return c, true
		}
	}
	return candidates[0], true
}
