package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
)

// ParsePageRange parses a comma-separated page-range string such as
// "1, 3, 5-10, 15" into a sorted, deduplicated list of 1-based page
// numbers. "5-3" (start > end) and "" are errors.
func ParsePageRange(s string) ([]uint32, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errtyp.New(errtyp.Config, "page range cannot be empty")
	}

	var pages []uint32
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			a, err := strconv.ParseUint(strings.TrimSpace(start), 10, 32)
			if err != nil {
				return nil, errtyp.Newf(errtyp.Config, "invalid page number in range: %q", start)
			}
			b, err := strconv.ParseUint(strings.TrimSpace(end), 10, 32)
			if err != nil {
				return nil, errtyp.Newf(errtyp.Config, "invalid page number in range: %q", end)
			}
			if a > b {
				return nil, errtyp.Newf(errtyp.Config, "invalid page range: start (%d) > end (%d)", a, b)
			}
			if a == 0 {
				return nil, errtyp.Newf(errtyp.Config, "invalid page range: %q (pages are 1-based)", part)
			}
			for p := a; p <= b; p++ {
				pages = append(pages, uint32(p))
			}
		} else {
			p, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				return nil, errtyp.Newf(errtyp.Config, "invalid page number: %q", part)
			}
			if p == 0 {
				return nil, errtyp.Newf(errtyp.Config, "invalid page number: %q (pages are 1-based)", part)
			}
			pages = append(pages, uint32(p))
		}
	}

	if len(pages) == 0 {
		return nil, errtyp.New(errtyp.Config, "page range resolved to empty set")
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })
	pages = dedupSorted(pages)
	return pages, nil
}

func dedupSorted(pages []uint32) []uint32 {
	out := pages[:0:0]
	for i, p := range pages {
		if i == 0 || p != pages[i-1] {
			out = append(out, p)
		}
	}
	return out
}

// PageList is a job-file page override list. It accepts either a single
// comma-separated string ("1, 3, 5-10") or a YAML sequence mixing bare
// integers and range strings ([1, 3, "5-10", 15]).
type PageList []uint32

// UnmarshalYAML implements the custom "accept either shape" decoding
// grounded on the original job-file format's deserialize_pages visitor.
func (p *PageList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		pages, err := ParsePageRange(asString)
		if err != nil {
			return err
		}
		*p = PageList(pages)
		return nil
	}

	var elems []interface{}
	if err := unmarshal(&elems); err != nil {
		return err
	}

	var pages []uint32
	for _, e := range elems {
		switch v := e.(type) {
		case int:
			if v < 1 {
				return errtyp.Newf(errtyp.Config, "invalid page number: %d (pages are 1-based)", v)
			}
			pages = append(pages, uint32(v))
		case string:
			parsed, err := ParsePageRange(v)
			if err != nil {
				return err
			}
			pages = append(pages, parsed...)
		default:
			return fmt.Errorf("page list element must be an integer or range string, got %T", e)
		}
	}

	if len(pages) == 0 {
		return errtyp.New(errtyp.Config, "page sequence cannot be empty")
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })
	*p = PageList(dedupSorted(pages))
	return nil
}
