/*
Copyright 2018 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pdfmodel

import (
	"fmt"
	"sort"
	"strings"
)

// Dict represents a PDF dict object: an unordered map of name keys (the
// leading `/` is not stored) to values.
type Dict map[string]Object

// NewDict returns a new, empty Dict.
func NewDict() Dict {
	return Dict(map[string]Object{})
}

// Len returns the number of entries.
func (d Dict) Len() int {
	return len(d)
}

// Insert adds a new entry, refusing to overwrite an existing key.
func (d Dict) Insert(key string, value Object) bool {
	if _, found := d[key]; found {
		return false
	}
	d[key] = value
	return true
}

// Update sets (overwriting if present) the value for key. A nil value is
// a no-op.
func (d Dict) Update(key string, value Object) {
	if value != nil {
		d[key] = value
	}
}

// Find returns the object for key and whether it was present.
func (d Dict) Find(key string) (Object, bool) {
	v, ok := d[key]
	return v, ok
}

// Delete removes key and returns its former value, or nil.
func (d Dict) Delete(key string) Object {
	v, found := d[key]
	if !found {
		return nil
	}
	delete(d, key)
	return v
}

// NameEntry returns the decoded Name value for key, or nil.
func (d Dict) NameEntry(key string) *string {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if n, ok := v.(Name); ok {
		s := n.Value()
		return &s
	}
	return nil
}

// IntEntry returns the Integer value for key, or nil.
func (d Dict) IntEntry(key string) *int {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if i, ok := v.(Integer); ok {
		n := i.Value()
		return &n
	}
	return nil
}

// BooleanEntry returns the Boolean value for key, or nil.
func (d Dict) BooleanEntry(key string) *bool {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if b, ok := v.(Boolean); ok {
		bv := b.Value()
		return &bv
	}
	return nil
}

// DictEntry returns the nested Dict for key, or nil.
func (d Dict) DictEntry(key string) Dict {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if dd, ok := v.(Dict); ok {
		return dd
	}
	return nil
}

// ArrayEntry returns the Array for key, or nil.
func (d Dict) ArrayEntry(key string) Array {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if a, ok := v.(Array); ok {
		return a
	}
	return nil
}

// IndirectRefEntry returns the IndirectRef for key, or nil.
func (d Dict) IndirectRefEntry(key string) *IndirectRef {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if ir, ok := v.(IndirectRef); ok {
		return &ir
	}
	return nil
}

// StreamDictEntry returns the StreamDict for key, or nil.
func (d Dict) StreamDictEntry(key string) *StreamDict {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if sd, ok := v.(StreamDict); ok {
		return &sd
	}
	return nil
}

// Type returns the /Type entry, or nil.
func (d Dict) Type() *string {
	return d.NameEntry("Type")
}

// Subtype returns the /Subtype entry, or nil.
func (d Dict) Subtype() *string {
	return d.NameEntry("Subtype")
}

// Clone performs a deep, value-level copy: nested Dict/Array/StreamDict
// entries are cloned recursively. IndirectRef entries are copied by
// value (callers performing a document-wide deep copy rewrite those
// separately, see pkg/pdfdoc).
func (d Dict) Clone() Object {
	d1 := NewDict()
	for k, v := range d {
		if v == nil {
			d1[k] = nil
			continue
		}
		d1[k] = v.Clone()
	}
	return d1
}

func (d Dict) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d Dict) String() string {
	return d.indentedString(1)
}

func (d Dict) indentedString(level int) string {
	tabstr := strings.Repeat("\t", level)
	var sb strings.Builder
	sb.WriteString("<<\n")
	for _, k := range d.sortedKeys() {
		v := d[k]
		vs := "null"
		if v != nil {
			vs = v.String()
		}
		fmt.Fprintf(&sb, "%s/%s %v\n", tabstr, k, vs)
	}
	fmt.Fprintf(&sb, "%s>>", strings.Repeat("\t", level-1))
	return sb.String()
}

// PDFString renders d using PDF dictionary syntax.
func (d Dict) PDFString() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for _, k := range d.sortedKeys() {
		v := d[k]
		sb.WriteString("/")
		sb.WriteString(EncodeName(k))
		sb.WriteString(" ")
		if v == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(v.PDFString())
		}
	}
	sb.WriteString(">>")
	return sb.String()
}
