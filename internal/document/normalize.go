package document

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Field-name candidates, in priority order. Engines have shipped chunk
// records both as JSON maps and as typed structs, with key names that differ
// per chunk category (tables vs. forms vs. math), so each field is resolved
// independently against its own candidate list.
var (
	bboxMapKeys    = []string{"bbox", "box"}
	bboxAttrNames  = []string{"bbox", "box", "bounding_box"}
	textFieldNames = []string{"text", "content", "markdown"}
	typeMapKeys    = []string{"type", "category"}
	typeAttrNames  = []string{"type", "category", "kind"}
)

const maxChunkText = 500

// NormalizeChunk converts one raw structural record of unknown shape into a
// canonical Chunk for the given 1-based page number. It never fails: missing
// or malformed fields degrade to their defaults (nil bbox, empty text,
// type "unknown").
func NormalizeChunk(raw any, pageNum int) Chunk {
	ch := Chunk{Page: pageNum, Type: "unknown"}

	src, mapping := fieldSourceFor(raw)
	if src == nil {
		return ch
	}

	bboxNames, typeNames := bboxAttrNames, typeAttrNames
	if mapping {
		bboxNames, typeNames = bboxMapKeys, typeMapKeys
	}

	if v, ok := src.resolve(bboxNames); ok {
		ch.Bbox = coerceBbox(v)
	}
	if v, ok := src.resolve(textFieldNames); ok {
		ch.Text = truncateRunes(coerceString(v), maxChunkText)
	}
	if v, ok := src.resolve(typeNames); ok {
		ch.Type = coerceString(v)
	}
	return ch
}

// fieldSource resolves a field from one of several record shapes by trying
// candidate names in order.
type fieldSource interface {
	resolve(names []string) (any, bool)
}

// fieldSourceFor dispatches on the record's runtime shape. The second return
// value reports whether the record is a key-value mapping.
func fieldSourceFor(raw any) (fieldSource, bool) {
	if raw == nil {
		return nil, false
	}
	if m, ok := raw.(map[string]any); ok {
		return mapSource(m), true
	}

	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		return reflectMapSource{v}, true
	}
	if v.Kind() == reflect.Struct {
		return structSource{v}, false
	}
	return nil, false
}

type mapSource map[string]any

func (m mapSource) resolve(names []string) (any, bool) {
	for _, n := range names {
		if v, ok := m[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// reflectMapSource handles string-keyed maps with concrete value types,
// e.g. map[string]string.
type reflectMapSource struct {
	v reflect.Value
}

func (m reflectMapSource) resolve(names []string) (any, bool) {
	keyType := m.v.Type().Key()
	for _, n := range names {
		elem := m.v.MapIndex(reflect.ValueOf(n).Convert(keyType))
		if elem.IsValid() && !isNilValue(elem) {
			return elem.Interface(), true
		}
	}
	return nil, false
}

// structSource resolves exported fields by name, matched case-insensitively
// and underscore-insensitively so that BoundingBox matches "bounding_box".
type structSource struct {
	v reflect.Value
}

func (s structSource) resolve(names []string) (any, bool) {
	for _, n := range names {
		want := foldName(n)
		f := s.v.FieldByNameFunc(func(field string) bool {
			return foldName(field) == want
		})
		if f.IsValid() && f.CanInterface() && !isNilValue(f) {
			return f.Interface(), true
		}
	}
	return nil, false
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// coerceBbox converts a resolved bounding-box value into exactly 4 floats
// rounded to 2 decimals. Fewer than 4 elements, a non-sequence value, or any
// element that cannot be read as a number yields nil (bbox absent), never an
// error. Slicing to 4 happens before rounding.
func coerceBbox(v any) []float64 {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	if rv.Len() < 4 {
		return nil
	}

	out := make([]float64, 4)
	for i := 0; i < 4; i++ {
		f, ok := toFloat(rv.Index(i))
		if !ok {
			return nil
		}
		out[i] = math.Round(f*100) / 100
	}
	return out
}

func toFloat(v reflect.Value) (float64, bool) {
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.String:
		// Also covers json.Number, whose underlying kind is string.
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
