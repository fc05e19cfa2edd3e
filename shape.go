package dbbind

import (
	"reflect"
	"sort"

	"github.com/zoobzio/dbbind/internal/reflectx"
)

// Shape is the recognised form of a Bind input.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeExplicitList
	ShapeBag
	ShapeRecord
	ShapeUnsupported
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeExplicitList:
		return "explicit_list"
	case ShapeBag:
		return "bag"
	case ShapeRecord:
		return "record"
	default:
		return "unsupported"
	}
}

// classified is the outcome of classify: exactly one of list, bag or record
// is set, according to shape.
type classified struct {
	list   PropertyValues
	bag    KeyValues
	record reflect.Value
	shape  Shape
}

// Classify reports which shape Bind would treat input as.
func Classify(input any) Shape {
	return classify(input).shape
}

// classify decides the input shape once. Precedence: explicit list, key/value
// bag, struct record; nil inputs (including typed nil pointers and maps) are
// absent.
func classify(input any) classified {
	if input == nil {
		return classified{shape: ShapeAbsent}
	}

	switch v := input.(type) {
	case PropertyValues:
		return classified{shape: ShapeExplicitList, list: v}
	case []PropertyValue:
		return classified{shape: ShapeExplicitList, list: v}
	case *Bag:
		if v == nil {
			return classified{shape: ShapeAbsent}
		}
		return classified{shape: ShapeBag, bag: v}
	}

	rv := reflect.ValueOf(input)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map) && rv.IsNil() {
		return classified{shape: ShapeAbsent}
	}
	if kv, ok := input.(KeyValues); ok {
		return classified{shape: ShapeBag, bag: kv}
	}

	rv, ok := reflectx.Indirect(rv)
	if !ok {
		return classified{shape: ShapeAbsent}
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return classified{shape: ShapeUnsupported}
		}
		if rv.IsNil() {
			return classified{shape: ShapeAbsent}
		}
		return classified{shape: ShapeBag, bag: newSortedMap(rv)}
	case reflect.Struct:
		return classified{shape: ShapeRecord, record: rv}
	default:
		return classified{shape: ShapeUnsupported}
	}
}

// sortedMap exposes a string-keyed Go map as KeyValues in ascending key
// order, since map iteration order is unspecified.
type sortedMap struct {
	rv   reflect.Value
	keys []reflect.Value
}

func newSortedMap(rv reflect.Value) *sortedMap {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return &sortedMap{rv: rv, keys: keys}
}

func (m *sortedMap) Range(fn func(key string, value any) bool) {
	for _, k := range m.keys {
		if !fn(k.String(), m.rv.MapIndex(k).Interface()) {
			return
		}
	}
}
