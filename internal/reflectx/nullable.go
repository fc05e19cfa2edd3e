// Package reflectx holds the reflection helpers shared by the binder: nullable
// unwrapping and struct field enumeration.
package reflectx

import (
	"database/sql"
	"reflect"
	"strings"
)

// sql.Null* wrappers and the base type they carry.
var nullWrappers = map[reflect.Type]reflect.Type{
	reflect.TypeOf(sql.NullString{}):  reflect.TypeOf(""),
	reflect.TypeOf(sql.NullInt16{}):   reflect.TypeOf(int16(0)),
	reflect.TypeOf(sql.NullInt32{}):   reflect.TypeOf(int32(0)),
	reflect.TypeOf(sql.NullInt64{}):   reflect.TypeOf(int64(0)),
	reflect.TypeOf(sql.NullFloat64{}): reflect.TypeOf(float64(0)),
	reflect.TypeOf(sql.NullBool{}):    reflect.TypeOf(false),
	reflect.TypeOf(sql.NullByte{}):    reflect.TypeOf(byte(0)),
	reflect.TypeOf(sql.NullTime{}):    reflect.TypeOf(sql.NullTime{}.Time),
}

// Underlying strips nullability from t: pointers are dereferenced, sql.Null*
// wrappers and the generic sql.Null[T] resolve to their value type. A nil type
// stays nil.
func Underlying(t reflect.Type) reflect.Type {
	for t != nil {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
			continue
		}
		if base, ok := nullWrappers[t]; ok {
			return base
		}
		if base, ok := genericNull(t); ok {
			t = base
			continue
		}
		return t
	}
	return nil
}

// genericNull recognises sql.Null[T] by package, name prefix and layout.
func genericNull(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || t.PkgPath() != "database/sql" {
		return nil, false
	}
	if !strings.HasPrefix(t.Name(), "Null[") || t.NumField() != 2 {
		return nil, false
	}
	v, ok := t.FieldByName("V")
	if !ok {
		return nil, false
	}
	if valid, ok := t.FieldByName("Valid"); !ok || valid.Type.Kind() != reflect.Bool {
		return nil, false
	}
	return v.Type, true
}

// Indirect follows pointers on v. ok is false when a nil pointer is met.
func Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}
