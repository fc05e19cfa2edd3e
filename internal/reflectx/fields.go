package reflectx

import "reflect"

// StructField is one bindable field of a struct type, in declaration order.
// Fields of embedded structs are flattened into the parent.
type StructField struct {
	Field reflect.StructField
	Index []int
}

// Fields lists the exported fields of struct type t. Anonymous struct (or
// pointer to struct) fields are flattened; other anonymous fields are kept
// as regular fields under their type name.
func Fields(t reflect.Type) []StructField {
	var out []StructField
	collect(t, nil, &out)
	return out
}

func collect(t reflect.Type, parent []int, out *[]StructField) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append(make([]int, 0, len(parent)+1), parent...), i)

		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && f.Tag.Get("db") == "" {
				collect(ft, index, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		*out = append(*out, StructField{Field: f, Index: index})
	}
}

// FieldValue reads the field at index from struct value v. A nil embedded
// pointer along the path yields an invalid value and ok=false.
func FieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	fv, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}
