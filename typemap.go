package dbbind

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// TypeMapSchema is the serialised form of a type map, e.g.
//
//	types:
//	  string: varchar
//	  uuid.UUID: guid
//	  time.Time: datetimeoffset
type TypeMapSchema struct {
	Types map[string]string `json:"types" yaml:"types"`
}

// Go types addressable by name in a type map.
var namedTypes = map[string]reflect.Type{
	"bool":            reflect.TypeOf(false),
	"int":             reflect.TypeOf(int(0)),
	"int8":            reflect.TypeOf(int8(0)),
	"int16":           reflect.TypeOf(int16(0)),
	"int32":           reflect.TypeOf(int32(0)),
	"int64":           reflect.TypeOf(int64(0)),
	"uint":            reflect.TypeOf(uint(0)),
	"uint8":           reflect.TypeOf(uint8(0)),
	"byte":            reflect.TypeOf(byte(0)),
	"uint16":          reflect.TypeOf(uint16(0)),
	"uint32":          reflect.TypeOf(uint32(0)),
	"uint64":          reflect.TypeOf(uint64(0)),
	"float32":         reflect.TypeOf(float32(0)),
	"float64":         reflect.TypeOf(float64(0)),
	"string":          reflect.TypeOf(""),
	"[]byte":          reflect.TypeOf([]byte(nil)),
	"json.RawMessage": reflect.TypeOf(json.RawMessage{}),
	"time.Time":       reflect.TypeOf(time.Time{}),
	"time.Duration":   reflect.TypeOf(time.Duration(0)),
	"sql.RawBytes":    reflect.TypeOf(sql.RawBytes{}),
	"uuid.UUID":       reflect.TypeOf(uuid.UUID{}),
	"civil.Date":      reflect.TypeOf(civil.Date{}),
	"civil.Time":      reflect.TypeOf(civil.Time{}),
	"civil.DateTime":  reflect.TypeOf(civil.DateTime{}),
}

// LoadTypeMap reads a YAML (or JSON) type map and applies it to b. Unknown
// Go type names and unparseable db types are errors; nothing is applied
// when any entry is invalid.
func LoadTypeMap(b *RegistryBuilder, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read type map: %w", err)
	}
	var schema TypeMapSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("parse type map: %w", err)
	}
	return b.apply(schema)
}

// LoadTypeMapFile is LoadTypeMap over the file at path.
func LoadTypeMapFile(b *RegistryBuilder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open type map: %w", err)
	}
	defer f.Close()
	return LoadTypeMap(b, f)
}

func (b *RegistryBuilder) apply(schema TypeMapSchema) error {
	names := make([]string, 0, len(schema.Types))
	for name := range schema.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make(map[reflect.Type]DbType, len(names))
	for _, name := range names {
		t, ok := namedTypes[name]
		if !ok {
			return invalidArgument("type map: unknown Go type %q", name)
		}
		dt, err := ParseDbType(schema.Types[name])
		if err != nil {
			return fmt.Errorf("type map: %s: %w", name, err)
		}
		if !dt.IsSpecified() {
			return invalidArgument("type map: %s has an empty db type", name)
		}
		resolved[t] = dt
	}
	for t, dt := range resolved {
		if err := b.Map(t, dt); err != nil {
			return err
		}
	}
	return nil
}
