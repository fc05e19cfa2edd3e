package dbbind

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/zoobzio/dbbind/internal/reflectx"
)

// Registry maps Go types to database types. It is immutable once built and
// safe for concurrent use without locking. A nil *Registry resolves nothing.
type Registry struct {
	types map[reflect.Type]DbType
}

// RegistryBuilder collects type mappings during setup. Build seals it; later
// calls to Map fail with ErrRegistrySealed.
type RegistryBuilder struct {
	types  map[reflect.Type]DbType
	mu     sync.Mutex
	sealed bool
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{types: make(map[reflect.Type]DbType)}
}

// StandardRegistry returns a builder pre-populated with mappings for common Go
// types. Callers may add or replace entries before calling Build.
func StandardRegistry() *RegistryBuilder {
	b := NewRegistryBuilder()
	for t, dt := range standardTypes() {
		b.types[t] = dt
	}
	return b
}

func standardTypes() map[reflect.Type]DbType {
	intType := BigInt
	if reflect.TypeOf(int(0)).Size() == 4 {
		intType = Integer
	}
	return map[reflect.Type]DbType{
		reflect.TypeOf(false):             Boolean,
		reflect.TypeOf(int8(0)):           TinyInt,
		reflect.TypeOf(uint8(0)):          TinyInt,
		reflect.TypeOf(int16(0)):          SmallInt,
		reflect.TypeOf(uint16(0)):         Integer,
		reflect.TypeOf(int32(0)):          Integer,
		reflect.TypeOf(uint32(0)):         BigInt,
		reflect.TypeOf(int64(0)):          BigInt,
		reflect.TypeOf(int(0)):            intType,
		reflect.TypeOf(float32(0)):        Real,
		reflect.TypeOf(float64(0)):        Double,
		reflect.TypeOf(""):                NVarChar,
		reflect.TypeOf([]byte(nil)):       VarBinary,
		reflect.TypeOf(json.RawMessage{}): JSON,
		reflect.TypeOf(time.Time{}):       DateTime2,
		reflect.TypeOf(uuid.UUID{}):       Guid,
		reflect.TypeOf(civil.Date{}):      Date,
		reflect.TypeOf(civil.Time{}):      Time,
		reflect.TypeOf(civil.DateTime{}):  DateTime2,
	}
}

// Map records that values of type t bind as dt. Nullable types (pointers,
// sql.Null*) are recorded under their base type.
func (b *RegistryBuilder) Map(t reflect.Type, dt DbType) error {
	if t == nil {
		return invalidArgument("cannot map a nil type")
	}
	if !dt.IsSpecified() {
		return invalidArgument("cannot map %s to an unspecified db type", t)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return fmt.Errorf("%w: cannot map %s", ErrRegistrySealed, t)
	}
	b.types[reflectx.Underlying(t)] = dt
	return nil
}

// MapType records that values of type T bind as dt.
func MapType[T any](b *RegistryBuilder, dt DbType) error {
	return b.Map(reflect.TypeOf((*T)(nil)).Elem(), dt)
}

// Build seals the builder and returns the immutable registry.
func (b *RegistryBuilder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	types := make(map[reflect.Type]DbType, len(b.types))
	for t, dt := range b.types {
		types[t] = dt
	}
	return &Registry{types: types}
}

// Resolve returns the database type registered for t after stripping
// nullability. ok is false when nothing is registered; that is not an error.
func (r *Registry) Resolve(t reflect.Type) (DbType, bool) {
	if r == nil || t == nil {
		return Unspecified, false
	}
	dt, ok := r.types[reflectx.Underlying(t)]
	return dt, ok
}

// ResolveValue resolves by the runtime type of v. A nil v resolves nothing.
func (r *Registry) ResolveValue(v any) (DbType, bool) {
	if v == nil {
		return Unspecified, false
	}
	return r.Resolve(reflect.TypeOf(v))
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.types)
}
