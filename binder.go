package dbbind

import (
	"database/sql/driver"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"github.com/zoobzio/dbbind/internal/reflectx"
)

// Binder converts application values into bound parameters. A Binder holds
// only read-only collaborators (registry, catalog) and is safe for concurrent
// use.
type Binder struct {
	registry         *Registry
	catalog          *Catalog
	logger           *slog.Logger
	escapeArrayNames bool
}

// Option configures a Binder.
type Option func(*Binder)

// WithRegistry sets the type registry consulted when no explicit type is
// declared. Without one, undeclared types defer to the provider.
func WithRegistry(r *Registry) Option {
	return func(b *Binder) { b.registry = r }
}

// WithCatalog sets the model catalog used for struct inputs and
// CommandParameter lookups.
func WithCatalog(c *Catalog) Option {
	return func(b *Binder) { b.catalog = c }
}

// WithLogger sets the logger. Bind logs at debug level only.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) { b.logger = l }
}

// WithArrayNameEscaping controls whether ExpandArray prefixes generated names
// with an underscore. It is on by default.
func WithArrayNameEscaping(on bool) Option {
	return func(b *Binder) { b.escapeArrayNames = on }
}

// New creates a Binder.
func New(opts ...Option) *Binder {
	b := &Binder{escapeArrayNames: true}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = discardLogger()
	}
	if b.catalog == nil {
		b.catalog = NewCatalog(nil, b.logger)
	}
	return b
}

// With returns a copy of b with opts applied. b is left unchanged.
func (b *Binder) With(opts ...Option) *Binder {
	c := *b
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Registry returns the binder's type registry (possibly nil).
func (b *Binder) Registry() *Registry { return b.registry }

// Catalog returns the binder's model catalog.
func (b *Binder) Catalog() *Catalog { return b.catalog }

type bindConfig struct {
	overrides map[string]DbType
}

// BindOption adjusts a single Bind call.
type BindOption func(*bindConfig)

// WithDbType forces the database type of the parameter bound under name for
// this call. It takes precedence over field declarations and the registry.
func WithDbType(name string, dt DbType) BindOption {
	return func(c *bindConfig) {
		if c.overrides == nil {
			c.overrides = make(map[string]DbType)
		}
		c.overrides[name] = dt
	}
}

// Bind classifies input and appends one parameter per field or entry to sink,
// in the input's natural order. A nil input appends nothing.
//
// On error Bind stops; parameters already appended stay in the sink.
func (b *Binder) Bind(sink Sink, input any, opts ...BindOption) error {
	if sink == nil {
		return invalidArgument("sink is required")
	}
	var cfg bindConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := classify(input)
	var (
		n   int
		err error
	)
	switch c.shape {
	case ShapeAbsent:
		return nil
	case ShapeExplicitList:
		n, err = b.bindList(sink, c.list, &cfg)
	case ShapeBag:
		n, err = b.bindBag(sink, c.bag, &cfg)
	case ShapeRecord:
		n, err = b.bindRecord(sink, c.record, &cfg)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
	if err != nil {
		return err
	}
	b.logger.Debug("bound parameters",
		slog.String("shape", c.shape.String()),
		slog.Int("count", n))
	return nil
}

// Collect binds input into a fresh Collector and returns its triples.
func (b *Binder) Collect(input any, opts ...BindOption) ([]Triple, error) {
	var c Collector
	if err := b.Bind(&c, input, opts...); err != nil {
		return c.Triples, err
	}
	return c.Triples, nil
}

func (b *Binder) bindList(sink Sink, list PropertyValues, cfg *bindConfig) (int, error) {
	for i, pv := range list {
		name := pv.Name
		if name == "" && pv.Field != nil {
			name = pv.Field.StorageName
		}
		if name == "" {
			return i, NewResolutionError("", "#"+strconv.Itoa(i), "parameter list element has no name")
		}
		dt := pv.DbType
		if !dt.IsSpecified() && pv.Field != nil {
			dt = pv.Field.DbType
		}
		if err := b.emit(sink, name, unwrap(pv.Value), dt, cfg); err != nil {
			return i, err
		}
	}
	return len(list), nil
}

func (b *Binder) bindBag(sink Sink, kv KeyValues, cfg *bindConfig) (int, error) {
	var (
		n   int
		err error
	)
	kv.Range(func(key string, value any) bool {
		if key == "" {
			err = NewResolutionError("", "", "bag entry has an empty key")
			return false
		}
		var dt DbType
		switch cp := value.(type) {
		case CommandParameter:
			dt, err = b.resolveMapped(key, cp)
			value = cp.Value
		case *CommandParameter:
			if cp == nil {
				value = nil
				break
			}
			dt, err = b.resolveMapped(key, *cp)
			value = cp.Value
		default:
			dt, _ = b.registry.ResolveValue(value)
		}
		if err != nil {
			return false
		}
		if err = b.emit(sink, key, unwrap(value), dt, cfg); err != nil {
			return false
		}
		n++
		return true
	})
	return n, err
}

// resolveMapped resolves the type of a wrapped bag value through the field
// named key on the wrapper's model. A key naming no field leaves the type
// absent.
func (b *Binder) resolveMapped(key string, cp CommandParameter) (DbType, error) {
	if cp.MappedTo == nil {
		return Unspecified, NewResolutionError("", key, "command parameter has no mapped type")
	}
	model, err := b.catalog.Model(cp.MappedTo)
	if err != nil {
		return Unspecified, err
	}
	fd, ok := model.Field(key)
	if !ok {
		return Unspecified, nil
	}
	if fd.DbType.IsSpecified() {
		return fd.DbType, nil
	}
	dt, _ := b.registry.Resolve(fd.Type)
	return dt, nil
}

func (b *Binder) bindRecord(sink Sink, rv reflect.Value, cfg *bindConfig) (int, error) {
	model, err := b.catalog.Model(rv.Type())
	if err != nil {
		return 0, err
	}
	for i, fd := range model.Fields {
		var value any
		if fv, ok := reflectx.FieldValue(rv, fd.Index); ok {
			value = valueOf(fv)
		}
		dt := fd.DbType
		if !dt.IsSpecified() {
			dt, _ = b.registry.Resolve(fd.Type)
		}
		if err := b.emit(sink, fd.StorageName, value, dt, cfg); err != nil {
			return i, err
		}
	}
	return len(model.Fields), nil
}

// ExpandArray binds each element of values as "<baseName><index>", starting
// at zero, and returns the generated names in order. Names are prefixed with
// an underscore unless escaping was disabled. No type resolution is done.
// values must be a slice or array; byte slices and arrays such as uuid.UUID
// are scalars and are rejected. A nil
// or empty sequence binds nothing.
func (b *Binder) ExpandArray(sink Sink, baseName string, values any) ([]string, error) {
	if sink == nil {
		return nil, invalidArgument("sink is required")
	}
	if baseName == "" {
		return nil, invalidArgument("array parameter name is required")
	}
	if values == nil {
		return nil, nil
	}
	rv, ok := reflectx.Indirect(reflect.ValueOf(values))
	if !ok {
		return nil, nil
	}
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, invalidArgument("%T is a scalar byte sequence", values)
		}
	default:
		return nil, invalidArgument("%T is not a slice or array", values)
	}

	names := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		p, err := NewParameter(baseName+strconv.Itoa(i), valueOf(rv.Index(i)), b.escapeArrayNames)
		if err != nil {
			return names, err
		}
		if err := sink.Append(p.Name(), coalesce(p.Value()), Unspecified); err != nil {
			return names, fmt.Errorf("append %s: %w", p.Name(), err)
		}
		names = append(names, p.Name())
	}
	b.logger.Debug("expanded array parameter",
		slog.String("name", baseName),
		slog.Int("count", len(names)))
	return names, nil
}

func (b *Binder) emit(sink Sink, name string, value any, dt DbType, cfg *bindConfig) error {
	if override, ok := cfg.overrides[name]; ok {
		dt = override
	}
	if err := sink.Append(name, coalesce(value), dt); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// unwrap applies valueOf to a loosely typed value so bag and list entries
// bind like record fields.
func unwrap(v any) any {
	return valueOf(reflect.ValueOf(v))
}

// valueOf unwraps v. Nil pointers, interfaces, maps and slices are reported
// as nil; other pointers are dereferenced unless they implement driver.Valuer.
func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Type().Implements(valuerType) {
			return v.Interface()
		}
		return valueOf(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return valueOf(v.Elem())
	case reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

var (
	defaultBinder     *Binder
	defaultBinderOnce sync.Once
)

// Default returns the package-level Binder used by Bind and ExpandArray. It
// has no type registry and a tag-driven catalog.
func Default() *Binder {
	defaultBinderOnce.Do(func() { defaultBinder = New() })
	return defaultBinder
}

// Bind binds input with the default Binder.
func Bind(sink Sink, input any, opts ...BindOption) error {
	return Default().Bind(sink, input, opts...)
}

// ExpandArray expands values with the default Binder.
func ExpandArray(sink Sink, baseName string, values any) ([]string, error) {
	return Default().ExpandArray(sink, baseName, values)
}
