package dbbind

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/zoobzio/dbbind/internal/reflectx"
)

// FieldDescriptor is the binding metadata of one struct field.
type FieldDescriptor struct {
	Type        reflect.Type // declared Go type
	Name        string       // Go field name
	StorageName string       // name the field binds under
	DbType      DbType       // explicit type; Unspecified defers to the registry
	Index       []int
}

// FieldOverride adjusts the metadata of a field at registration time. Zero
// fields leave the tag-derived values in place.
type FieldOverride struct {
	Field       string // Go field name
	StorageName string
	DbType      DbType
}

// Model is the binding metadata of a struct type. Fields are in declaration
// order with embedded structs flattened.
type Model struct {
	Type      reflect.Type
	Fields    []*FieldDescriptor
	byName    map[string]*FieldDescriptor
	byStorage map[string]*FieldDescriptor
}

// Field finds a field by storage name, falling back to the Go field name.
func (m *Model) Field(name string) (*FieldDescriptor, bool) {
	if f, ok := m.byStorage[name]; ok {
		return f, true
	}
	f, ok := m.byName[name]
	return f, ok
}

// NameMapper derives a storage name from a Go field name when no db tag is
// present.
type NameMapper func(field string) string

// SnakeCase maps "UserID" to "user_id" and "CreatedAt" to "created_at".
func SnakeCase(field string) string {
	runes := []rune(field)
	var b strings.Builder
	b.Grow(len(field) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LowerCase maps a field name to lower case.
func LowerCase(field string) string { return strings.ToLower(field) }

// Catalog holds per-type binding metadata. Models are built once per type,
// either explicitly through Register or on first use, and then served from
// cache.
type Catalog struct {
	names  NameMapper
	logger *slog.Logger
	models sync.Map // reflect.Type -> *Model
}

// NewCatalog creates a catalog. A nil names mapper keeps Go field names; a nil
// logger discards.
func NewCatalog(names NameMapper, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = discardLogger()
	}
	return &Catalog{names: names, logger: logger}
}

// Register builds the model of struct type t with overrides applied and
// stores it, replacing any cached model.
func (c *Catalog) Register(t reflect.Type, overrides ...FieldOverride) (*Model, error) {
	m, err := c.build(t, overrides)
	if err != nil {
		return nil, err
	}
	c.models.Store(m.Type, m)
	c.logger.Debug("registered model",
		slog.String("type", m.Type.String()),
		slog.Int("fields", len(m.Fields)),
		slog.Int("overrides", len(overrides)))
	return m, nil
}

// RegisterModel registers struct type T.
func RegisterModel[T any](c *Catalog, overrides ...FieldOverride) (*Model, error) {
	return c.Register(reflect.TypeOf((*T)(nil)).Elem(), overrides...)
}

// Model returns the model of struct type t, building it from struct tags on
// first use.
func (c *Catalog) Model(t reflect.Type) (*Model, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := c.models.Load(t); ok {
		return v.(*Model), nil
	}
	m, err := c.build(t, nil)
	if err != nil {
		return nil, err
	}
	actual, _ := c.models.LoadOrStore(m.Type, m)
	return actual.(*Model), nil
}

func (c *Catalog) build(t reflect.Type, overrides []FieldOverride) (*Model, error) {
	if t == nil {
		return nil, NewResolutionError("", "", "nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, NewResolutionError(t.String(), "", "not a struct type")
	}

	m := &Model{
		Type:      t,
		byName:    make(map[string]*FieldDescriptor),
		byStorage: make(map[string]*FieldDescriptor),
	}

	// Pick one field per Go name the way selectors do: the shallowest wins and
	// a tie at that depth is ambiguous. Excluded fields still shadow.
	type candidate struct {
		field    reflect.StructField
		index    []int
		excluded bool
		tied     bool
	}
	var walked []*candidate
	chosen := make(map[string]*candidate)
	for _, sf := range reflectx.Fields(t) {
		tag, _, _ := strings.Cut(sf.Field.Tag.Get("db"), ",")
		cand := &candidate{field: sf.Field, index: sf.Index, excluded: tag == "-"}
		walked = append(walked, cand)
		prev, seen := chosen[sf.Field.Name]
		switch {
		case !seen, len(cand.index) < len(prev.index):
			chosen[sf.Field.Name] = cand
		case len(cand.index) == len(prev.index):
			prev.tied = true
		}
	}

	for _, cand := range walked {
		f := cand.field
		if chosen[f.Name] != cand {
			continue
		}
		if cand.tied {
			return nil, NewResolutionError(t.String(), f.Name, "ambiguous promoted field")
		}
		if cand.excluded {
			continue
		}
		storage, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		if storage == "" {
			storage = f.Name
			if c.names != nil {
				storage = c.names(f.Name)
			}
		}
		dt, err := ParseDbType(f.Tag.Get("dbtype"))
		if err != nil {
			return nil, NewResolutionError(t.String(), f.Name, "invalid dbtype tag", err)
		}
		fd := &FieldDescriptor{
			Name:        f.Name,
			StorageName: storage,
			Type:        f.Type,
			DbType:      dt,
			Index:       cand.index,
		}
		m.Fields = append(m.Fields, fd)
		m.byName[fd.Name] = fd
	}

	for _, o := range overrides {
		fd, ok := m.byName[o.Field]
		if !ok {
			return nil, NewResolutionError(t.String(), o.Field, "override names an unknown field")
		}
		if o.StorageName != "" {
			fd.StorageName = o.StorageName
		}
		if o.DbType.IsSpecified() {
			dt, err := ParseDbType(string(o.DbType))
			if err != nil {
				return nil, NewResolutionError(t.String(), o.Field, "invalid override db type", err)
			}
			fd.DbType = dt
		}
	}

	for _, fd := range m.Fields {
		if !isValidIdentifier(fd.StorageName) {
			return nil, NewResolutionError(t.String(), fd.Name, fmt.Sprintf("invalid storage name %q", fd.StorageName))
		}
		if other, dup := m.byStorage[fd.StorageName]; dup {
			return nil, NewResolutionError(t.String(), fd.Name,
				fmt.Sprintf("storage name %q already used by %s", fd.StorageName, other.Name))
		}
		m.byStorage[fd.StorageName] = fd
	}
	return m, nil
}

// isValidIdentifier allows ASCII letters, digits and underscores, not
// starting with a digit.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if !((first >= 'a' && first <= 'z') ||
		(first >= 'A' && first <= 'Z') ||
		first == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '_') {
			return false
		}
	}
	return true
}
