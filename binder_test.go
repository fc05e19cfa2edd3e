package dbbind

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

type labelled struct {
	ID    int
	Label string `dbtype:"nvarchar"`
}

type profile struct {
	UserID   int64           `db:"user_id"`
	Nick     *string         `db:"nick"`
	Score    sql.NullFloat64 `db:"score"`
	Tags     []string        `db:"tags"`
	Settings map[string]any  `db:"settings" dbtype:"json"`
	Seen     time.Time       `db:"seen" dbtype:"datetimeoffset"`
}

type withEmbeddedPointer struct {
	ID int `db:"id"`
	*Audit
}

// failingSink accepts limit appends and then fails.
type failingSink struct {
	Collector
	limit int
}

var errSinkFull = errors.New("sink full")

func (s *failingSink) Append(name string, value any, dbType DbType) error {
	if len(s.Triples) >= s.limit {
		return errSinkFull
	}
	return s.Collector.Append(name, value, dbType)
}

func intRegistry(t *testing.T) *Registry {
	t.Helper()
	rb := NewRegistryBuilder()
	if err := MapType[int](rb, Integer); err != nil {
		t.Fatal(err)
	}
	if err := MapType[string](rb, VarChar); err != nil {
		t.Fatal(err)
	}
	return rb.Build()
}

func assertTriples(t *testing.T, got []Triple, want []Triple) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d triples %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].DbType != want[i].DbType || !reflect.DeepEqual(got[i].Value, want[i].Value) {
			t.Errorf("triple %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBind_Absent(t *testing.T) {
	var nilBag *Bag
	var nilRecord *labelled
	for _, input := range []any{nil, nilBag, nilRecord} {
		calls := 0
		sink := SinkFunc(func(string, any, DbType) error {
			calls++
			return nil
		})
		if err := New().Bind(sink, input); err != nil {
			t.Fatalf("Bind(%T): %v", input, err)
		}
		if calls != 0 {
			t.Errorf("Bind(%T) appended %d parameters", input, calls)
		}
	}
}

func TestBind_NilSink(t *testing.T) {
	if err := New().Bind(nil, NewBag("a", 1)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBind_Unsupported(t *testing.T) {
	var c Collector
	err := New().Bind(&c, 42)
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "int") {
		t.Errorf("error should name the input type: %v", err)
	}
}

func TestBind_BagWithoutRegistry(t *testing.T) {
	triples, err := New().Collect(NewBag("Age", 30, "Name", "Ann"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "Age", Value: 30},
		{Name: "Name", Value: "Ann"},
	})
}

func TestBind_BagWithRegistry(t *testing.T) {
	b := New(WithRegistry(intRegistry(t)))
	nick := "ann"
	triples, err := b.Collect(NewBag("Age", 30, "Name", "Ann", "Nick", &nick, "Missing", nil, "Rate", 1.5))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "Age", Value: 30, DbType: Integer},
		{Name: "Name", Value: "Ann", DbType: VarChar},
		{Name: "Nick", Value: "ann", DbType: VarChar},
		{Name: "Missing", Value: Null},
		{Name: "Rate", Value: 1.5},
	})
}

func TestBind_BagNullableValueResolvesBaseType(t *testing.T) {
	b := New(WithRegistry(intRegistry(t)))
	triples, err := b.Collect(NewBag("name", sql.NullString{String: "x", Valid: true}))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if triples[0].DbType != VarChar {
		t.Errorf("DbType = %q, want varchar", triples[0].DbType)
	}
}

func TestBind_MapSortedKeys(t *testing.T) {
	triples, err := New().Collect(map[string]any{"b": 2, "a": 1, "c": nil})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "a", Value: 1},
		{Name: "b", Value: 2},
		{Name: "c", Value: Null},
	})
}

func TestBind_BagEmptyKey(t *testing.T) {
	var c Collector
	err := New().Bind(&c, NewBag("ok", 1, "", 2))
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	if len(c.Triples) != 1 {
		t.Errorf("entries before the failure stay appended, got %d", len(c.Triples))
	}
}

func TestBind_CommandParameter(t *testing.T) {
	rb := NewRegistryBuilder()
	if err := MapType[int64](rb, BigInt); err != nil {
		t.Fatal(err)
	}
	b := New(WithRegistry(rb.Build()))

	triples, err := b.Collect(NewBag(
		"user_id", For[profile](int32(7)),
		"settings", For[profile](`{"a":1}`),
		"nick", &CommandParameter{Value: nil, MappedTo: reflect.TypeOf(profile{})},
		"Seen", NewCommandParameter("2024-01-01", reflect.TypeOf(&profile{})),
		"nothing", (*CommandParameter)(nil),
	))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		// The mapped field's type wins over the runtime type of the value.
		{Name: "user_id", Value: int32(7), DbType: BigInt},
		{Name: "settings", Value: `{"a":1}`, DbType: JSON},
		{Name: "nick", Value: Null},
		{Name: "Seen", Value: "2024-01-01", DbType: DateTimeOffset},
		{Name: "nothing", Value: Null},
	})
}

func TestBind_CommandParameterErrors(t *testing.T) {
	tests := []struct {
		value any
		name  string
	}{
		{name: "nil mapped type", value: CommandParameter{Value: 1}},
		{name: "mapped to non-struct", value: For[int](1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Collect(NewBag("nope", tt.value))
			if !errors.Is(err, ErrResolution) {
				t.Fatalf("expected resolution error, got %v", err)
			}
		})
	}
}

func TestBind_CommandParameterUnknownField(t *testing.T) {
	b := New(WithRegistry(intRegistry(t)))
	triples, err := b.Collect(NewBag("missing", For[profile](1), "ID", For[labelled](2)))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// The value is still bound; only its type stays absent.
	assertTriples(t, triples, []Triple{
		{Name: "missing", Value: 1},
		{Name: "ID", Value: 2, DbType: Integer},
	})
}

func TestBind_BagPointers(t *testing.T) {
	n := 5
	var tags []string
	b := New(WithRegistry(intRegistry(t)))

	triples, err := b.Collect(NewBag(
		"none", (*int)(nil),
		"some", &n,
		"tags", tags,
		"wrapped", For[labelled](&n),
		"wrappedNil", For[labelled]((*string)(nil)),
	))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "none", Value: Null, DbType: Integer},
		{Name: "some", Value: 5, DbType: Integer},
		{Name: "tags", Value: Null},
		{Name: "wrapped", Value: 5},
		{Name: "wrappedNil", Value: Null},
	})

	// Bag and record bind the same field value the same way.
	record, err := b.Collect(struct{ Age *int }{Age: &n})
	if err != nil {
		t.Fatal(err)
	}
	bag, err := b.Collect(NewBag("Age", &n))
	if err != nil {
		t.Fatal(err)
	}
	if record[0].Value != bag[0].Value || record[0].DbType != bag[0].DbType {
		t.Errorf("record %v and bag %v differ", record[0], bag[0])
	}
}

func TestBind_ListPointers(t *testing.T) {
	n := 5
	triples, err := New().Collect(PropertyValues{
		{Name: "none", Value: (*int)(nil)},
		{Name: "some", Value: &n},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "none", Value: Null},
		{Name: "some", Value: 5},
	})
}

func TestBinder_With(t *testing.T) {
	b := New()
	unescaped := b.With(WithArrayNameEscaping(false))

	var c Collector
	names, err := unescaped.ExpandArray(&c, "ids", []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if names[0] != "ids0" {
		t.Errorf("copy should not escape, got %q", names[0])
	}
	names, err = b.ExpandArray(&c, "ids", []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if names[0] != "_ids0" {
		t.Errorf("original must keep escaping, got %q", names[0])
	}
	if unescaped.Catalog() != b.Catalog() {
		t.Error("copy should share the catalog")
	}
}

func TestBind_Record(t *testing.T) {
	b := New(WithRegistry(intRegistry(t)))
	triples, err := b.Collect(labelled{ID: 1, Label: "x"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// The field declaration wins over the registry entry for string.
	assertTriples(t, triples, []Triple{
		{Name: "ID", Value: 1, DbType: Integer},
		{Name: "Label", Value: "x", DbType: NVarChar},
	})
}

func TestBind_RecordNullables(t *testing.T) {
	rb := StandardRegistry()
	b := New(WithRegistry(rb.Build()))
	seen := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	nick := "zed"

	triples, err := b.Collect(&profile{UserID: 3, Nick: &nick, Score: sql.NullFloat64{Float64: 2.5, Valid: true}, Seen: seen})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "user_id", Value: int64(3), DbType: BigInt},
		{Name: "nick", Value: "zed", DbType: NVarChar},
		{Name: "score", Value: sql.NullFloat64{Float64: 2.5, Valid: true}, DbType: Double},
		{Name: "tags", Value: Null},
		{Name: "settings", Value: Null, DbType: JSON},
		{Name: "seen", Value: seen, DbType: DateTimeOffset},
	})
}

func TestBind_RecordNilEmbeddedPointer(t *testing.T) {
	triples, err := New().Collect(withEmbeddedPointer{ID: 1})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	assertTriples(t, triples, []Triple{
		{Name: "id", Value: 1},
		{Name: "CreatedAt", Value: Null},
		{Name: "updated_by", Value: Null},
	})
}

func TestBind_RecordResolutionError(t *testing.T) {
	type broken struct {
		A string `dbtype:"nope"`
	}
	var c Collector
	err := New().Bind(&c, broken{})
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Field != "A" {
		t.Fatalf("expected resolution error for A, got %v", err)
	}
	if len(c.Triples) != 0 {
		t.Error("no field may be bound when the model cannot be built")
	}
}

func TestBind_ExplicitList(t *testing.T) {
	fd := &FieldDescriptor{Name: "Email", StorageName: "email", DbType: VarChar, Type: reflect.TypeOf("")}
	untyped := &FieldDescriptor{Name: "Age", StorageName: "age", Type: reflect.TypeOf(0)}
	b := New(WithRegistry(intRegistry(t)))

	triples, err := b.Collect(PropertyValues{
		{Field: fd, Value: "a@example.com"},
		{Field: fd, Name: "email2", Value: "b@example.com", DbType: NVarChar},
		{Field: untyped, Value: 30},
		{Name: "free", Value: nil},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// Explicit lists never consult the registry.
	assertTriples(t, triples, []Triple{
		{Name: "email", Value: "a@example.com", DbType: VarChar},
		{Name: "email2", Value: "b@example.com", DbType: NVarChar},
		{Name: "age", Value: 30},
		{Name: "free", Value: Null},
	})
}

func TestBind_ExplicitListMissingName(t *testing.T) {
	var c Collector
	err := New().Bind(&c, []PropertyValue{{Name: "ok", Value: 1}, {Value: 2}})
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Field != "#1" {
		t.Fatalf("expected resolution error for element #1, got %v", err)
	}
	if len(c.Triples) != 1 {
		t.Errorf("expected the first element to stay bound, got %d", len(c.Triples))
	}
}

func TestBind_PerCallOverride(t *testing.T) {
	b := New(WithRegistry(intRegistry(t)))

	tests := []struct {
		input any
		name  string
	}{
		{name: "record", input: labelled{ID: 1, Label: "x"}},
		{name: "bag", input: NewBag("ID", 1, "Label", For[labelled]("x"))},
		{name: "list", input: PropertyValues{{Name: "ID", Value: 1}, {Name: "Label", Value: "x", DbType: NVarChar}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triples, err := b.Collect(tt.input, WithDbType("Label", Text), WithDbType("unused", Guid))
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if triples[1].Name != "Label" || triples[1].DbType != Text {
				t.Errorf("Label triple = %v, want the per-call override", triples[1])
			}
			if triples[0].DbType == Text {
				t.Error("override must only apply to the named parameter")
			}
		})
	}
}

func TestBind_SinkErrorStops(t *testing.T) {
	sink := &failingSink{limit: 1}
	err := New().Bind(sink, NewBag("a", 1, "b", 2, "c", 3))
	if !errors.Is(err, errSinkFull) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !strings.Contains(err.Error(), "append b") {
		t.Errorf("error should name the parameter: %v", err)
	}
	if len(sink.Triples) != 1 {
		t.Errorf("expected one appended triple, got %d", len(sink.Triples))
	}
}

func TestBind_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var c Collector
	if err := New(WithLogger(logger)).Bind(&c, NewBag("a", 1)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "bound parameters") || !strings.Contains(out, "shape=bag") || !strings.Contains(out, "count=1") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestExpandArray(t *testing.T) {
	var c Collector
	names, err := New(WithRegistry(intRegistry(t))).ExpandArray(&c, "ids", []int{1, 2, 3})
	if err != nil {
		t.Fatalf("ExpandArray: %v", err)
	}
	want := []string{"_ids0", "_ids1", "_ids2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	// No type resolution, even with a registry entry for int.
	assertTriples(t, c.Triples, []Triple{
		{Name: "_ids0", Value: 1},
		{Name: "_ids1", Value: 2},
		{Name: "_ids2", Value: 3},
	})
}

func TestExpandArray_Variants(t *testing.T) {
	one := 1
	tests := []struct {
		values any
		name   string
		base   string
		want   []Triple
		escape bool
	}{
		{name: "unescaped", base: "ids", values: []int{7}, want: []Triple{{Name: "ids0", Value: 7}}},
		{name: "array", base: "p", values: [2]string{"a", "b"}, escape: true, want: []Triple{{Name: "_p0", Value: "a"}, {Name: "_p1", Value: "b"}}},
		{name: "pointer to slice", base: "p", values: &[]int{5}, escape: true, want: []Triple{{Name: "_p0", Value: 5}}},
		{name: "nil elements", base: "p", values: []*int{nil, &one}, escape: true, want: []Triple{{Name: "_p0", Value: Null}, {Name: "_p1", Value: 1}}},
		{name: "interfaces", base: "p", values: []any{"x", nil}, escape: true, want: []Triple{{Name: "_p0", Value: "x"}, {Name: "_p1", Value: Null}}},
		{name: "sanitised base", base: "user_ids", values: []int{1}, escape: true, want: []Triple{{Name: "_userids0", Value: 1}}},
		{name: "empty", base: "p", values: []int{}, escape: true},
		{name: "nil", base: "p", values: nil, escape: true},
		{name: "nil slice", base: "p", values: []int(nil), escape: true},
		{name: "nil pointer", base: "p", values: (*[]int)(nil), escape: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Collector
			names, err := New(WithArrayNameEscaping(tt.escape)).ExpandArray(&c, tt.base, tt.values)
			if err != nil {
				t.Fatalf("ExpandArray: %v", err)
			}
			assertTriples(t, c.Triples, tt.want)
			if len(names) != len(tt.want) {
				t.Errorf("names = %v", names)
			}
		})
	}
}

func TestExpandArray_Errors(t *testing.T) {
	var c Collector
	b := New()
	if _, err := b.ExpandArray(nil, "ids", []int{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil sink: got %v", err)
	}
	if _, err := b.ExpandArray(&c, "", []int{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty name: got %v", err)
	}
	for _, v := range []any{42, "abc", []byte("abc"), [16]byte{1}, &[4]uint8{}, map[string]int{}} {
		if _, err := b.ExpandArray(&c, "ids", v); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ExpandArray(%T): got %v", v, err)
		}
	}
	if len(c.Triples) != 0 {
		t.Errorf("nothing should be appended, got %v", c.Triples)
	}
}

func TestDefaultBinder(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default must return a single binder")
	}
	var c Collector
	if err := Bind(&c, NewBag("a", 1)); err != nil {
		t.Fatal(err)
	}
	names, err := ExpandArray(&c, "ids", []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if names[0] != "_ids0" || len(c.Triples) != 2 {
		t.Errorf("unexpected result: %v %v", names, c.Triples)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	_ = c.Append("a", 1, Integer)
	_ = c.Append("b", Null, Unspecified)

	if got := c.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names = %v", got)
	}
	if got := c.Values(); got[0] != 1 || got[1] != nil {
		t.Errorf("Values = %v, want Null reported as nil", got)
	}
	if tr, ok := c.Lookup("a"); !ok || tr.DbType != Integer {
		t.Errorf("Lookup(a) = %v, %v", tr, ok)
	}
	if _, ok := c.Lookup("z"); ok {
		t.Error("Lookup(z) should miss")
	}
	if c.Triples[0].String() != "a (1) integer" || c.Triples[1].String() != "b (NULL)" {
		t.Errorf("String = %q, %q", c.Triples[0].String(), c.Triples[1].String())
	}
	c.Reset()
	if len(c.Triples) != 0 {
		t.Error("Reset should clear")
	}
}

func TestNull(t *testing.T) {
	v, err := Null.Value()
	if v != nil || err != nil {
		t.Errorf("Null.Value() = %v, %v", v, err)
	}
	if !IsNull(Null) || IsNull(nil) || IsNull(0) {
		t.Error("IsNull misreports")
	}
}
