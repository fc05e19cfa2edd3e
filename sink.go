package dbbind

import (
	"database/sql/driver"
	"fmt"
)

// Sink receives bound parameters one at a time, in binding order. Providers
// implement Sink to attach parameters to a command.
type Sink interface {
	Append(name string, value any, dbType DbType) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, value any, dbType DbType) error

// Append calls f.
func (f SinkFunc) Append(name string, value any, dbType DbType) error {
	return f(name, value, dbType)
}

type nullValue struct{}

// Value implements driver.Valuer; Null binds as SQL NULL.
func (nullValue) Value() (driver.Value, error) { return nil, nil }

func (nullValue) String() string { return "NULL" }

// Null is the explicit no-value marker bound in place of nil.
var Null driver.Valuer = nullValue{}

// IsNull reports whether v is the Null marker.
func IsNull(v any) bool {
	_, ok := v.(nullValue)
	return ok
}

func coalesce(v any) any {
	if v == nil {
		return Null
	}
	return v
}

// Triple is a bound parameter: name, value and optional database type.
type Triple struct {
	Value  any
	Name   string
	DbType DbType
}

func (t Triple) String() string {
	if t.DbType.IsSpecified() {
		return fmt.Sprintf("%s (%v) %s", t.Name, t.Value, t.DbType)
	}
	return fmt.Sprintf("%s (%v)", t.Name, t.Value)
}

// Collector is a Sink that keeps every triple in order.
type Collector struct {
	Triples []Triple
}

// Append records the triple.
func (c *Collector) Append(name string, value any, dbType DbType) error {
	c.Triples = append(c.Triples, Triple{Name: name, Value: value, DbType: dbType})
	return nil
}

// Names returns the bound names in order.
func (c *Collector) Names() []string {
	names := make([]string, len(c.Triples))
	for i, t := range c.Triples {
		names[i] = t.Name
	}
	return names
}

// Values returns the bound values in order, with Null reported as nil.
func (c *Collector) Values() []any {
	values := make([]any, len(c.Triples))
	for i, t := range c.Triples {
		if !IsNull(t.Value) {
			values[i] = t.Value
		}
	}
	return values
}

// Lookup returns the first triple bound under name.
func (c *Collector) Lookup(name string) (Triple, bool) {
	for _, t := range c.Triples {
		if t.Name == name {
			return t, true
		}
	}
	return Triple{}, false
}

// Reset drops all collected triples.
func (c *Collector) Reset() { c.Triples = c.Triples[:0] }
