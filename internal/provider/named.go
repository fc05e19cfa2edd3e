package provider

import (
	"database/sql"
	"fmt"
	"unicode"

	"github.com/zoobzio/dbbind"
)

// ConvertFunc turns a bound value into the form a driver expects for dbType.
// It receives the Null marker as nil.
type ConvertFunc func(name string, value any, dbType dbbind.DbType) (any, error)

// NamedArgs is a dbbind.Sink collecting sql.NamedArg values for database/sql
// drivers that match parameters by name. Binding the same name twice is an
// error, and so is a name database/sql would reject at execution time.
type NamedArgs struct {
	convert ConvertFunc
	seen    map[string]struct{}
	name    string
	args    []any
}

// NewNamedArgs creates a collector for the named provider using convert.
func NewNamedArgs(providerName string, convert ConvertFunc) *NamedArgs {
	return &NamedArgs{name: providerName, convert: convert, seen: make(map[string]struct{})}
}

// Append implements dbbind.Sink.
func (a *NamedArgs) Append(name string, value any, dbType dbbind.DbType) error {
	if reason := checkName(name); reason != "" {
		return NameError{Provider: a.name, Parameter: name, Reason: reason}
	}
	if _, dup := a.seen[name]; dup {
		return fmt.Errorf("%s: parameter %q bound twice", a.name, name)
	}
	v, err := Prepare(a.name, name, value, dbType, a.convert)
	if err != nil {
		return err
	}
	a.seen[name] = struct{}{}
	a.args = append(a.args, sql.Named(name, v))
	return nil
}

// Args returns the collected arguments, ready for ExecContext or QueryContext.
func (a *NamedArgs) Args() []any {
	return a.args
}

// Len returns the number of collected arguments.
func (a *NamedArgs) Len() int { return len(a.args) }

// Prepare maps the Null marker to nil, resolves driver.Valuer values when a
// type is declared, and hands the result to convert.
func Prepare(providerName, param string, value any, dbType dbbind.DbType, convert ConvertFunc) (any, error) {
	if dbbind.IsNull(value) {
		return convert(param, nil, dbType)
	}
	if dbType.IsSpecified() {
		v, err := DriverValue(value)
		if err != nil {
			return nil, NewConversionError(providerName, param, string(dbType), value, err.Error())
		}
		value = v
	}
	return convert(param, value, dbType)
}

// checkName applies the database/sql rule for sql.NamedArg: a letter followed
// by letters, digits or underscores. It returns the reason a name fails.
func checkName(name string) string {
	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsLetter(r):
			return "must begin with a letter; expand arrays through the provider's ExpandArray or a binder built with WithArrayNameEscaping(false)"
		case r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return fmt.Sprintf("contains %q", r)
		}
	}
	if name == "" {
		return "empty"
	}
	return ""
}
