// Package mysql binds parameters for MySQL and MariaDB through
// go-sql-driver/mysql.
//
// The driver only understands positional ? placeholders, so Args keeps the
// binding order and the names alongside the values. Statements must list
// placeholders in the order parameters are bound.
package mysql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-sql/civil"
	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbbind/internal/provider"
)

const name = "mysql"

const datetimeLayout = "2006-01-02 15:04:05.999999"

// Capabilities reports how the mysql provider attaches parameters.
func Capabilities() provider.Capabilities {
	return provider.Capabilities{Prefix: "?"}
}

// Args is a dbbind.Sink collecting positional arguments.
type Args struct {
	loc    *time.Location
	names  []string
	values []any
}

// NewArgs creates an empty argument set. time.Time values are handed to the
// driver unchanged.
func NewArgs() *Args { return &Args{} }

// NewArgsForDSN creates an empty argument set for the connection described by
// dsn. time.Time values declared as datetime or datetime2 are rendered as
// wall-clock text in the DSN's loc (UTC unless set), matching how the driver
// reads them back with parseTime.
func NewArgsForDSN(dsn string) (*Args, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	return &Args{loc: cfg.Loc}, nil
}

// Append implements dbbind.Sink.
func (a *Args) Append(param string, value any, dbType dbbind.DbType) error {
	v, err := provider.Prepare(name, param, value, dbType, a.convert)
	if err != nil {
		return err
	}
	a.names = append(a.names, param)
	a.values = append(a.values, v)
	return nil
}

// Args returns the values in binding order.
func (a *Args) Args() []any { return a.values }

// Names returns the parameter names in binding order.
func (a *Args) Names() []string { return a.names }

// Lookup returns the value bound under param.
func (a *Args) Lookup(param string) (any, bool) {
	for i, n := range a.names {
		if n == param {
			return a.values[i], true
		}
	}
	return nil, false
}

// Bind binds input with b and returns the positional values.
func Bind(b *dbbind.Binder, input any, opts ...dbbind.BindOption) ([]any, error) {
	args := NewArgs()
	if err := b.Bind(args, input, opts...); err != nil {
		return nil, err
	}
	return args.Args(), nil
}

func (a *Args) convert(param string, value any, dbType dbbind.DbType) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch dbType {
	case dbbind.DateTime, dbbind.DateTime2:
		if t, ok := value.(time.Time); ok && a.loc != nil {
			return t.In(a.loc).Format(datetimeLayout), nil
		}

	case dbbind.Guid:
		u, ok := provider.AsUUID(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value, "expected a UUID")
		}
		return u.String(), nil

	case dbbind.JSON:
		v, err := provider.AsJSON(value)
		if err != nil {
			return nil, provider.NewConversionError(name, param, string(dbType), value, err.Error())
		}
		if raw, ok := v.(json.RawMessage); ok {
			return []byte(raw), nil
		}
		return v, nil

	case dbbind.Date:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return t.Format(time.DateOnly), nil

	case dbbind.Time:
		switch t := value.(type) {
		case civil.Time:
			return t.String(), nil
		case time.Time:
			return civil.TimeOf(t).String(), nil
		}
		return nil, provider.NewConversionError(name, param, string(dbType), value)
	}

	switch v := value.(type) {
	case civil.Date:
		return v.String(), nil
	case civil.Time:
		return v.String(), nil
	case civil.DateTime:
		return v.In(time.UTC).Format(datetimeLayout), nil
	}
	return value, nil
}
