// Package postgres binds parameters as pgx named arguments.
//
// Statements reference parameters as @name; pgx rewrites them to positional
// placeholders when the query runs.
//
//	args := postgres.NewArgs()
//	if err := binder.Bind(args, user); err != nil {
//		return err
//	}
//	_, err := conn.Exec(ctx, "INSERT INTO users (id, name) VALUES (@id, @name)", args.NamedArgs())
package postgres

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbbind/internal/provider"
)

const name = "postgres"

// Capabilities reports how the postgres provider attaches parameters.
func Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Prefix:          "@",
		NamedParameters: true,
		TypedValues:     true,
	}
}

// Args is a dbbind.Sink collecting pgx.NamedArgs.
type Args struct {
	named pgx.NamedArgs
	order []string
}

// NewArgs creates an empty argument set.
func NewArgs() *Args {
	return &Args{named: pgx.NamedArgs{}}
}

// Append implements dbbind.Sink.
func (a *Args) Append(param string, value any, dbType dbbind.DbType) error {
	if _, dup := a.named[param]; dup {
		return fmt.Errorf("%s: parameter %q bound twice", name, param)
	}
	v, err := provider.Prepare(name, param, value, dbType, convert)
	if err != nil {
		return err
	}
	a.named[param] = v
	a.order = append(a.order, param)
	return nil
}

// NamedArgs returns the collected arguments. Pass it as the single argument
// to Exec or Query.
func (a *Args) NamedArgs() pgx.NamedArgs { return a.named }

// Names returns the parameter names in binding order.
func (a *Args) Names() []string { return a.order }

// Bind binds input with b and returns the named arguments.
func Bind(b *dbbind.Binder, input any, opts ...dbbind.BindOption) (pgx.NamedArgs, error) {
	args := NewArgs()
	if err := b.Bind(args, input, opts...); err != nil {
		return nil, err
	}
	return args.NamedArgs(), nil
}

func convert(param string, value any, dbType dbbind.DbType) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch dbType {
	case dbbind.Guid:
		u, ok := provider.AsUUID(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value, "expected a UUID")
		}
		return pgtype.UUID{Bytes: u, Valid: true}, nil

	case dbbind.Date:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return pgtype.Date{Time: t, Valid: true}, nil

	case dbbind.Time:
		switch t := value.(type) {
		case civil.Time:
			return pgtype.Time{Microseconds: microsOfDay(t), Valid: true}, nil
		case time.Time:
			return pgtype.Time{Microseconds: microsOfDay(civil.TimeOf(t)), Valid: true}, nil
		}
		return nil, provider.NewConversionError(name, param, string(dbType), value)

	case dbbind.DateTime, dbbind.DateTime2:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return pgtype.Timestamp{Time: t, Valid: true}, nil

	case dbbind.DateTimeOffset:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return pgtype.Timestamptz{Time: t, Valid: true}, nil

	case dbbind.Decimal, dbbind.Currency:
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		var n pgtype.Numeric
		if err := n.Scan(s); err != nil {
			return nil, provider.NewConversionError(name, param, string(dbType), value, err.Error())
		}
		return n, nil

	case dbbind.JSON:
		v, err := provider.AsJSON(value)
		if err != nil {
			return nil, provider.NewConversionError(name, param, string(dbType), value, err.Error())
		}
		return v, nil
	}
	return value, nil
}

func microsOfDay(t civil.Time) int64 {
	return int64(t.Hour)*int64(time.Hour/time.Microsecond) +
		int64(t.Minute)*int64(time.Minute/time.Microsecond) +
		int64(t.Second)*int64(time.Second/time.Microsecond) +
		int64(t.Nanosecond)/int64(time.Microsecond)
}
