// Package sqlite binds parameters for database/sql SQLite drivers such as
// modernc.org/sqlite.
//
// SQLite has no column types to honour beyond storage classes, so values are
// normalised to forms that compare and sort sensibly as TEXT: GUIDs as their
// canonical string, dates as YYYY-MM-DD, times as HH:MM:SS[.fffffffff].
package sqlite

import (
	"encoding/json"
	"time"

	"github.com/golang-sql/civil"
	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbbind/internal/provider"
)

const name = "sqlite"

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05.999999999"
	datetimeLayout = "2006-01-02 15:04:05.999999999"
)

// Capabilities reports how the sqlite provider attaches parameters.
func Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Prefix:             ":",
		NamedParameters:    true,
		LetterLeadingNames: true,
	}
}

// Args is a dbbind.Sink collecting sql.NamedArg values.
type Args struct {
	*provider.NamedArgs
}

// NewArgs creates an empty argument set.
func NewArgs() *Args {
	return &Args{NamedArgs: provider.NewNamedArgs(name, convert)}
}

// Bind binds input with b and returns arguments for ExecContext or
// QueryContext.
func Bind(b *dbbind.Binder, input any, opts ...dbbind.BindOption) ([]any, error) {
	args := NewArgs()
	if err := b.Bind(args, input, opts...); err != nil {
		return nil, err
	}
	return args.Args(), nil
}

// ExpandArray binds values one element per parameter into args. Names are
// "<baseName><index>" without the underscore escape, which database/sql
// rejects.
func ExpandArray(b *dbbind.Binder, args *Args, baseName string, values any) ([]string, error) {
	return provider.ExpandArray(Capabilities(), b, args, baseName, values)
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
		return u.String(), nil

	case dbbind.Date:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return t.Format(dateLayout), nil

	case dbbind.Time:
		switch t := value.(type) {
		case civil.Time:
			return t.String(), nil
		case time.Time:
			return t.Format(timeLayout), nil
		}
		return nil, provider.NewConversionError(name, param, string(dbType), value)

	case dbbind.DateTime, dbbind.DateTime2:
		switch t := value.(type) {
		case civil.DateTime:
			return t.In(time.UTC).Format(datetimeLayout), nil
		case civil.Date:
			return t.String(), nil
		}

	case dbbind.JSON:
		v, err := provider.AsJSON(value)
		if err != nil {
			return nil, provider.NewConversionError(name, param, string(dbType), value, err.Error())
		}
		switch j := v.(type) {
		case []byte:
			return string(j), nil
		case json.RawMessage:
			return string(j), nil
		}
		return v, nil
	}

	// Values without a declared type still need a storage class.
	switch v := value.(type) {
	case civil.Date:
		return v.String(), nil
	case civil.Time:
		return v.String(), nil
	case civil.DateTime:
		return v.In(time.UTC).Format(datetimeLayout), nil
	case [16]byte:
		return v[:], nil
	}
	return value, nil
}
