// Package mssql binds parameters for SQL Server through go-mssqldb.
//
// Values are converted to the driver's typed wrappers so that the declared
// database type reaches the server: varchar strings are sent as VarChar
// rather than nvarchar, datetime values as DateTime1, and so on.
package mssql

import (
	"encoding/json"
	"time"

	"github.com/golang-sql/civil"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbbind/internal/provider"
)

const name = "mssql"

// maxVarChar is the longest non-max varchar SQL Server accepts.
const maxVarChar = 8000

// Capabilities reports how the mssql provider attaches parameters.
func Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Prefix:             "@",
		NamedParameters:    true,
		TypedValues:        true,
		LetterLeadingNames: true,
	}
}

// Args is a dbbind.Sink collecting sql.NamedArg values for go-mssqldb.
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
	case dbbind.Char, dbbind.VarChar:
		if s, ok := value.(string); ok {
			if len(s) > maxVarChar {
				return mssql.VarCharMax(s), nil
			}
			return mssql.VarChar(s), nil
		}

	case dbbind.Text:
		if s, ok := value.(string); ok {
			return mssql.NVarCharMax(s), nil
		}

	case dbbind.Guid:
		u, ok := provider.AsUUID(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value, "expected a UUID")
		}
		return mssql.UniqueIdentifier(u), nil

	case dbbind.Date:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return civil.DateOf(t), nil

	case dbbind.Time:
		switch t := value.(type) {
		case civil.Time:
			return t, nil
		case time.Time:
			return civil.TimeOf(t), nil
		}
		return nil, provider.NewConversionError(name, param, string(dbType), value)

	case dbbind.DateTime:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return mssql.DateTime1(t), nil

	case dbbind.DateTime2:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return civil.DateTimeOf(t), nil

	case dbbind.DateTimeOffset:
		t, ok := provider.AsTime(value)
		if !ok {
			return nil, provider.NewConversionError(name, param, string(dbType), value)
		}
		return mssql.DateTimeOffset(t), nil

	case dbbind.JSON:
		v, err := provider.AsJSON(value)
		if err != nil {
			return nil, provider.NewConversionError(name, param, string(dbType), value, err.Error())
		}
		// JSON lives in nvarchar columns; bytes would go out as varbinary.
		switch j := v.(type) {
		case []byte:
			return string(j), nil
		case json.RawMessage:
			return string(j), nil
		}
		return v, nil
	}
	return value, nil
}
