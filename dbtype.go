package dbbind

import (
	"fmt"
	"strings"
)

// DbType is a provider-neutral database type classifier attached to a bound
// parameter. The zero value, Unspecified, leaves type inference to the
// database provider.
type DbType string

const (
	Unspecified DbType = ""

	Boolean  DbType = "boolean"
	TinyInt  DbType = "tinyint"
	SmallInt DbType = "smallint"
	Integer  DbType = "integer"
	BigInt   DbType = "bigint"
	Real     DbType = "real"
	Double   DbType = "double"
	Decimal  DbType = "decimal"
	Currency DbType = "currency"

	Char     DbType = "char"
	VarChar  DbType = "varchar"
	NChar    DbType = "nchar"
	NVarChar DbType = "nvarchar"
	Text     DbType = "text"

	Binary    DbType = "binary"
	VarBinary DbType = "varbinary"
	Guid      DbType = "guid" //nolint:revive // matches provider naming

	Date           DbType = "date"
	Time           DbType = "time"
	DateTime       DbType = "datetime"
	DateTime2      DbType = "datetime2"
	DateTimeOffset DbType = "datetimeoffset"

	JSON DbType = "json"
	XML  DbType = "xml"
)

// Aliases accepted by ParseDbType, keyed by lower-case spelling.
var dbTypeAliases = map[string]DbType{
	"bool":                        Boolean,
	"bit":                         Boolean,
	"int1":                        TinyInt,
	"byte":                        TinyInt,
	"int2":                        SmallInt,
	"smallserial":                 SmallInt,
	"int":                         Integer,
	"int4":                        Integer,
	"serial":                      Integer,
	"int8":                        BigInt,
	"bigserial":                   BigInt,
	"float4":                      Real,
	"single":                      Real,
	"float":                       Double,
	"float8":                      Double,
	"double precision":            Double,
	"numeric":                     Decimal,
	"money":                       Currency,
	"character":                   Char,
	"character varying":           VarChar,
	"ansistring":                  VarChar,
	"string":                      NVarChar,
	"nvarchar(max)":               Text,
	"varchar(max)":                Text,
	"clob":                        Text,
	"bytea":                       VarBinary,
	"blob":                        VarBinary,
	"varbinary(max)":              VarBinary,
	"uuid":                        Guid,
	"uniqueidentifier":            Guid,
	"timestamp":                   DateTime2,
	"timestamp without time zone": DateTime2,
	"timestamptz":                 DateTimeOffset,
	"timestamp with time zone":    DateTimeOffset,
	"smalldatetime":               DateTime,
	"jsonb":                       JSON,
}

var knownDbTypes = map[DbType]bool{
	Boolean: true, TinyInt: true, SmallInt: true, Integer: true, BigInt: true,
	Real: true, Double: true, Decimal: true, Currency: true,
	Char: true, VarChar: true, NChar: true, NVarChar: true, Text: true,
	Binary: true, VarBinary: true, Guid: true,
	Date: true, Time: true, DateTime: true, DateTime2: true, DateTimeOffset: true,
	JSON: true, XML: true,
}

// IsSpecified reports whether dt carries a type, as opposed to deferring to
// the provider.
func (dt DbType) IsSpecified() bool { return dt != Unspecified }

// Normalize lower-cases dt and collapses known aliases to their canonical type.
// Unknown spellings are returned lower-cased.
func (dt DbType) Normalize() DbType {
	s := strings.ToLower(strings.TrimSpace(string(dt)))
	if alias, ok := dbTypeAliases[s]; ok {
		return alias
	}
	return DbType(s)
}

func (dt DbType) String() string {
	if dt == Unspecified {
		return "unspecified"
	}
	return string(dt)
}

// ParseDbType parses a type name such as "nvarchar", "INT" or "timestamptz".
// An empty string parses to Unspecified. Length or precision suffixes like
// "varchar(255)" are ignored.
func ParseDbType(s string) (DbType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unspecified, nil
	}
	dt := DbType(s).Normalize()
	if knownDbTypes[dt] {
		return dt, nil
	}
	if i := strings.IndexByte(string(dt), '('); i > 0 {
		dt = DbType(strings.TrimSpace(string(dt[:i]))).Normalize()
		if knownDbTypes[dt] {
			return dt, nil
		}
	}
	if strings.HasSuffix(string(dt), "[]") {
		return Unspecified, fmt.Errorf("%w: %q (array column types have no scalar db type)", ErrInvalidDbType, s)
	}
	return Unspecified, fmt.Errorf("%w: %q", ErrInvalidDbType, s)
}

// MustParseDbType is like ParseDbType but panics on error.
func MustParseDbType(s string) DbType {
	dt, err := ParseDbType(s)
	if err != nil {
		panic(err)
	}
	return dt
}
