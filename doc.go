// Package dbbind turns application values into named, typed database
// command parameters.
//
// A Binder accepts one input value and classifies it once:
//
//   - PropertyValues: an explicit list produced by an upstream mapper.
//   - A key/value bag: *Bag, any KeyValues, or a string-keyed map (bound in
//     ascending key order).
//   - A struct, or pointer to struct: bound field by field in declaration
//     order under each field's storage name.
//   - nil: nothing is bound.
//
// Each parameter is handed to a Sink as a (name, value, DbType) triple. nil
// values are bound as the Null marker. Providers under providers/ implement
// Sink for pgx, database/sql with SQL Server, SQLite and MySQL.
//
// # Type resolution
//
// The database type of a parameter is chosen by precedence:
//
//	per-call override (WithDbType, PropertyValue.DbType)
//	> field declaration (dbtype tag, FieldOverride, schema)
//	> Registry entry for the declared or runtime type
//	> Unspecified (the provider infers)
//
// Pointers and sql.Null* wrappers are unwrapped to their base type before any
// registry lookup. A missing registry entry is never an error.
//
// # Struct tags
//
//	type User struct {
//		ID    int64  `db:"id"`
//		Label string `db:"label" dbtype:"nvarchar"`
//		Notes string `db:"-"`
//	}
//
// # Array filters
//
// ExpandArray binds one parameter per element for IN lists:
//
//	names, _ := binder.ExpandArray(sink, "ids", []int{1, 2, 3})
//	// names: _ids0, _ids1, _ids2
//
// # Parameter identity
//
// Parameter sanitises names to letters and digits and compares by that
// original name, so renamed parameters still deduplicate against each other.
package dbbind
