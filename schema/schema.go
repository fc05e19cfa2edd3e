// Package schema derives binding metadata from a DBML project.
//
// A struct registered against a table gets each field's storage name matched
// to a column and, unless its dbtype tag already says otherwise, the column's
// type as its database type.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbml"
)

// Schema indexes the tables and columns of a DBML project.
type Schema struct {
	project *dbml.Project
	tables  map[string]*dbml.Table
	columns map[string]map[string]*dbml.Column // table -> column -> column
}

// New indexes project. Table and column names are matched case-sensitively.
func New(project *dbml.Project) (*Schema, error) {
	if project == nil {
		return nil, errors.New("schema: project is required")
	}
	s := &Schema{
		project: project,
		tables:  make(map[string]*dbml.Table),
		columns: make(map[string]map[string]*dbml.Column),
	}
	for _, table := range project.Tables {
		if _, dup := s.tables[table.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate table %q", table.Name)
		}
		s.tables[table.Name] = table
		s.columns[table.Name] = make(map[string]*dbml.Column)
		for _, col := range table.Columns {
			s.columns[table.Name][col.Name] = col
		}
	}
	return s, nil
}

// Project returns the underlying DBML project.
func (s *Schema) Project() *dbml.Project { return s.project }

// Table looks up a table by name.
func (s *Schema) Table(name string) (*dbml.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// ColumnType parses the declared type of table.column.
func (s *Schema) ColumnType(table, column string) (dbbind.DbType, error) {
	col, err := s.column(table, column)
	if err != nil {
		return dbbind.Unspecified, err
	}
	return dbbind.ParseDbType(col.Type)
}

func (s *Schema) column(table, column string) (*dbml.Column, error) {
	cols, ok := s.columns[table]
	if !ok {
		return nil, fmt.Errorf("schema: table %q not found", table)
	}
	col, ok := cols[column]
	if !ok {
		return nil, fmt.Errorf("schema: column %q not found in table %q", column, table)
	}
	return col, nil
}

// Overrides matches every bindable field of struct type t to a column of
// table. A field matches the column named by its storage name, its
// snake_case name or its lower-case name, in that order. Columns whose type
// has no DbType (arrays, vectors) contribute only the name.
func (s *Schema) Overrides(table string, t reflect.Type) ([]dbbind.FieldOverride, error) {
	cols, ok := s.columns[table]
	if !ok {
		return nil, fmt.Errorf("schema: table %q not found", table)
	}
	model, err := dbbind.NewCatalog(nil, nil).Model(t)
	if err != nil {
		return nil, err
	}

	overrides := make([]dbbind.FieldOverride, 0, len(model.Fields))
	for _, fd := range model.Fields {
		col := matchColumn(cols, fd)
		if col == nil {
			return nil, dbbind.NewResolutionError(model.Type.String(), fd.Name,
				fmt.Sprintf("no column in table %q", table))
		}
		o := dbbind.FieldOverride{Field: fd.Name, StorageName: col.Name}
		if !fd.DbType.IsSpecified() {
			if dt, err := dbbind.ParseDbType(col.Type); err == nil {
				o.DbType = dt
			}
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

func matchColumn(cols map[string]*dbml.Column, fd *dbbind.FieldDescriptor) *dbml.Column {
	for _, candidate := range []string{fd.StorageName, dbbind.SnakeCase(fd.Name), strings.ToLower(fd.Name)} {
		if col, ok := cols[candidate]; ok {
			return col
		}
	}
	return nil
}

// Register registers struct type T in c with the overrides derived from
// table.
func Register[T any](s *Schema, c *dbbind.Catalog, table string) (*dbbind.Model, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	overrides, err := s.Overrides(table, t)
	if err != nil {
		return nil, err
	}
	return c.Register(t, overrides...)
}
