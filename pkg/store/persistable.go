package store

import (
	"fmt"
	"reflect"
	"strings"
)

// Persistable is implemented by every entity the store can save.
// Columns come from struct tags: column, dbtype, primary and index.
type Persistable interface {
	TableName() string
}

// field describes one persisted struct field
type field struct {
	index   int
	column  string
	dbType  string
	primary bool
	indexed bool
}

func fields(obj any) []field {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var out []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		// Skip fields without database type
		dbType := f.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		column := f.Tag.Get("column")
		if column == "" {
			column = strings.ToLower(f.Name)
		}
		out = append(out, field{
			index:   i,
			column:  column,
			dbType:  dbType,
			primary: f.Tag.Get("primary") == "true",
			indexed: f.Tag.Get("index") == "true",
		})
	}
	return out
}

// createTableSQL generates CREATE TABLE from struct tags
func createTableSQL(obj Persistable) string {
	var columns, primaryKeys []string
	for _, f := range fields(obj) {
		columns = append(columns, fmt.Sprintf("%s %s", f.column, f.dbType))
		if f.primary {
			primaryKeys = append(primaryKeys, f.column)
		}
	}
	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", obj.TableName(), strings.Join(columns, ", "))
}

// indexSQL generates one CREATE INDEX per indexed column
func indexSQL(obj Persistable) []string {
	var out []string
	table := obj.TableName()
	for _, f := range fields(obj) {
		if !f.indexed {
			continue
		}
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, f.column, table, f.column))
	}
	return out
}

// selectColumns lists the persisted columns, optionally qualified by a table alias
func selectColumns(obj Persistable, alias string) []string {
	var out []string
	for _, f := range fields(obj) {
		if alias != "" {
			out = append(out, alias+"."+f.column)
		} else {
			out = append(out, f.column)
		}
	}
	return out
}

// scanDestinations returns pointers into obj for rows.Scan, in column order.
// Pointer fields scan as nullable columns.
func scanDestinations(obj Persistable) []any {
	v := reflect.ValueOf(obj).Elem()
	var out []any
	for _, f := range fields(obj) {
		out = append(out, v.Field(f.index).Addr().Interface())
	}
	return out
}

// columnValue dereferences pointer fields so nil becomes NULL
func columnValue(v reflect.Value) any {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

// upsertSQL generates an INSERT that replaces the row on primary key conflict.
// ON CONFLICT ... DO UPDATE is understood by both sqlite and postgres.
func upsertSQL(obj Persistable) (string, []any) {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var columns, placeholders, primaryKeys, updates []string
	var values []any
	for _, f := range fields(obj) {
		columns = append(columns, f.column)
		placeholders = append(placeholders, "?")
		values = append(values, columnValue(v.Field(f.index)))
		if f.primary {
			primaryKeys = append(primaryKeys, f.column)
		} else {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", f.column, f.column))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		obj.TableName(), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if len(primaryKeys) > 0 {
		conflict := "DO NOTHING"
		if len(updates) > 0 {
			conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(primaryKeys, ", "), conflict)
	}
	return query, values
}
