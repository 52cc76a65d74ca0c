package convert

import "sort"

// SchemaKind identifies a schema format handled by a converter.
type SchemaKind string

const (
	KindAvro     SchemaKind = "avro"
	KindRedshift SchemaKind = "redshift"
)

// SQLTable describes one relational table extracted from DDL.
type SQLTable struct {
	Name      string
	Doc       string
	Namespace string
	Aliases   []string
	Columns   []*SQLColumn
}

// PrimaryKeys returns the primary key columns ordered by their position
// in the key.
func (t *SQLTable) PrimaryKeys() []*SQLColumn {
	var keys []*SQLColumn
	for _, column := range t.Columns {
		if column.PrimaryKeyOrder > 0 {
			keys = append(keys, column)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].PrimaryKeyOrder < keys[j].PrimaryKeyOrder
	})
	return keys
}

// Column returns the named column, nil when the table has none.
func (t *SQLTable) Column(name string) *SQLColumn {
	for _, column := range t.Columns {
		if column.Name == name {
			return column
		}
	}
	return nil
}

// SQLColumn is one column of a SQLTable. PrimaryKeyOrder is the 1-based
// position of the column in the table's primary key, 0 when the column
// is not part of it. A nil DefaultValue means no default.
type SQLColumn struct {
	Name            string
	Doc             string
	Type            SQLType
	Nullable        bool
	DefaultValue    interface{}
	PrimaryKeyOrder int
	Aliases         []string
}

// SQLType is a normalized column type: lower-case name plus the numeric
// parameters that survive into schema metadata.
type SQLType struct {
	Name      string
	Length    int
	Precision int
	Scale     int
}
