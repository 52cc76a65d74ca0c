package convert

import (
	"fmt"

	"github.com/amaumene/schematizer/internal/avro"
)

// Converter maps a table definition of its source kind onto a schema of
// its target kind.
type Converter interface {
	Convert(table *SQLTable) (*avro.RecordSchema, error)
}

type conversionPair struct {
	source SchemaKind
	target SchemaKind
}

var converters = map[conversionPair]Converter{
	{source: KindRedshift, target: KindAvro}: &RedshiftToAvro{},
}

// For returns the converter registered for the given kind pair.
func For(source, target SchemaKind) (Converter, error) {
	converter, ok := converters[conversionPair{source: source, target: target}]
	if !ok {
		return nil, fmt.Errorf("no converter from %s to %s", source, target)
	}
	return converter, nil
}

// UnsupportedTypeError reports a column type with no Avro mapping.
type UnsupportedTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unable to convert redshift type %q of column %q to an avro type", e.Type, e.Column)
}

// RedshiftToAvro converts a Redshift table definition into an Avro
// record schema. Nullable columns become unions with null, with the
// null branch first when the column has no concrete default.
type RedshiftToAvro struct{}

func (c *RedshiftToAvro) Convert(table *SQLTable) (*avro.RecordSchema, error) {
	if table == nil {
		return nil, nil
	}

	builder := avro.NewRecordBuilder(table.Name, table.Namespace)
	if table.Doc != "" {
		builder.Doc(table.Doc)
	}
	if len(table.Aliases) > 0 {
		builder.Aliases(table.Aliases...)
	}
	if keys := table.PrimaryKeys(); len(keys) > 0 {
		names := make([]string, 0, len(keys))
		for _, key := range keys {
			names = append(names, key.Name)
		}
		builder.Attribute(avro.MetaPrimaryKey, names)
	}

	for _, column := range table.Columns {
		fieldSchema, attrs, err := c.fieldType(column)
		if err != nil {
			return nil, err
		}
		builder.AddField(avro.FieldSpec{
			Name:       column.Name,
			Schema:     fieldSchema,
			Doc:        column.Doc,
			Aliases:    column.Aliases,
			Nullable:   column.Nullable,
			HasDefault: column.DefaultValue != nil || column.Nullable,
			Default:    column.DefaultValue,
			Attributes: attrs,
		})
	}
	return builder.Build()
}

// fieldType maps one column type onto an Avro schema plus the field
// attributes recording what the Avro type alone loses.
func (c *RedshiftToAvro) fieldType(column *SQLColumn) (avro.Schema, map[string]interface{}, error) {
	attrs := make(map[string]interface{})
	if column.PrimaryKeyOrder > 0 {
		attrs[avro.MetaPrimaryKey] = column.PrimaryKeyOrder
	}

	switch column.Type.Name {
	case "real", "float4":
		return avro.Float, attrs, nil
	case "float", "float8", "double precision":
		return avro.Double, attrs, nil
	case "smallint", "int2", "int", "int4", "integer":
		return avro.Int, attrs, nil
	case "bigint", "int8":
		return avro.Long, attrs, nil
	case "numeric", "decimal":
		attrs[avro.MetaFixedPoint] = true
		attrs[avro.MetaPrecision] = column.Type.Precision
		attrs[avro.MetaScale] = column.Type.Scale
		return avro.Double, attrs, nil
	case "bool", "boolean":
		return avro.Boolean, attrs, nil
	case "char", "character", "nchar", "bpchar":
		attrs[avro.MetaFixLen] = column.Type.Length
		return avro.String, attrs, nil
	case "varchar", "character varying", "nvarchar", "text":
		attrs[avro.MetaMaxLen] = column.Type.Length
		return avro.String, attrs, nil
	case "date":
		attrs[avro.MetaDate] = true
		return avro.Int, attrs, nil
	case "timestamp":
		attrs[avro.MetaTimestamp] = true
		return avro.Long, attrs, nil
	}
	return nil, nil, &UnsupportedTypeError{Column: column.Name, Type: column.Type.Name}
}
