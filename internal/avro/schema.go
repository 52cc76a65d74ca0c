package avro

import (
	"encoding/json"
	"sort"
	"strings"
)

// Primitive type names in the order the Avro specification lists them.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInt     = "int"
	TypeLong    = "long"
	TypeFloat   = "float"
	TypeDouble  = "double"
	TypeBytes   = "bytes"
	TypeString  = "string"
	TypeRecord  = "record"
	TypeEnum    = "enum"
	TypeArray   = "array"
	TypeMap     = "map"
	TypeUnion   = "union"
	TypeFixed   = "fixed"
)

// Schema is a parsed Avro schema node.
//
// String renders the canonical JSON form: named types carry their full
// name in the "name" attribute, attribute order is fixed, and repeated
// references to a named type collapse to the bare name. Two schemas are
// identical exactly when their canonical forms are equal.
type Schema interface {
	Type() string
	String() string
}

type PrimitiveSchema struct {
	name string
}

func (s *PrimitiveSchema) Type() string { return s.name }

// Shared primitive instances. The parser returns these, so pointer
// comparison works for primitives.
var (
	Null    = &PrimitiveSchema{name: TypeNull}
	Boolean = &PrimitiveSchema{name: TypeBoolean}
	Int     = &PrimitiveSchema{name: TypeInt}
	Long    = &PrimitiveSchema{name: TypeLong}
	Float   = &PrimitiveSchema{name: TypeFloat}
	Double  = &PrimitiveSchema{name: TypeDouble}
	Bytes   = &PrimitiveSchema{name: TypeBytes}
	String  = &PrimitiveSchema{name: TypeString}
)

var primitives = map[string]*PrimitiveSchema{
	TypeNull:    Null,
	TypeBoolean: Boolean,
	TypeInt:     Int,
	TypeLong:    Long,
	TypeFloat:   Float,
	TypeDouble:  Double,
	TypeBytes:   Bytes,
	TypeString:  String,
}

type RecordSchema struct {
	Name       string
	Namespace  string
	Doc        string
	Aliases    []string
	Fields     []*Field
	Attributes map[string]interface{}
}

func (s *RecordSchema) Type() string { return TypeRecord }

// FullName returns the namespace-qualified record name.
func (s *RecordSchema) FullName() string { return fullName(s.Namespace, s.Name) }

func (s *RecordSchema) fieldByName(name string) *Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type Field struct {
	Name       string
	Doc        string
	Aliases    []string
	Schema     Schema
	HasDefault bool
	Default    interface{}
	Attributes map[string]interface{}
}

type EnumSchema struct {
	Name      string
	Namespace string
	Doc       string
	Aliases   []string
	Symbols   []string
}

func (s *EnumSchema) Type() string     { return TypeEnum }
func (s *EnumSchema) FullName() string { return fullName(s.Namespace, s.Name) }

func (s *EnumSchema) hasSymbol(symbol string) bool {
	for _, sym := range s.Symbols {
		if sym == symbol {
			return true
		}
	}
	return false
}

type FixedSchema struct {
	Name      string
	Namespace string
	Aliases   []string
	Size      int
}

func (s *FixedSchema) Type() string     { return TypeFixed }
func (s *FixedSchema) FullName() string { return fullName(s.Namespace, s.Name) }

type ArraySchema struct {
	Items Schema
}

func (s *ArraySchema) Type() string { return TypeArray }

type MapSchema struct {
	Values Schema
}

func (s *MapSchema) Type() string { return TypeMap }

type UnionSchema struct {
	Branches []Schema
}

func (s *UnionSchema) Type() string { return TypeUnion }

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// schemaFullName returns the full name of named schemas and the type name
// of everything else.
func schemaFullName(s Schema) string {
	switch v := s.(type) {
	case *RecordSchema:
		return v.FullName()
	case *EnumSchema:
		return v.FullName()
	case *FixedSchema:
		return v.FullName()
	default:
		return s.Type()
	}
}

// aliasNames returns the fully qualified aliases of a named schema.
func aliasNames(s Schema) []string {
	var aliases []string
	var namespace string
	switch v := s.(type) {
	case *RecordSchema:
		aliases, namespace = v.Aliases, v.Namespace
	case *EnumSchema:
		aliases, namespace = v.Aliases, v.Namespace
	case *FixedSchema:
		aliases, namespace = v.Aliases, v.Namespace
	default:
		return nil
	}
	qualified := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		if strings.Contains(alias, ".") {
			qualified = append(qualified, alias)
			continue
		}
		qualified = append(qualified, fullName(namespace, alias))
	}
	return qualified
}

func (s *PrimitiveSchema) String() string { return canonical(s) }
func (s *RecordSchema) String() string    { return canonical(s) }
func (s *EnumSchema) String() string      { return canonical(s) }
func (s *FixedSchema) String() string     { return canonical(s) }
func (s *ArraySchema) String() string     { return canonical(s) }
func (s *MapSchema) String() string       { return canonical(s) }
func (s *UnionSchema) String() string     { return canonical(s) }

func canonical(s Schema) string {
	var b strings.Builder
	w := &canonWriter{emitted: make(map[string]bool)}
	w.writeSchema(&b, s)
	return b.String()
}

// canonWriter renders the deterministic JSON form. Named types already
// written in the current rendering collapse to their full name, which
// also terminates recursive schemas.
type canonWriter struct {
	emitted map[string]bool
}

func (w *canonWriter) writeSchema(b *strings.Builder, s Schema) {
	switch v := s.(type) {
	case *PrimitiveSchema:
		writeJSONString(b, v.name)
	case *RecordSchema:
		if w.emitted[v.FullName()] {
			writeJSONString(b, v.FullName())
			return
		}
		w.emitted[v.FullName()] = true
		b.WriteString(`{"type":"record","name":`)
		writeJSONString(b, v.FullName())
		if v.Doc != "" {
			b.WriteString(`,"doc":`)
			writeJSONString(b, v.Doc)
		}
		if len(v.Aliases) > 0 {
			b.WriteString(`,"aliases":`)
			writeJSONValue(b, v.Aliases)
		}
		b.WriteString(`,"fields":[`)
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			w.writeField(b, f)
		}
		b.WriteString(`]`)
		writeAttributes(b, v.Attributes)
		b.WriteByte('}')
	case *EnumSchema:
		if w.emitted[v.FullName()] {
			writeJSONString(b, v.FullName())
			return
		}
		w.emitted[v.FullName()] = true
		b.WriteString(`{"type":"enum","name":`)
		writeJSONString(b, v.FullName())
		if v.Doc != "" {
			b.WriteString(`,"doc":`)
			writeJSONString(b, v.Doc)
		}
		if len(v.Aliases) > 0 {
			b.WriteString(`,"aliases":`)
			writeJSONValue(b, v.Aliases)
		}
		b.WriteString(`,"symbols":`)
		writeJSONValue(b, v.Symbols)
		b.WriteByte('}')
	case *FixedSchema:
		if w.emitted[v.FullName()] {
			writeJSONString(b, v.FullName())
			return
		}
		w.emitted[v.FullName()] = true
		b.WriteString(`{"type":"fixed","name":`)
		writeJSONString(b, v.FullName())
		if len(v.Aliases) > 0 {
			b.WriteString(`,"aliases":`)
			writeJSONValue(b, v.Aliases)
		}
		b.WriteString(`,"size":`)
		writeJSONValue(b, v.Size)
		b.WriteByte('}')
	case *ArraySchema:
		b.WriteString(`{"type":"array","items":`)
		w.writeSchema(b, v.Items)
		b.WriteByte('}')
	case *MapSchema:
		b.WriteString(`{"type":"map","values":`)
		w.writeSchema(b, v.Values)
		b.WriteByte('}')
	case *UnionSchema:
		b.WriteByte('[')
		for i, branch := range v.Branches {
			if i > 0 {
				b.WriteByte(',')
			}
			w.writeSchema(b, branch)
		}
		b.WriteByte(']')
	}
}

func (w *canonWriter) writeField(b *strings.Builder, f *Field) {
	b.WriteString(`{"name":`)
	writeJSONString(b, f.Name)
	b.WriteString(`,"type":`)
	w.writeSchema(b, f.Schema)
	if f.Doc != "" {
		b.WriteString(`,"doc":`)
		writeJSONString(b, f.Doc)
	}
	if f.HasDefault {
		b.WriteString(`,"default":`)
		writeJSONValue(b, f.Default)
	}
	if len(f.Aliases) > 0 {
		b.WriteString(`,"aliases":`)
		writeJSONValue(b, f.Aliases)
	}
	writeAttributes(b, f.Attributes)
	b.WriteByte('}')
}

func writeAttributes(b *strings.Builder, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(',')
		writeJSONString(b, k)
		b.WriteByte(':')
		writeJSONValue(b, attrs[k])
	}
}

func writeJSONString(b *strings.Builder, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		b.WriteString(`""`)
		return
	}
	b.Write(encoded)
}

// writeJSONValue renders arbitrary attribute and default values.
// encoding/json sorts map keys, so the output stays deterministic.
func writeJSONValue(b *strings.Builder, v interface{}) {
	encoded, err := json.Marshal(v)
	if err != nil {
		b.WriteString("null")
		return
	}
	b.Write(encoded)
}
