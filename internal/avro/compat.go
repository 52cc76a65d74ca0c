package avro

// Schema compatibility follows the schema resolution rules of the Avro
// specification: a reader schema can decode data written with a writer
// schema when every part of the writer resolves against the reader.

// BackwardCompatible reports whether data serialized with oldSchema can
// be deserialized using newSchema.
func BackwardCompatible(oldSchema, newSchema Schema) bool {
	return CanRead(oldSchema, newSchema)
}

// ForwardCompatible reports whether data serialized with newSchema can
// be deserialized using oldSchema.
func ForwardCompatible(oldSchema, newSchema Schema) bool {
	return CanRead(newSchema, oldSchema)
}

// FullCompatible reports whether the two schemas can read each other's
// data.
func FullCompatible(oldSchema, newSchema Schema) bool {
	return BackwardCompatible(oldSchema, newSchema) && ForwardCompatible(oldSchema, newSchema)
}

// CanRead reports whether a reader using the reader schema can decode
// data written with the writer schema.
func CanRead(writer, reader Schema) bool {
	r := &resolver{inProgress: make(map[resolutionPair]bool)}
	return r.canRead(writer, reader)
}

type resolutionPair struct {
	writer string
	reader string
}

type resolver struct {
	// inProgress holds record pairs currently being resolved; hitting one
	// again means the recursion is consistent so far.
	inProgress map[resolutionPair]bool
}

func (r *resolver) canRead(writer, reader Schema) bool {
	if writerUnion, ok := writer.(*UnionSchema); ok {
		for _, branch := range writerUnion.Branches {
			if !r.canRead(branch, reader) {
				return false
			}
		}
		return true
	}
	if readerUnion, ok := reader.(*UnionSchema); ok {
		for _, branch := range readerUnion.Branches {
			if r.canRead(writer, branch) {
				return true
			}
		}
		return false
	}

	switch w := writer.(type) {
	case *PrimitiveSchema:
		p, ok := reader.(*PrimitiveSchema)
		if !ok {
			return false
		}
		return w.name == p.name || promotable(w.name, p.name)
	case *ArraySchema:
		a, ok := reader.(*ArraySchema)
		if !ok {
			return false
		}
		return r.canRead(w.Items, a.Items)
	case *MapSchema:
		m, ok := reader.(*MapSchema)
		if !ok {
			return false
		}
		return r.canRead(w.Values, m.Values)
	case *EnumSchema:
		e, ok := reader.(*EnumSchema)
		if !ok {
			return false
		}
		if !namesMatch(w, e) {
			return false
		}
		for _, symbol := range w.Symbols {
			if !e.hasSymbol(symbol) {
				return false
			}
		}
		return true
	case *FixedSchema:
		f, ok := reader.(*FixedSchema)
		if !ok {
			return false
		}
		return namesMatch(w, f) && w.Size == f.Size
	case *RecordSchema:
		return r.canReadRecord(w, reader)
	}
	return false
}

func (r *resolver) canReadRecord(writer *RecordSchema, reader Schema) bool {
	readerRecord, ok := reader.(*RecordSchema)
	if !ok {
		return false
	}
	if !namesMatch(writer, readerRecord) {
		return false
	}

	pair := resolutionPair{writer: writer.FullName(), reader: readerRecord.FullName()}
	if r.inProgress[pair] {
		return true
	}
	r.inProgress[pair] = true
	defer delete(r.inProgress, pair)

	for _, readerField := range readerRecord.Fields {
		writerField := matchWriterField(writer, readerField)
		if writerField == nil {
			if !readerField.HasDefault {
				return false
			}
			continue
		}
		if !r.canRead(writerField.Schema, readerField.Schema) {
			return false
		}
	}
	return true
}

// matchWriterField locates the writer field a reader field resolves to,
// by name first and then through the reader field's aliases.
func matchWriterField(writer *RecordSchema, readerField *Field) *Field {
	if f := writer.fieldByName(readerField.Name); f != nil {
		return f
	}
	for _, alias := range readerField.Aliases {
		if f := writer.fieldByName(alias); f != nil {
			return f
		}
	}
	return nil
}

// namesMatch reports whether the reader accepts the writer's name, either
// directly or through one of the reader's aliases.
func namesMatch(writer, reader Schema) bool {
	writerName := schemaFullName(writer)
	if writerName == schemaFullName(reader) {
		return true
	}
	for _, alias := range aliasNames(reader) {
		if alias == writerName {
			return true
		}
	}
	return false
}

func promotable(writerType, readerType string) bool {
	switch writerType {
	case TypeInt:
		return readerType == TypeLong || readerType == TypeFloat || readerType == TypeDouble
	case TypeLong:
		return readerType == TypeFloat || readerType == TypeDouble
	case TypeFloat:
		return readerType == TypeDouble
	}
	return false
}
