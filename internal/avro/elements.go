package avro

// ElementField marks elements that are record fields rather than named
// types.
const ElementField = "field"

// Element is one documentable node of a schema: a named type or a record
// field, identified by a dotted key that is stable across re-parses.
type Element struct {
	Key  string
	Type string
	Doc  string
}

// Elements flattens a schema into its documentable nodes. Records, enums
// and fixeds are keyed by full name; fields by
// "<record full name>.<field name>". Each named type appears once no
// matter how often it is referenced.
func Elements(s Schema) []Element {
	w := &elementWalker{visited: make(map[string]bool)}
	w.walk(s)
	return w.elements
}

type elementWalker struct {
	visited  map[string]bool
	elements []Element
}

func (w *elementWalker) walk(s Schema) {
	switch v := s.(type) {
	case *RecordSchema:
		if w.visited[v.FullName()] {
			return
		}
		w.visited[v.FullName()] = true
		w.elements = append(w.elements, Element{
			Key:  v.FullName(),
			Type: TypeRecord,
			Doc:  v.Doc,
		})
		for _, field := range v.Fields {
			w.elements = append(w.elements, Element{
				Key:  v.FullName() + "." + field.Name,
				Type: ElementField,
				Doc:  field.Doc,
			})
			w.walk(field.Schema)
		}
	case *EnumSchema:
		if w.visited[v.FullName()] {
			return
		}
		w.visited[v.FullName()] = true
		w.elements = append(w.elements, Element{
			Key:  v.FullName(),
			Type: TypeEnum,
			Doc:  v.Doc,
		})
	case *FixedSchema:
		if w.visited[v.FullName()] {
			return
		}
		w.visited[v.FullName()] = true
		w.elements = append(w.elements, Element{
			Key:  v.FullName(),
			Type: TypeFixed,
		})
	case *ArraySchema:
		w.walk(v.Items)
	case *MapSchema:
		w.walk(v.Values)
	case *UnionSchema:
		for _, branch := range v.Branches {
			w.walk(branch)
		}
	}
}
