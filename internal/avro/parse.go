package avro

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var recordReserved = map[string]bool{
	"type": true, "name": true, "namespace": true, "doc": true, "aliases": true, "fields": true,
}

var fieldReserved = map[string]bool{
	"name": true, "type": true, "doc": true, "default": true, "aliases": true, "order": true,
}

// Parse decodes and validates an Avro schema document. Named types may be
// referenced by name once defined, including self references.
func Parse(input string) (Schema, error) {
	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid schema JSON: trailing data after schema")
	}

	p := &parser{names: make(map[string]Schema)}
	return p.parse(raw, "")
}

type parser struct {
	names map[string]Schema
}

func (p *parser) parse(raw interface{}, enclosing string) (Schema, error) {
	switch v := raw.(type) {
	case string:
		return p.resolveName(v, enclosing)
	case []interface{}:
		return p.parseUnion(v, enclosing)
	case map[string]interface{}:
		return p.parseObject(v, enclosing)
	default:
		return nil, fmt.Errorf("unexpected schema element %v", raw)
	}
}

func (p *parser) resolveName(name, enclosing string) (Schema, error) {
	if prim, ok := primitives[name]; ok {
		return prim, nil
	}
	if !strings.Contains(name, ".") && enclosing != "" {
		if s, ok := p.names[fullName(enclosing, name)]; ok {
			return s, nil
		}
	}
	if s, ok := p.names[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("undefined type %q", name)
}

func (p *parser) parseObject(v map[string]interface{}, enclosing string) (Schema, error) {
	typeRaw, ok := v["type"]
	if !ok {
		return nil, errors.New(`schema object is missing the "type" attribute`)
	}
	typeName, ok := typeRaw.(string)
	if !ok {
		return nil, fmt.Errorf(`schema "type" attribute must be a string, got %v`, typeRaw)
	}

	switch typeName {
	case TypeRecord:
		return p.parseRecord(v, enclosing)
	case TypeEnum:
		return p.parseEnum(v, enclosing)
	case TypeFixed:
		return p.parseFixed(v, enclosing)
	case TypeArray:
		items, ok := v["items"]
		if !ok {
			return nil, errors.New(`array schema is missing "items"`)
		}
		itemSchema, err := p.parse(items, enclosing)
		if err != nil {
			return nil, fmt.Errorf("array items: %w", err)
		}
		return &ArraySchema{Items: itemSchema}, nil
	case TypeMap:
		values, ok := v["values"]
		if !ok {
			return nil, errors.New(`map schema is missing "values"`)
		}
		valueSchema, err := p.parse(values, enclosing)
		if err != nil {
			return nil, fmt.Errorf("map values: %w", err)
		}
		return &MapSchema{Values: valueSchema}, nil
	default:
		return p.resolveName(typeName, enclosing)
	}
}

func (p *parser) parseUnion(v []interface{}, enclosing string) (Schema, error) {
	if len(v) == 0 {
		return nil, errors.New("union must contain at least one branch")
	}
	branches := make([]Schema, 0, len(v))
	seen := make(map[string]bool, len(v))
	for _, branchRaw := range v {
		branch, err := p.parse(branchRaw, enclosing)
		if err != nil {
			return nil, fmt.Errorf("union branch: %w", err)
		}
		if branch.Type() == TypeUnion {
			return nil, errors.New("unions may not immediately contain other unions")
		}
		key := schemaFullName(branch)
		if seen[key] {
			return nil, fmt.Errorf("union has duplicate branch %q", key)
		}
		seen[key] = true
		branches = append(branches, branch)
	}
	return &UnionSchema{Branches: branches}, nil
}

func (p *parser) parseRecord(v map[string]interface{}, enclosing string) (Schema, error) {
	name, namespace, err := p.parseNameAttrs(v, enclosing)
	if err != nil {
		return nil, err
	}
	full := fullName(namespace, name)
	if _, exists := p.names[full]; exists {
		return nil, fmt.Errorf("type %q is defined more than once", full)
	}

	doc, err := optionalString(v, "doc")
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", full, err)
	}
	aliases, err := parseAliases(v, true)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", full, err)
	}

	record := &RecordSchema{
		Name:       name,
		Namespace:  namespace,
		Doc:        doc,
		Aliases:    aliases,
		Attributes: collectAttributes(v, recordReserved),
	}
	// Register before parsing fields so the record can reference itself.
	p.names[full] = record

	fieldsRaw, ok := v["fields"].([]interface{})
	if !ok {
		return nil, fmt.Errorf(`record %q is missing the "fields" array`, full)
	}
	seen := make(map[string]bool, len(fieldsRaw))
	for _, fieldRaw := range fieldsRaw {
		field, err := p.parseField(fieldRaw, namespace)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", full, err)
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("record %q has duplicate field %q", full, field.Name)
		}
		seen[field.Name] = true
		record.Fields = append(record.Fields, field)
	}
	return record, nil
}

func (p *parser) parseField(raw interface{}, enclosing string) (*Field, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("field definition must be an object, got %v", raw)
	}
	name, ok := m["name"].(string)
	if !ok {
		return nil, errors.New(`field is missing the "name" attribute`)
	}
	if !nameRegexp.MatchString(name) {
		return nil, fmt.Errorf("invalid field name %q", name)
	}

	typeRaw, ok := m["type"]
	if !ok {
		return nil, fmt.Errorf(`field %q is missing the "type" attribute`, name)
	}
	fieldSchema, err := p.parse(typeRaw, enclosing)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	doc, err := optionalString(m, "doc")
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	aliases, err := parseAliases(m, false)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	if orderRaw, present := m["order"]; present {
		order, ok := orderRaw.(string)
		if !ok || (order != "ascending" && order != "descending" && order != "ignore") {
			return nil, fmt.Errorf("field %q has invalid order %v", name, orderRaw)
		}
	}

	field := &Field{
		Name:       name,
		Doc:        doc,
		Aliases:    aliases,
		Schema:     fieldSchema,
		Attributes: collectAttributes(m, fieldReserved),
	}
	if def, present := m["default"]; present {
		if err := typeCheckDefault(fieldSchema, def); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		field.HasDefault = true
		field.Default = def
	}
	return field, nil
}

func (p *parser) parseEnum(v map[string]interface{}, enclosing string) (Schema, error) {
	name, namespace, err := p.parseNameAttrs(v, enclosing)
	if err != nil {
		return nil, err
	}
	full := fullName(namespace, name)
	if _, exists := p.names[full]; exists {
		return nil, fmt.Errorf("type %q is defined more than once", full)
	}

	doc, err := optionalString(v, "doc")
	if err != nil {
		return nil, fmt.Errorf("enum %q: %w", full, err)
	}
	aliases, err := parseAliases(v, true)
	if err != nil {
		return nil, fmt.Errorf("enum %q: %w", full, err)
	}

	symbolsRaw, ok := v["symbols"].([]interface{})
	if !ok {
		return nil, fmt.Errorf(`enum %q is missing the "symbols" array`, full)
	}
	symbols := make([]string, 0, len(symbolsRaw))
	seen := make(map[string]bool, len(symbolsRaw))
	for _, symbolRaw := range symbolsRaw {
		symbol, ok := symbolRaw.(string)
		if !ok || !nameRegexp.MatchString(symbol) {
			return nil, fmt.Errorf("enum %q has invalid symbol %v", full, symbolRaw)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("enum %q has duplicate symbol %q", full, symbol)
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	enum := &EnumSchema{
		Name:      name,
		Namespace: namespace,
		Doc:       doc,
		Aliases:   aliases,
		Symbols:   symbols,
	}
	p.names[full] = enum
	return enum, nil
}

func (p *parser) parseFixed(v map[string]interface{}, enclosing string) (Schema, error) {
	name, namespace, err := p.parseNameAttrs(v, enclosing)
	if err != nil {
		return nil, err
	}
	full := fullName(namespace, name)
	if _, exists := p.names[full]; exists {
		return nil, fmt.Errorf("type %q is defined more than once", full)
	}

	aliases, err := parseAliases(v, true)
	if err != nil {
		return nil, fmt.Errorf("fixed %q: %w", full, err)
	}
	sizeRaw, ok := v["size"].(json.Number)
	if !ok {
		return nil, fmt.Errorf(`fixed %q is missing the "size" attribute`, full)
	}
	size, err := sizeRaw.Int64()
	if err != nil || size < 0 {
		return nil, fmt.Errorf("fixed %q has invalid size %v", full, sizeRaw)
	}

	fixed := &FixedSchema{
		Name:      name,
		Namespace: namespace,
		Aliases:   aliases,
		Size:      int(size),
	}
	p.names[full] = fixed
	return fixed, nil
}

func (p *parser) parseNameAttrs(v map[string]interface{}, enclosing string) (string, string, error) {
	rawName, ok := v["name"].(string)
	if !ok {
		return "", "", errors.New(`named schema is missing the "name" attribute`)
	}

	var name, namespace string
	if idx := strings.LastIndex(rawName, "."); idx >= 0 {
		namespace, name = rawName[:idx], rawName[idx+1:]
	} else {
		name = rawName
		if nsRaw, present := v["namespace"]; present {
			ns, ok := nsRaw.(string)
			if !ok {
				return "", "", fmt.Errorf("namespace of %q must be a string", rawName)
			}
			namespace = ns
		} else {
			namespace = enclosing
		}
	}

	if !nameRegexp.MatchString(name) {
		return "", "", fmt.Errorf("invalid name %q", name)
	}
	if namespace != "" && !validNamespace(namespace) {
		return "", "", fmt.Errorf("invalid namespace %q", namespace)
	}
	return name, namespace, nil
}

func validNamespace(namespace string) bool {
	for _, segment := range strings.Split(namespace, ".") {
		if !nameRegexp.MatchString(segment) {
			return false
		}
	}
	return true
}

func optionalString(v map[string]interface{}, key string) (string, error) {
	raw, present := v[key]
	if !present {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%q attribute must be a string", key)
	}
	return s, nil
}

// parseAliases reads the "aliases" attribute. Named-schema aliases may be
// dot qualified; field aliases may not.
func parseAliases(v map[string]interface{}, allowQualified bool) ([]string, error) {
	raw, present := v["aliases"]
	if !present {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New(`"aliases" attribute must be an array of names`)
	}
	aliases := make([]string, 0, len(list))
	for _, aliasRaw := range list {
		alias, ok := aliasRaw.(string)
		if !ok {
			return nil, fmt.Errorf("invalid alias %v", aliasRaw)
		}
		valid := nameRegexp.MatchString(alias)
		if allowQualified && !valid {
			valid = strings.Contains(alias, ".") && validNamespace(alias)
		}
		if !valid {
			return nil, fmt.Errorf("invalid alias %q", alias)
		}
		aliases = append(aliases, alias)
	}
	return aliases, nil
}

func collectAttributes(v map[string]interface{}, reserved map[string]bool) map[string]interface{} {
	var attrs map[string]interface{}
	for key, value := range v {
		if reserved[key] {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]interface{})
		}
		attrs[key] = value
	}
	return attrs
}

// typeCheckDefault verifies a JSON default value against a schema. Union
// defaults are checked against the first branch, as the Avro
// specification requires.
func typeCheckDefault(s Schema, v interface{}) error {
	switch t := s.(type) {
	case *PrimitiveSchema:
		return typeCheckPrimitiveDefault(t, v)
	case *EnumSchema:
		symbol, ok := v.(string)
		if !ok || !t.hasSymbol(symbol) {
			return fmt.Errorf("default %v is not a symbol of enum %q", v, t.FullName())
		}
		return nil
	case *FixedSchema:
		str, ok := v.(string)
		if !ok || !isByteString(str) || len([]rune(str)) != t.Size {
			return fmt.Errorf("default for fixed %q must be a %d byte string", t.FullName(), t.Size)
		}
		return nil
	case *ArraySchema:
		items, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("default %v is not an array", v)
		}
		for _, item := range items {
			if err := typeCheckDefault(t.Items, item); err != nil {
				return err
			}
		}
		return nil
	case *MapSchema:
		entries, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("default %v is not a map", v)
		}
		for _, value := range entries {
			if err := typeCheckDefault(t.Values, value); err != nil {
				return err
			}
		}
		return nil
	case *UnionSchema:
		return typeCheckDefault(t.Branches[0], v)
	case *RecordSchema:
		entries, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("default %v is not a record object", v)
		}
		for _, field := range t.Fields {
			value, present := entries[field.Name]
			if present {
				if err := typeCheckDefault(field.Schema, value); err != nil {
					return err
				}
				continue
			}
			if !field.HasDefault {
				return fmt.Errorf("default for record %q is missing field %q", t.FullName(), field.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("cannot check default against %s schema", s.Type())
	}
}

func typeCheckPrimitiveDefault(t *PrimitiveSchema, v interface{}) error {
	switch t.name {
	case TypeNull:
		if v != nil {
			return fmt.Errorf("default for null type must be null, got %v", v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("default %v is not a boolean", v)
		}
	case TypeInt:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("default %v is not an int", v)
		}
		i, err := n.Int64()
		if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
			return fmt.Errorf("default %v is not a valid int", v)
		}
	case TypeLong:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("default %v is not a long", v)
		}
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("default %v is not a valid long", v)
		}
	case TypeFloat, TypeDouble:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("default %v is not a number", v)
		}
		if _, err := n.Float64(); err != nil {
			return fmt.Errorf("default %v is not a valid number", v)
		}
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("default %v is not a string", v)
		}
	case TypeBytes:
		str, ok := v.(string)
		if !ok || !isByteString(str) {
			return fmt.Errorf("default %v is not a valid bytes value", v)
		}
	}
	return nil
}

// isByteString reports whether every code point fits in a single byte,
// the JSON encoding Avro uses for bytes and fixed defaults.
func isByteString(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}
