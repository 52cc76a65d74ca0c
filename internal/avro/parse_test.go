package avro

import (
	"testing"
)

func mustParse(t *testing.T, input string) Schema {
	t.Helper()
	s, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", input, err)
	}
	return s
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "primitive string form",
			input: `"int"`,
		},
		{
			name:  "primitive object form",
			input: `{"type":"string"}`,
		},
		{
			name:  "record with namespaced name",
			input: `{"type":"record","name":"yelp.business","fields":[{"name":"id","type":"int"}]}`,
		},
		{
			name:  "record with empty fields",
			input: `{"type":"record","name":"empty","fields":[]}`,
		},
		{
			name:  "enum",
			input: `{"type":"enum","name":"suit","symbols":["SPADES","HEARTS"]}`,
		},
		{
			name:  "fixed",
			input: `{"type":"fixed","name":"md5","size":16}`,
		},
		{
			name:  "array of maps",
			input: `{"type":"array","items":{"type":"map","values":"long"}}`,
		},
		{
			name:  "union",
			input: `["null","string"]`,
		},
		{
			name:  "named reference",
			input: `{"type":"record","name":"pair","fields":[{"name":"a","type":{"type":"fixed","name":"hash","size":8}},{"name":"b","type":"hash"}]}`,
		},
		{
			name:  "self reference",
			input: `{"type":"record","name":"node","fields":[{"name":"next","type":["null","node"]}]}`,
		},
		{
			name:  "reference qualified by enclosing namespace",
			input: `{"type":"record","name":"a.outer","fields":[{"name":"s","type":{"type":"enum","name":"state","symbols":["ON"]}},{"name":"t","type":"state"}]}`,
		},
		{
			name:  "field order attribute",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":"int","order":"descending"}]}`,
		},
		{
			name:  "union default matching first branch",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":["null","string"],"default":null}]}`,
		},
		{
			name:  "record default value",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":{"type":"record","name":"sub","fields":[{"name":"x","type":"int"}]},"default":{"x":1}}]}`,
		},
		{
			name:  "bytes default",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":"bytes","default":"\u00ff\u0000"}]}`,
		},
		{
			name:  "fixed default of exact size",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":{"type":"fixed","name":"two","size":2},"default":"ab"}]}`,
		},
		{
			name:    "empty input",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "  \n\t",
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `{"type":`,
			wantErr: true,
		},
		{
			name:    "trailing data",
			input:   `"int" 42`,
			wantErr: true,
		},
		{
			name:    "undefined type",
			input:   `"widget"`,
			wantErr: true,
		},
		{
			name:    "invalid name",
			input:   `{"type":"record","name":"2fast","fields":[]}`,
			wantErr: true,
		},
		{
			name:    "invalid namespace",
			input:   `{"type":"record","name":"r","namespace":"a..b","fields":[]}`,
			wantErr: true,
		},
		{
			name:    "record missing fields",
			input:   `{"type":"record","name":"r"}`,
			wantErr: true,
		},
		{
			name:    "duplicate field",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":"int"},{"name":"f","type":"long"}]}`,
			wantErr: true,
		},
		{
			name:    "duplicate type definition",
			input:   `{"type":"record","name":"r","fields":[{"name":"a","type":{"type":"fixed","name":"h","size":4}},{"name":"b","type":{"type":"fixed","name":"h","size":4}}]}`,
			wantErr: true,
		},
		{
			name:    "empty union",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "duplicate union branch",
			input:   `["int","int"]`,
			wantErr: true,
		},
		{
			name:    "union inside union",
			input:   `[["null","int"]]`,
			wantErr: true,
		},
		{
			name:    "enum with invalid symbol",
			input:   `{"type":"enum","name":"e","symbols":["ok","not ok"]}`,
			wantErr: true,
		},
		{
			name:    "enum with duplicate symbol",
			input:   `{"type":"enum","name":"e","symbols":["A","A"]}`,
			wantErr: true,
		},
		{
			name:    "fixed with negative size",
			input:   `{"type":"fixed","name":"f","size":-1}`,
			wantErr: true,
		},
		{
			name:    "fixed with string size",
			input:   `{"type":"fixed","name":"f","size":"16"}`,
			wantErr: true,
		},
		{
			name:    "invalid order",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":"int","order":"up"}]}`,
			wantErr: true,
		},
		{
			name:    "int default out of range",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":"int","default":2147483648}]}`,
			wantErr: true,
		},
		{
			name:    "string default on int field",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":"int","default":"zero"}]}`,
			wantErr: true,
		},
		{
			name:    "union default matching second branch",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":["null","string"],"default":"x"}]}`,
			wantErr: true,
		},
		{
			name:    "enum default not a symbol",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":{"type":"enum","name":"e","symbols":["A"]},"default":"B"}]}`,
			wantErr: true,
		},
		{
			name:    "fixed default of wrong size",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":{"type":"fixed","name":"two","size":2},"default":"abc"}]}`,
			wantErr: true,
		},
		{
			name:    "record default missing required field",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":{"type":"record","name":"sub","fields":[{"name":"x","type":"int"}]},"default":{}}]}`,
			wantErr: true,
		},
		{
			name:    "qualified field alias",
			input:   `{"type":"record","name":"r","fields":[{"name":"f","type":"int","aliases":["a.b"]}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "primitive object form collapses",
			input: `{"type":"long"}`,
			want:  `"long"`,
		},
		{
			name:  "namespace folds into name",
			input: `{"namespace":"yelp","name":"user","type":"record","doc":"A user.","fields":[{"name":"id","type":"int","doc":"pk"}]}`,
			want:  `{"type":"record","name":"yelp.user","doc":"A user.","fields":[{"name":"id","type":"int","doc":"pk"}]}`,
		},
		{
			name:  "nested type inherits namespace",
			input: `{"type":"record","name":"outer","namespace":"a.b","fields":[{"name":"inner","type":{"type":"record","name":"in","fields":[]}}]}`,
			want:  `{"type":"record","name":"a.b.outer","fields":[{"name":"inner","type":{"type":"record","name":"a.b.in","fields":[]}}]}`,
		},
		{
			name:  "null default is kept",
			input: `{"type":"record","name":"biz","fields":[{"name":"city","type":["null","string"],"default":null}]}`,
			want:  `{"type":"record","name":"biz","fields":[{"name":"city","type":["null","string"],"default":null}]}`,
		},
		{
			name:  "extra attributes sort after fixed ones",
			input: `{"type":"record","name":"n","fields":[{"name":"f","type":"int","pkey":1,"maxlen":4}]}`,
			want:  `{"type":"record","name":"n","fields":[{"name":"f","type":"int","maxlen":4,"pkey":1}]}`,
		},
		{
			name:  "order attribute is dropped",
			input: `{"type":"record","name":"r","fields":[{"name":"f","type":"int","order":"ignore"}]}`,
			want:  `{"type":"record","name":"r","fields":[{"name":"f","type":"int"}]}`,
		},
		{
			name:  "repeated named type collapses to its name",
			input: `{"type":"record","name":"pair","fields":[{"name":"a","type":{"type":"fixed","name":"hash","size":8}},{"name":"b","type":"hash"}]}`,
			want:  `{"type":"record","name":"pair","fields":[{"name":"a","type":{"type":"fixed","name":"hash","size":8}},{"name":"b","type":"hash"}]}`,
		},
		{
			name:  "enum with namespace",
			input: `{"type":"enum","name":"colors","namespace":"ui","symbols":["RED","GREEN"]}`,
			want:  `{"type":"enum","name":"ui.colors","symbols":["RED","GREEN"]}`,
		},
		{
			name:  "recursive record terminates",
			input: `{"type":"record","name":"node","fields":[{"name":"next","type":["null","node"]}]}`,
			want:  `{"type":"record","name":"node","fields":[{"name":"next","type":["null","node"]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, tt.input)
			if got := s.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_CanonicalRoundTrip(t *testing.T) {
	input := `{"type":"record","name":"yelp.business","doc":"All the businesses.","fields":[` +
		`{"name":"id","type":"int","doc":"Primary id.","pkey":1},` +
		`{"name":"name","type":["null","string"],"doc":"Display name.","default":null,"maxlen":64},` +
		`{"name":"state","type":{"type":"enum","name":"state","doc":"Open state.","symbols":["OPEN","CLOSED"]},"doc":"Current state.","default":"OPEN"}]}`

	first := mustParse(t, input).String()
	second := mustParse(t, first).String()
	if first != second {
		t.Errorf("canonical form is not stable:\nfirst  = %s\nsecond = %s", first, second)
	}
}

func TestParse_RegistersNamedTypesOnce(t *testing.T) {
	s := mustParse(t, `{"type":"record","name":"pair","fields":[{"name":"a","type":{"type":"fixed","name":"hash","size":8}},{"name":"b","type":"hash"}]}`)
	record, ok := s.(*RecordSchema)
	if !ok {
		t.Fatalf("Parse() returned %T, want *RecordSchema", s)
	}
	if record.Fields[0].Schema != record.Fields[1].Schema {
		t.Error("reference did not resolve to the defined fixed schema")
	}
}
