package convert

import (
	"errors"
	"strings"
	"testing"
)

func TestFor(t *testing.T) {
	converter, err := For(KindRedshift, KindAvro)
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if converter == nil {
		t.Fatal("For() returned a nil converter")
	}

	if _, err := For(KindAvro, KindRedshift); err == nil {
		t.Error("For() error = nil for an unregistered pair")
	}
}

func TestRedshiftToAvro_Convert(t *testing.T) {
	table, err := ParseCreateTable(`
-- Business directory.
CREATE TABLE business (
    -- Primary id.
    id bigint NOT NULL PRIMARY KEY,
    -- Average rating.
    rating double precision,
    -- Display name.
    name varchar(64) NOT NULL,
    -- Open flag.
    open boolean DEFAULT true
)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}

	record, err := (&RedshiftToAvro{}).Convert(table)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := `{"type":"record","name":"business","doc":"Business directory.","fields":[` +
		`{"name":"id","type":"long","doc":"Primary id.","pkey":1},` +
		`{"name":"rating","type":["null","double"],"doc":"Average rating.","default":null},` +
		`{"name":"name","type":"string","doc":"Display name.","maxlen":64},` +
		`{"name":"open","type":["boolean","null"],"doc":"Open flag.","default":true}` +
		`],"pkey":["id"]}`
	if got := record.String(); got != want {
		t.Errorf("Convert() = %s, want %s", got, want)
	}
}

func TestRedshiftToAvro_TypeMap(t *testing.T) {
	tests := []struct {
		name    string
		sqlType string
		want    string
	}{
		{
			name:    "real to float",
			sqlType: "real",
			want:    `{"name":"c","type":"float"}`,
		},
		{
			name:    "float4 to float",
			sqlType: "float4",
			want:    `{"name":"c","type":"float"}`,
		},
		{
			name:    "float8 to double",
			sqlType: "float8",
			want:    `{"name":"c","type":"double"}`,
		},
		{
			name:    "double precision to double",
			sqlType: "double precision",
			want:    `{"name":"c","type":"double"}`,
		},
		{
			name:    "smallint to int",
			sqlType: "smallint",
			want:    `{"name":"c","type":"int"}`,
		},
		{
			name:    "integer to int",
			sqlType: "integer",
			want:    `{"name":"c","type":"int"}`,
		},
		{
			name:    "int8 to long",
			sqlType: "int8",
			want:    `{"name":"c","type":"long"}`,
		},
		{
			name:    "decimal to double with fixed point metadata",
			sqlType: "decimal(4,2)",
			want:    `{"name":"c","type":"double","fixed_pt":true,"precision":4,"scale":2}`,
		},
		{
			name:    "bool to boolean",
			sqlType: "bool",
			want:    `{"name":"c","type":"boolean"}`,
		},
		{
			name:    "char to string with fixlen",
			sqlType: "char(3)",
			want:    `{"name":"c","type":"string","fixlen":3}`,
		},
		{
			name:    "nvarchar to string with maxlen",
			sqlType: "nvarchar(20)",
			want:    `{"name":"c","type":"string","maxlen":20}`,
		},
		{
			name:    "text to string with maxlen 256",
			sqlType: "text",
			want:    `{"name":"c","type":"string","maxlen":256}`,
		},
		{
			name:    "date to int with marker",
			sqlType: "date",
			want:    `{"name":"c","type":"int","date":true}`,
		},
		{
			name:    "timestamp to long with marker",
			sqlType: "timestamp",
			want:    `{"name":"c","type":"long","timestamp":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseCreateTable("CREATE TABLE t (c " + tt.sqlType + " NOT NULL)")
			if err != nil {
				t.Fatalf("ParseCreateTable() error = %v", err)
			}
			record, err := (&RedshiftToAvro{}).Convert(table)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got := record.String(); !strings.Contains(got, tt.want) {
				t.Errorf("Convert() = %s, want it to contain %s", got, tt.want)
			}
		})
	}
}

func TestRedshiftToAvro_NullableUnions(t *testing.T) {
	table, err := ParseCreateTable(`CREATE TABLE t (
		bare int,
		with_default int DEFAULT 7,
		named varchar(10) DEFAULT 'x'
	)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	record, err := (&RedshiftToAvro{}).Convert(table)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	got := record.String()
	if !strings.Contains(got, `{"name":"bare","type":["null","int"],"default":null}`) {
		t.Errorf("Convert() = %s, want null-first union for a bare nullable column", got)
	}
	if !strings.Contains(got, `{"name":"with_default","type":["int","null"],"default":7}`) {
		t.Errorf("Convert() = %s, want type-first union for a defaulted column", got)
	}
	if !strings.Contains(got, `{"name":"named","type":["string","null"],"default":"x","maxlen":10}`) {
		t.Errorf("Convert() = %s, want type-first union with the string default", got)
	}
}

func TestRedshiftToAvro_UnsupportedType(t *testing.T) {
	table, err := ParseCreateTable("CREATE TABLE t (c timestamptz)")
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}

	_, err = (&RedshiftToAvro{}).Convert(table)
	var unsupported *UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Convert() error = %v, want UnsupportedTypeError", err)
	}
	if unsupported.Type != "timestamptz" || unsupported.Column != "c" {
		t.Errorf("UnsupportedTypeError = %+v, want type timestamptz on column c", unsupported)
	}
}

func TestRedshiftToAvro_NilTable(t *testing.T) {
	record, err := (&RedshiftToAvro{}).Convert(nil)
	if err != nil {
		t.Errorf("Convert(nil) error = %v, want nil", err)
	}
	if record != nil {
		t.Errorf("Convert(nil) = %v, want nil", record)
	}
}
