// Package convert turns SQL table definitions into Avro schemas.
//
// ParseCreateTable reads a Redshift CREATE TABLE statement into a
// SQLTable, and RedshiftToAvro maps that table onto an Avro record
// whose record and field attributes carry the column details an Avro
// type cannot express (primary key order, lengths, precision).
package convert
