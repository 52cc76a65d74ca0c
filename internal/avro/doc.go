// Package avro implements the Avro schema model used by the registry.
//
// It parses schema JSON into typed values (records, enums, fixed,
// arrays, maps, unions, primitives), serializes them to a canonical
// form used for equality checks, decides reader/writer compatibility
// per the Avro schema resolution rules, and extracts the named
// elements a schema contains. A RecordBuilder assembles schemas
// programmatically for the SQL converters.
package avro
