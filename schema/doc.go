// Package schema declares the structure a producer payload must satisfy.
//
// Declarations come in a shorthand form (plain names, option maps as loaded from
// YAML) and are resolved by Normalize into canonical Field values. Compile turns
// the fields into a JSON Schema document (validated by gojsonschema) which
// rejects properties that were not declared. Validate reports problems per field
// so they can be returned to the caller as input errors.
package schema
