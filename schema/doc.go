// Package schema is the declarative JSON-schema port used by tools and the
// task execution core.
//
// Schemas are plain structured data (google/jsonschema-go). Tools declare a
// ParamsSchema and optionally a ResultSchema; the plan validator checks
// resolved parameters against the former, and the reference resolver uses
// schema fragments to coerce substituted values to their declared types.
//
// Validation sits behind the small Validator interface so the engine can be
// swapped without touching resolver or validator logic.
package schema
