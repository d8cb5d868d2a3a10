// Package tool defines the declarative tool contract consumed by the task
// execution core, a concurrent-safe Registry, and a few ready-made tools.
//
// A Tool is data plus one opaque function: its parameter object and
// (optionally) its result document are described by JSON schemas, and the
// Action runs the actual work. The execution core reads the schemas to
// validate parameters and to coerce values referenced from prior steps; it
// never inspects what an Action does.
//
// Built-in tools:
//
//   - BraveSearch: web search returning a structured JSON result
//   - PageReader: fetches a page and extracts readable text (goquery)
//   - NewMarkdownRenderer: markdown to sanitized HTML
//
// Existing langchaingo tools plug in through FromLangChain.
package tool
