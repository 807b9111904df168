// Package domain defines the core business entities for folio.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument / RawPageOutput: per-page recognizer output
//   - FieldRecord / PageFields: typed values extracted from one page
//   - MergedRecord: the canonical document-level record
//   - ValidationIssue: a flagged integrity problem and its correction
//   - ContentBlock / LayoutSection / LayoutPlan: the mobile layout plan
//   - Pattern / Signature: learned extraction and layout statistics
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
