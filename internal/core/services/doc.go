// Package services implements the driving port interfaces.
//
// The pipeline stages live here as plain types: FieldParser reads one
// page, Merger reduces pages into a record, Validator flags and corrects
// issues, and Synthesizer turns a validated record into a layout plan.
// ConversionService chains them and reports outcomes to the pattern
// store; LearningService and SettingsService serve operator tooling.
//
// Services depend only on domain types and driven ports.
package services
