// Package normalisers turns recognizer payloads into raw documents.
//
// Each payload format has its own decoder package (jsondoc, yamldoc,
// markdown). Decoders are registered with a Registry at startup, which
// also runs page cleaners (html) over every decoded page so that leaked
// markup never reaches the parser.
package normalisers
