// Package repair turns malformed CSV source bytes into clean, canonical UTF-8.
//
// Every function in this package is pure: it reads its arguments, returns a
// new value and keeps no state between calls. Callers may run any number of
// repairs in parallel without coordination.
//
// # Pipeline
//
// [Repair] composes the stages in a fixed order:
//
//  1. [Detect] classifies the raw bytes into an [Encoding] tag
//  2. [StripBOM] drops a leading byte-order mark (a view, no copy)
//  3. UTF-16 transcoding, only when [Options.TranscodeUTF16] is set
//  4. [RemoveNulls], only when [Options.StripNulls] is set
//  5. [Decode] and [NormalizeLineEndings] produce UTF-8 text with LF endings
//  6. [Sanitize] drops C0 control characters and DEL except tab and newline
//  7. [RenderLineEndings] rewrites LF to CRLF when configured
//
// The detected tag travels alongside the output as metadata. No stage after
// detection branches on it, except the opt-in UTF-16 transcoder.
//
// # Ownership
//
// [StripBOM] returns a sub-slice of its argument. Every other stage returns a
// freshly allocated value, so [Result.Output] never aliases the caller's
// input.
//
// # Field checks
//
// [IsRisky] is a per-field predicate for spreadsheet formula injection. It is
// meant for the parsing layer that splits repaired output into fields; the
// pipeline itself never calls it.
package repair
