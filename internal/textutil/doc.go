// Package textutil provides the text handling shared by the mapper, the
// consolidator, the gap filler and the resolver.
//
// The primary use cases are:
//   - Normalizing titles and legacy keys for case-insensitive comparison
//   - Reducing HTML fragments in legacy content to plain text
//   - Counting source-language indicator words to flag untranslated text
//   - Producing short log-safe snippets of long fields
//
// Case folding goes through golang.org/x/text/cases so non-ASCII titles
// compare the same way regardless of the language they are written in.
package textutil
