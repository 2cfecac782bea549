// Package language provides language code normalization for content trees.
//
// Configuration, CLI flags, and resolver requests all accept loose input such
// as "ES", "spa", "spanish", or "pt-BR". Everything funnels through Normalize
// so content tree file names, overlay lookups, and URL segments agree on a
// single lowercase ISO 639-1 code.
package language
