// Package legacymap resolves legacy content keys to canonical series and
// episode identifiers.
//
// Keys are tried in order against paper numbers, exact declared titles and a
// fuzzy comparison of the cleaned key with canonical titles. Every mapped key
// carries a confidence; anything that cannot be placed is reported as
// unmapped for manual review and never fails the run. The result is persisted
// as a JSON artifact the consolidator reads.
package legacymap
