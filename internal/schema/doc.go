// Package schema converts the heterogeneous legacy source documents into one
// uniform entry shape keyed by legacy key.
//
// Three document shapes are understood: paper arrays keyed by paper number,
// slug-keyed objects, and summary-keyed objects whose entries may override
// their own key. Field names vary between sources, so every entry is decoded
// through a set of accepted aliases with weak typing. Entries that cannot be
// used are dropped with a warning; only an unreadable document fails.
package schema
