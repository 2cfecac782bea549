// Package consolidate builds one content tree per language from tree-shaped
// sources, mapped legacy entries, the existing tree and canonical metadata,
// validates it against the metadata structure and writes it behind a lock
// with a timestamped backup.
//
// Validation runs before any write. A language whose report carries errors is
// never written; its previous file stays untouched.
package consolidate
