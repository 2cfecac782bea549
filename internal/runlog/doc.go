// Package runlog records pipeline runs in a SQLite database so operators can
// see when map, consolidate and fill last ran and how they ended.
//
// The schema is embedded and versioned. A database created by a different
// schema version is rejected with ErrSchemaMismatch; delete it to start over.
package runlog
