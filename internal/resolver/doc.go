// Package resolver is the runtime read path. A Resolver is built once from
// canonical metadata and the per-language content trees and answers episode
// lookups with field-by-field language fallback and localized media URLs.
//
// A Resolver never changes after construction and is safe for concurrent use.
package resolver
