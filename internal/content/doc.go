// Package content defines the canonical data model shared by every pipeline
// stage: language-independent metadata, per-language content trees and the
// overlays they hold.
//
// Trees are persisted one JSON document per language with a deterministic
// encoding, so re-encoding an unchanged tree yields identical bytes. Writers
// hold a per-tree advisory lock and go through SaveTree, which backs up the
// previous file, replaces it atomically and verifies the result.
package content
