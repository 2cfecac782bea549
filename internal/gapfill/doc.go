// Package gapfill translates missing or untranslated fields of a
// target-language content tree from the base-language tree.
//
// A field is a gap when the target value is blank or the indicator-word
// detector still flags it. Gaps are translated one field at a time through a
// rate-limited, circuit-broken provider. Failed fields keep their previous
// value. Progress is checkpointed to disk every checkpoint_every translated
// fields, so an interrupted run resumes by rescanning.
package gapfill
