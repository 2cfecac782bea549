// Package services defines shared utilities consumed by the pipeline commands
// and the translation provider integration.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and language codes for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (invalid, locked, failed).
//
// Use these helpers when wiring new pipeline steps so error classification and
// observability stay uniform across commands.
package services
