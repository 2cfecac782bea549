// Package main hosts the lectern CLI entrypoint and command graph.
//
// The Cobra command tree maps operator invocations onto the offline pipeline
// (map, consolidate, fill), the runtime resolver and run history. It owns
// configuration resolution, logger setup and run recording so the internal
// packages stay free of terminal concerns.
package main
