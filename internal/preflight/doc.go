// Package preflight provides readiness checks for the files, directories and
// translation provider that lectern depends on.
//
// `lectern config validate` runs them through RunAll and prints one line per
// check. The provider check makes a real request and only runs when asked
// for, so validating a config stays offline by default.
package preflight
