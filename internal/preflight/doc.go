// Package preflight provides readiness checks for the external tools and
// filesystem paths clipmark depends on.
//
// The CLI "clipmark doctor" command runs RunAll and CheckSystemDeps and
// renders the results. Checks for optional features (split recordings
// directory, replay renaming, the SQLite session store) only run when the
// feature is configured.
package preflight
