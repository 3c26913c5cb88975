// Package bookmarks persists detected events to an append-only session log in
// CSV or JSON Lines form and reads such logs back for clip export.
//
// Each record is appended with a single write on an O_APPEND descriptor, so a
// concurrent reader sees a prefix of whole records plus at most one partial
// trailing line, which Load discards.
package bookmarks
