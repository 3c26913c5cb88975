// Package multivod keeps side-by-side comparison sessions of two or three
// recordings: per-vod offsets against the reference vod, an audit trail of
// every offset change, and the shared playback clock.
//
// Sessions are whole JSON documents. Every mutation is one load-mutate-save
// transaction through Store.Update; the file store serializes writers with a
// per-session flock and the SQLite store rejects stale writes by version.
package multivod
