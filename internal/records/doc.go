// Package records persists the correlation between submitted file batches
// and the external anonymization engine's job handling, backed by SQLite.
//
// A record is appended when a stream's pending files are submitted and
// resolved when the engine reports the outcome. The store only answers
// "which submissions are still open and which files do they cover"; where a
// file currently sits on disk is the folder tree's business, never the
// database's.
package records
