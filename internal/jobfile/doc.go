// Package jobfile associates files on disk with anonymization jobs using
// folder layout alone.
//
// There is no database of record for file location. A JobFolder keeps one
// subfolder per job id (plus an UNKNOWN bucket) and every query re-reads the
// directory tree, so the filesystem stays the single source of truth.
// Destinations never overwrite: colliding names are replaced with fresh
// random ones before a move or copy happens.
package jobfile
