// Package quarantine reconciles files the external anonymization engine
// drops into its quarantine folders back into per-job accounting.
//
// The engine cannot separate quarantined files per job, so each of its
// folders is mirrored twice inside the base tree: an active mirror that is
// job-partitioned and answers queries, and an archive mirror holding files
// that were moved out of the way but must not be deleted. The scrape
// operation empties the engine's folders into the active mirrors, recovering
// each file's job id from its embedded metadata.
package quarantine
