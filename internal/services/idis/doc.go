// Package idis talks to the anonymization engine's web API: submitting
// batches of files for processing and polling the outcome. Submission
// failures are reported to the caller, never retried here.
package idis
