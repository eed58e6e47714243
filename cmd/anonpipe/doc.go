// Command anonpipe is the operator CLI for the anonymization staging
// pipeline: inspecting stages and quarantines, archiving quarantined jobs,
// and driving single ticks by hand. The long-running counterpart is
// anonpiped.
package main
