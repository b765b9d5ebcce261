// Package runner executes one task descriptor as an external process.
//
// The Runner builds the argv, writes the task header to the run log, streams
// every output line to a progress.Listener and the log, and classifies the
// outcome: success, failed task (non-zero exit, the run continues), fatal
// (executable not found), or cancelled. Process execution sits behind the
// Executor interface so tests can substitute scripted output.
package runner
