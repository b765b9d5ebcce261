// Package history persists finished and in-flight runs in SQLite.
//
// Store implements queue.Recorder: the driver reports run start, every task
// outcome and the final summary, and the CLI reads them back for the
// history commands. The database lives at <state_dir>/history.db and is
// created from the embedded schema on first open. A database written by a
// different schema version is rejected with ErrSchemaMismatch rather than
// migrated.
package history
