// Package services defines shared utilities consumed by the task runner, the
// queue driver and the command front-end.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, task positions, and preset labels
//     for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (fatal for the run vs. failed task) with errors.Is.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform.
package services
