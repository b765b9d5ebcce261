// Package queue drives a batch of task descriptors through the runner.
//
// A Driver owns at most one background worker. The worker walks the queue in
// order (file-major, pass-minor), invokes the runner sequentially, and folds
// the outcomes into a Summary. The run state follows
//
//	Idle -> Running -> {Completed, Aborted, Failed} -> Idle
//
// where the return to Idle happens on Reset. Cancel stops further launches
// and terminates the active task. Progress leaves the worker only through the
// configured progress.Listener; a Recorder, when present, persists outcomes.
package queue
