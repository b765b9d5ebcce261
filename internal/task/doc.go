// Package task describes the unit of work the queue hands to the runner.
//
// A Descriptor is one (file, pass) pair with its resolved output path; the
// queue is a file-major, pass-minor slice of them produced by BuildQueue.
// Builders turn a Descriptor into the argv for ffmpeg or yt-dlp. Argument
// strings coming from presets and configuration are split with shell quoting
// rules; input and output paths are always passed as single argv entries.
package task
