// Package progress carries runner output to observers.
//
// The runner publishes Events to a Listener. Async decouples the worker from
// a slow consumer: plain output lines may be dropped when its buffer is full,
// lifecycle events never are. The parsers turn ffmpeg "time=" and yt-dlp
// "[download] N%" lines into percentages.
package progress
