// Package playlist turns playlist URLs into per-video URLs so each video is
// downloaded as its own task.
package playlist
