// Package peak measures per-file audio peak levels with ffmpeg's volumedetect
// filter and turns them into the volume filter that brings each file's peak
// to a common target.
package peak
