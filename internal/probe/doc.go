// Package probe looks up media durations with ffprobe.
//
// The encoder reports progress as elapsed media time; a known duration turns
// those lines into percentages. Probing is best effort: a file that cannot be
// probed keeps an unknown duration and still runs.
package probe
