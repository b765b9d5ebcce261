// Package logs locates and reads the plain-text run logs written by the queue
// runner.
//
// Run logs are named ffqueue-<kind>-<YYYYMMDD>.log and are appended to for
// every run of that kind on that day. Latest picks the most recently modified
// one, Last returns its trailing lines with bounded memory, and Follow polls
// for appended lines until the caller's context ends.
package logs
