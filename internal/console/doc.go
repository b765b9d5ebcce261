// Package console renders progress events for a terminal or a plain stream.
//
// Console implements progress.Listener. Attached to a terminal it draws a
// go-pretty progress tracker per task and prints text above it; otherwise it
// writes plain lines with periodic "Percentage: N%" updates so redirected
// output stays readable.
package console
