// Package deps reports whether the external tools and directories ffqueue
// depends on are usable.
package deps
