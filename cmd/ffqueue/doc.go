// Package main hosts the ffqueue CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once per invocation, resolves
// presets and inputs, and hands a built queue to the queue driver. The
// progress console renders what the driver reports; run history and the
// dependency report are read-only views over the internal packages.
package main
