// Package ffcaps asks the configured ffmpeg what it was built with: its
// version and configure flags, the container formats it can read and write,
// and its encoders and decoders.
package ffcaps
