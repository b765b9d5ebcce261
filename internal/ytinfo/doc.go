// Package ytinfo answers questions about yt-dlp without downloading
// anything: the formats a URL offers, the installed version, and the latest
// published release.
package ytinfo
