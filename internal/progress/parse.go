package progress

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ffmpegTimeRe   = regexp.MustCompile(`time=\s*(-)?(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	downloadPctRe  = regexp.MustCompile(`^\[download\]\s+(\d{1,3}(?:\.\d+)?)%`)
	ffmpegStatusRe = regexp.MustCompile(`^(?:frame=|size=)\s*\S`)
)

// ParseFFmpegTime extracts the "time=HH:MM:SS.xx" position in seconds.
// ffmpeg prints negative positions while it primes the encoder; those count
// as the start of the file.
func ParseFFmpegTime(line string) (float64, bool) {
	m := ffmpegTimeRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	mins, _ := strconv.Atoi(m[3])
	secs, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, false
	}
	if m[1] == "-" {
		return 0, true
	}
	return float64(h*3600+mins*60) + secs, true
}

// IsFFmpegStatus reports whether line is an ffmpeg periodic status line
// ("frame= ... time= ..." or "size= ... time= ...").
func IsFFmpegStatus(line string) bool {
	trimmed := strings.TrimSpace(line)
	return ffmpegStatusRe.MatchString(trimmed) && strings.Contains(trimmed, "time=")
}

// Percent converts a position into a percentage of duration, clamped to
// [0,100]. It returns -1 when duration is unknown.
func Percent(position, duration float64) float64 {
	if duration <= 0 {
		return -1
	}
	pct := position / duration * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// ParseDownloadPercent extracts the percentage from a yt-dlp progress line.
func ParseDownloadPercent(line string) (float64, bool) {
	m := downloadPctRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}

// LinePercent returns the percent implied by line for the given tool kind.
// ffmpeg positions need the input duration; yt-dlp lines carry their own.
func LinePercent(download bool, line string, duration float64) float64 {
	if download {
		if pct, ok := ParseDownloadPercent(line); ok {
			return pct
		}
		return -1
	}
	if pos, ok := ParseFFmpegTime(line); ok {
		return Percent(pos, duration)
	}
	return -1
}
