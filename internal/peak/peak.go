package peak

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"ffqueue/internal/logging"
	"ffqueue/internal/runner"
	"ffqueue/internal/services"
)

// Allowed range for a peak target in dBFS.
const (
	MinTarget = -99.0
	MaxTarget = 0.0
)

var (
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?(?:inf|\d+(?:\.\d+)?))\s*dB`)
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?(?:inf|\d+(?:\.\d+)?))\s*dB`)
)

// Level is the volumedetect report for one file.
type Level struct {
	Path       string
	MaxVolume  float64
	MeanVolume float64
}

// Gain returns the adjustment in dB, rounded to 0.1, that moves the peak to
// target. A silent file gets no adjustment.
func (l Level) Gain(target float64) float64 {
	if math.IsInf(l.MaxVolume, 0) || math.IsNaN(l.MaxVolume) {
		return 0
	}
	return math.Round((target-l.MaxVolume)*10) / 10
}

// Filter renders gain as ffmpeg arguments, or "" when nothing changes.
func Filter(gain float64) string {
	if gain == 0 || math.IsInf(gain, 0) || math.IsNaN(gain) {
		return ""
	}
	return fmt.Sprintf("-af volume=%.1fdB", gain)
}

// ValidateTarget rejects targets outside [MinTarget, MaxTarget].
func ValidateTarget(target float64) error {
	if math.IsNaN(target) || target < MinTarget || target > MaxTarget {
		return services.Wrap(services.ErrValidation, "peak", "validate target",
			fmt.Sprintf("peak target %.1f dB outside %.0f..%.0f", target, MinTarget, MaxTarget), nil)
	}
	return nil
}

// Report accumulates volumedetect lines.
type Report struct {
	max, mean       float64
	hasMax, hasMean bool
}

// Observe records line when it carries a volumedetect value.
func (r *Report) Observe(line string) {
	if m := maxVolumeRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.max, r.hasMax = v, true
		}
	}
	if m := meanVolumeRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.mean, r.hasMean = v, true
		}
	}
}

// Level returns the parsed values. ok is false until a max_volume was seen.
func (r *Report) Level() (Level, bool) {
	if !r.hasMax {
		return Level{}, false
	}
	level := Level{MaxVolume: r.max, MeanVolume: math.Inf(-1)}
	if r.hasMean {
		level.MeanVolume = r.mean
	}
	return level, true
}

// Detector runs the analysis pass:
//
//	ffmpeg <time_seq> -i <file> -hide_banner -nostats <audio map> -af volumedetect -vn -sn -dn -f null -
type Detector struct {
	FFmpeg   string
	TimeSeq  string
	AudioMap string
	Exec     runner.Executor
}

func (d Detector) binary() string {
	if strings.TrimSpace(d.FFmpeg) == "" {
		return "ffmpeg"
	}
	return d.FFmpeg
}

// Command returns the analysis argv for path.
func (d Detector) Command(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "peak", "build command", "input path is empty", nil)
	}
	timeSeq, err := split("time_seq", d.TimeSeq)
	if err != nil {
		return nil, err
	}
	audioMap, err := split("audio map", d.AudioMap)
	if err != nil {
		return nil, err
	}
	argv := []string{d.binary()}
	argv = append(argv, timeSeq...)
	argv = append(argv, "-i", path, "-hide_banner", "-nostats")
	argv = append(argv, audioMap...)
	return append(argv, "-af", "volumedetect", "-vn", "-sn", "-dn", "-f", "null", "-"), nil
}

// Detect measures the peak level of path.
func (d Detector) Detect(ctx context.Context, path string) (Level, error) {
	argv, err := d.Command(path)
	if err != nil {
		return Level{}, err
	}
	exec := d.Exec
	if exec == nil {
		exec = runner.CommandExecutor{}
	}

	var (
		report Report
		last   string
	)
	code, err := exec.Run(ctx, argv, func(line string) {
		report.Observe(line)
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	})
	if err != nil {
		return Level{}, err
	}
	if code != 0 {
		return Level{}, services.Wrap(services.ErrExternalTool, "peak", "detect",
			fmt.Sprintf("%s: exit status %d: %s", path, code, last), nil)
	}
	level, ok := report.Level()
	if !ok {
		return Level{}, services.Wrap(services.ErrExternalTool, "peak", "detect",
			fmt.Sprintf("%s: no audio level reported", path), nil)
	}
	level.Path = path
	return level, nil
}

// Volumes measures every path and returns the volume filter for each, keyed
// by path. Files already at target map to "". The first failure stops the
// analysis.
func (d Detector) Volumes(ctx context.Context, paths []string, target float64, logger *slog.Logger) (map[string]string, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	out := make(map[string]string, len(paths))
	for _, path := range paths {
		level, err := d.Detect(ctx, path)
		if err != nil {
			return nil, err
		}
		gain := level.Gain(target)
		out[path] = Filter(gain)
		logger.Info("peak level measured",
			logging.String(logging.FieldEventType, "peak_measured"),
			logging.String("path", path),
			logging.Float64("max_volume_db", level.MaxVolume),
			logging.Float64("gain_db", gain),
		)
	}
	return out, nil
}

func split(name, value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	words, err := shellwords.Parse(value)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "peak", "split "+name, fmt.Sprintf("cannot split %q", value), err)
	}
	return words, nil
}
