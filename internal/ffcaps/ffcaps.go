package ffcaps

import (
	"context"
	"fmt"
	"strings"

	"ffqueue/internal/runner"
	"ffqueue/internal/services"
)

// BuildConf is the summary printed by "ffmpeg -version".
type BuildConf struct {
	Version   string
	Options   []string
	Libraries []string
}

// Format is one row of "ffmpeg -formats".
type Format struct {
	Name        string
	Description string
	Demux       bool
	Mux         bool
	Device      bool
}

// Codec is one row of "ffmpeg -encoders" or "ffmpeg -decoders".
type Codec struct {
	Name        string
	Description string
	// Type is video, audio, subtitle, data or attachment.
	Type  string
	Flags string
}

// CodecKind selects the encoder or decoder listing.
type CodecKind string

const (
	Encoders CodecKind = "encoders"
	Decoders CodecKind = "decoders"
)

// Querier runs the listing commands.
type Querier struct {
	FFmpeg string
	Exec   runner.Executor
}

func (q Querier) binary() string {
	if strings.TrimSpace(q.FFmpeg) == "" {
		return "ffmpeg"
	}
	return q.FFmpeg
}

// BuildConf reports the version, configure options and library versions.
func (q Querier) BuildConf(ctx context.Context) (BuildConf, error) {
	lines, err := q.output(ctx, "buildconf", "-version")
	if err != nil {
		return BuildConf{}, err
	}
	return ParseBuildConf(lines), nil
}

// Formats lists the container formats.
func (q Querier) Formats(ctx context.Context) ([]Format, error) {
	lines, err := q.output(ctx, "formats", "-hide_banner", "-formats")
	if err != nil {
		return nil, err
	}
	return ParseFormats(lines), nil
}

// Codecs lists encoders or decoders.
func (q Querier) Codecs(ctx context.Context, kind CodecKind) ([]Codec, error) {
	if kind != Encoders && kind != Decoders {
		return nil, services.Wrap(services.ErrValidation, "ffcaps", "codecs", fmt.Sprintf("unknown codec listing %q", kind), nil)
	}
	lines, err := q.output(ctx, string(kind), "-hide_banner", "-"+string(kind))
	if err != nil {
		return nil, err
	}
	return ParseCodecs(lines), nil
}

func (q Querier) output(ctx context.Context, op string, args ...string) ([]string, error) {
	exec := q.Exec
	if exec == nil {
		exec = runner.CommandExecutor{}
	}
	argv := append([]string{q.binary()}, args...)
	var lines []string
	code, err := exec.Run(ctx, argv, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, err
	}
	if code != 0 {
		last := ""
		if len(lines) > 0 {
			last = strings.TrimSpace(lines[len(lines)-1])
		}
		return nil, services.Wrap(services.ErrExternalTool, "ffcaps", op,
			fmt.Sprintf("%s exited with status %d: %s", q.binary(), code, last), nil)
	}
	return lines, nil
}

// ParseBuildConf reads "ffmpeg -version" output.
func ParseBuildConf(lines []string) BuildConf {
	var conf BuildConf
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case conf.Version == "" && strings.HasPrefix(trimmed, "ffmpeg version "):
			fields := strings.Fields(trimmed)
			if len(fields) >= 3 {
				conf.Version = fields[2]
			}
		case strings.HasPrefix(trimmed, "configuration:"):
			conf.Options = append(conf.Options, strings.Fields(strings.TrimPrefix(trimmed, "configuration:"))...)
		case strings.HasPrefix(trimmed, "--"):
			conf.Options = append(conf.Options, trimmed)
		case strings.HasPrefix(trimmed, "lib"):
			conf.Libraries = append(conf.Libraries, strings.Join(strings.Fields(trimmed), " "))
		}
	}
	return conf
}

// ParseFormats reads "ffmpeg -formats" output. The flag column width is taken
// from the dashed line that ends the legend, so both the two-column
// (D, E) and three-column (D, E, d) layouts parse.
func ParseFormats(lines []string) []Format {
	var formats []Format
	forEachRow(lines, func(flags, name, description string) {
		formats = append(formats, Format{
			Name:        name,
			Description: description,
			Demux:       strings.Contains(flags, "D"),
			Mux:         strings.Contains(flags, "E"),
			Device:      strings.Contains(flags, "d"),
		})
	})
	return formats
}

// ParseCodecs reads "ffmpeg -encoders" or "ffmpeg -decoders" output.
func ParseCodecs(lines []string) []Codec {
	var codecs []Codec
	forEachRow(lines, func(flags, name, description string) {
		codecs = append(codecs, Codec{
			Name:        name,
			Description: description,
			Type:        codecType(flags[0]),
			Flags:       flags,
		})
	})
	return codecs
}

func codecType(flag byte) string {
	switch flag {
	case 'V':
		return "video"
	case 'A':
		return "audio"
	case 'S':
		return "subtitle"
	case 'D':
		return "data"
	case 'T':
		return "attachment"
	default:
		return "unknown"
	}
}

// forEachRow walks the rows that follow the legend separator. Each row is a
// leading space, a fixed-width flag column, the name, and a description.
func forEachRow(lines []string, fn func(flags, name, description string)) {
	width := 0
	for _, line := range lines {
		if width == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && strings.Trim(trimmed, "-") == "" {
				width = len(trimmed)
			}
			continue
		}
		if len(line) < width+2 || line[0] != ' ' {
			continue
		}
		flags := line[1 : 1+width]
		rest := strings.TrimSpace(line[1+width:])
		name, description, _ := strings.Cut(rest, " ")
		if name == "" || strings.TrimSpace(flags) == "" {
			continue
		}
		fn(flags, name, strings.TrimSpace(description))
	}
}
