package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"ffqueue/internal/services"
)

// Pass is one encoder invocation: the argument string placed after the input
// and the suffix appended to the output name.
type Pass struct {
	Args   string
	Suffix string
	Subdir string
}

const passFormatHint = `expected [["ffmpeg arguments", "suffix"], ["ffmpeg arguments", "suffix"], ...]`

// ParsePasses decodes the stored preset command syntax. Each entry is a JSON
// array of two strings (arguments, suffix) with an optional third element
// naming a subdirectory. The offending content is part of the returned error.
func ParsePasses(raw string) ([]Pass, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, invalidPasses(raw, "empty command")
	}

	var entries [][]string
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, invalidPasses(raw, err.Error())
	}
	if len(entries) == 0 {
		return nil, invalidPasses(raw, "no passes defined")
	}

	passes := make([]Pass, 0, len(entries))
	for i, entry := range entries {
		if len(entry) < 2 || len(entry) > 3 {
			return nil, invalidPasses(raw, fmt.Sprintf("pass %d has %d elements", i+1, len(entry)))
		}
		pass := Pass{Args: strings.TrimSpace(entry[0]), Suffix: entry[1]}
		if len(entry) == 3 {
			pass.Subdir = strings.TrimSpace(entry[2])
		}
		passes = append(passes, pass)
	}
	return passes, nil
}

func invalidPasses(raw, reason string) error {
	return services.Wrap(
		services.ErrValidation,
		"task",
		"parse passes",
		fmt.Sprintf("%s; %s; got: %s", reason, passFormatHint, raw),
		nil,
	)
}

// OutputName inserts suffix before the ".ext" of out. When out does not end
// in ".ext" the suffix and extension are appended.
func OutputName(out, ext, suffix string) string {
	ext = strings.TrimPrefix(ext, ".")
	if suffix == "" || ext == "" {
		return out
	}
	dotted := "." + ext
	if strings.HasSuffix(out, dotted) {
		return strings.TrimSuffix(out, dotted) + suffix + dotted
	}
	return out + suffix + dotted
}
