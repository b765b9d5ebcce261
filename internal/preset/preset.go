package preset

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"ffqueue/internal/task"
)

// Extension is the file suffix used for preset files.
const Extension = ".prst"

// CopyExtension keeps each source file's own extension.
const CopyExtension = "copy"

// Store exposes presets and their profiles.
type Store interface {
	Presets(ctx context.Context) ([]string, error)
	Profiles(ctx context.Context, preset string) ([]Profile, error)
	Profile(ctx context.Context, preset, name string) (Profile, error)
}

// Profile is one named encoding recipe inside a preset.
type Profile struct {
	Preset          string
	Name            string
	Description     string
	SupportedList   string
	OutputExtension string
	// RawPasses is the stored command syntax, kept verbatim so that a
	// malformed entry is reported with its original text.
	RawPasses json.RawMessage
}

// Passes decodes the stored passes.
func (p Profile) Passes() ([]task.Pass, error) {
	return task.ParsePasses(string(p.RawPasses))
}

// Extensions returns the lower-cased extensions listed in SupportedList,
// without leading dots.
func (p Profile) Extensions() []string {
	fields := strings.FieldsFunc(p.SupportedList, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(field), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Supports reports whether path has one of the supported extensions. An
// empty list accepts every file.
func (p Profile) Supports(path string) bool {
	exts := p.Extensions()
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, candidate := range exts {
		if candidate == ext {
			return true
		}
	}
	return false
}

// KeepsExtension reports whether outputs reuse the source extension.
func (p Profile) KeepsExtension() bool {
	ext := strings.TrimSpace(p.OutputExtension)
	return ext == "" || strings.EqualFold(ext, CopyExtension)
}
