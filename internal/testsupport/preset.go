package testsupport

import (
	"path/filepath"
	"testing"

	"ffqueue/internal/config"
)

// SamplePreset is a two-profile preset used across command tests.
const SamplePreset = `[
  {
    "Name": "x264 two pass",
    "Description": "H.264 two pass for web",
    "Passes": [["-c:v libx264 -b:v 1M -pass 1 -an -f null", ""], ["-c:v libx264 -b:v 1M -pass 2 -c:a aac", ""]],
    "Supported_list": "mov, mkv avi",
    "Output_extension": "mp4"
  },
  {
    "Name": "audio copy",
    "Description": "Remux keeping streams",
    "Passes": [["-c copy", "_remux"]],
    "Supported_list": "",
    "Output_extension": "copy"
  }
]`

// WritePreset stores content as <preset_dir>/<name>.prst and returns the path.
func WritePreset(t testing.TB, cfg *config.Config, name, content string) string {
	t.Helper()

	path := filepath.Join(cfg.Paths.PresetDir, name+".prst")
	WriteText(t, path, content)
	return path
}
