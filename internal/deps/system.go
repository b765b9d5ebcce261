package deps

import "ffqueue/internal/config"

// Requirements lists the tools configured in cfg. Only the encoder is
// required; probing and downloading degrade gracefully.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "Required for encoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Used for progress percentages",
			Optional:    true,
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Downloader.Binary,
			Description: "Required for downloads",
			Optional:    true,
		},
	}
}

// CheckSystem evaluates the configured tools followed by the directories
// ffqueue writes to.
func CheckSystem(cfg *config.Config) []Status {
	results := CheckBinaries(Requirements(cfg))
	results = append(results,
		CheckDirectory("Log directory", cfg.Paths.LogDir),
		CheckDirectory("State directory", cfg.Paths.StateDir),
	)
	return results
}
