package config

const (
	defaultLogDir          = "~/.local/share/ffqueue/logs"
	defaultStateDir        = "~/.local/share/ffqueue/state"
	defaultPresetDir       = "~/.config/ffqueue/presets"
	defaultOutputDir       = "~/Videos/ffqueue"
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultFFmpegLogLevel  = "-loglevel info"
	defaultFFmpegParams    = "-hide_banner"
	defaultFFmpegThreads   = "-threads 4"
	defaultYTDLPBinary     = "yt-dlp"
	defaultYTDLPFormat     = "bestvideo+bestaudio/best"
	defaultOutputTemplate  = "%(title)s.%(ext)s"
	defaultReleaseURL      = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultConsoleColor    = true
	defaultExpandPlaylists = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			PresetDir: defaultPresetDir,
			OutputDir: defaultOutputDir,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			LogLevel:      defaultFFmpegLogLevel,
			ExtraParams:   defaultFFmpegParams,
			Threads:       defaultFFmpegThreads,
		},
		Downloader: Downloader{
			Binary:         defaultYTDLPBinary,
			Format:         defaultYTDLPFormat,
			OutputTemplate: defaultOutputTemplate,
			ExpandPlaylist: defaultExpandPlaylists,
			ReleaseURL:     defaultReleaseURL,
		},
		Console: Console{
			Color: defaultConsoleColor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
