package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeDownloader()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PresetDir) == "" {
		c.Paths.PresetDir = defaultPresetDir
	}
	if c.Paths.PresetDir, err = expandPath(c.Paths.PresetDir); err != nil {
		return fmt.Errorf("paths.preset_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	if value, ok := os.LookupEnv("FFQUEUE_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.Binary = value
	}
	if value, ok := os.LookupEnv("FFQUEUE_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.FFprobeBinary = value
	}
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.LogLevel = collapseSpaces(c.FFmpeg.LogLevel)
	c.FFmpeg.ExtraParams = collapseSpaces(c.FFmpeg.ExtraParams)
	c.FFmpeg.Threads = collapseSpaces(c.FFmpeg.Threads)
	c.FFmpeg.TimeSeq = collapseSpaces(c.FFmpeg.TimeSeq)
}

func (c *Config) normalizeDownloader() {
	if value, ok := os.LookupEnv("FFQUEUE_YTDLP"); ok && strings.TrimSpace(value) != "" {
		c.Downloader.Binary = value
	}
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultYTDLPBinary
	}
	c.Downloader.Format = strings.TrimSpace(c.Downloader.Format)
	c.Downloader.OutputTemplate = strings.TrimSpace(c.Downloader.OutputTemplate)
	if c.Downloader.OutputTemplate == "" {
		c.Downloader.OutputTemplate = defaultOutputTemplate
	}
	c.Downloader.ExtraArgs = collapseSpaces(c.Downloader.ExtraArgs)
	c.Downloader.ReleaseURL = strings.TrimSpace(c.Downloader.ReleaseURL)
	if c.Downloader.ReleaseURL == "" {
		c.Downloader.ReleaseURL = defaultReleaseURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// collapseSpaces joins runs of whitespace the same way the preset editor does
// before a command string is handed to the task builder.
func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
