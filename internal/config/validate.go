package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PresetDir) == "" {
		return errors.New("paths.preset_dir must be set")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.Contains(c.FFmpeg.ExtraParams, " -i ") || strings.HasPrefix(c.FFmpeg.ExtraParams, "-i ") {
		return errors.New("ffmpeg.extra_params must not contain an input (-i); inputs come from the queue")
	}
	if c.FFmpeg.TimeSeq != "" {
		fields := strings.Fields(c.FFmpeg.TimeSeq)
		if len(fields) != 4 || fields[0] != "-ss" || fields[2] != "-t" {
			return fmt.Errorf("ffmpeg.time_seq must look like \"-ss 00:00:10 -t 00:01:00\", got %q", c.FFmpeg.TimeSeq)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
