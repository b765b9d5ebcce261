package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/mattn/go-shellwords"

	"ffqueue/internal/config"
	"ffqueue/internal/services"
)

// CommandBuilder turns a descriptor into the argv handed to the executor.
type CommandBuilder interface {
	Command(d Descriptor) ([]string, error)
	Binary() string
}

// Builder constructs ffmpeg command lines:
//
//	ffmpeg <time_seq> <loglevel> <extra params> -i <input> <pass args> <volume> <threads> -y <output>
type Builder struct {
	FFmpeg      string
	TimeSeq     string
	LogLevel    string
	ExtraParams string
	Threads     string
}

// NewBuilder copies the global ffmpeg settings from configuration.
func NewBuilder(cfg config.FFmpeg) Builder {
	return Builder{
		FFmpeg:      cfg.Binary,
		TimeSeq:     cfg.TimeSeq,
		LogLevel:    cfg.LogLevel,
		ExtraParams: cfg.ExtraParams,
		Threads:     cfg.Threads,
	}
}

func (b Builder) Binary() string {
	if b.FFmpeg == "" {
		return "ffmpeg"
	}
	return b.FFmpeg
}

// Command returns the argv for d.
func (b Builder) Command(d Descriptor) ([]string, error) {
	if strings.TrimSpace(d.Input) == "" {
		return nil, services.Wrap(services.ErrValidation, "task", "build command", "input path is empty", nil)
	}
	if strings.TrimSpace(d.Output) == "" {
		return nil, services.Wrap(services.ErrValidation, "task", "build command", "output path is empty", nil)
	}

	argv := make([]string, 0, 32)
	argv = append(argv, b.Binary())
	var err error
	for _, segment := range []struct{ name, value string }{
		{"time_seq", b.TimeSeq},
		{"loglevel", b.LogLevel},
		{"extra params", b.ExtraParams},
	} {
		if argv, err = appendSplit(argv, segment.name, segment.value); err != nil {
			return nil, err
		}
	}
	argv = append(argv, "-i", d.Input)
	for _, segment := range []struct{ name, value string }{
		{"pass args", d.Args},
		{"volume", d.Volume},
		{"threads", b.Threads},
	} {
		if argv, err = appendSplit(argv, segment.name, segment.value); err != nil {
			return nil, err
		}
	}
	argv = append(argv, "-y", d.Output)
	return argv, nil
}

// DownloadBuilder constructs yt-dlp command lines through go-ytdlp's flag
// builder:
//
//	yt-dlp --newline [--format <format>] --output <template> <extra args> <url>
type DownloadBuilder struct {
	YTDLP          string
	Format         string
	ExtraArgs      string
	OutputDir      string
	OutputTemplate string
}

// NewDownloadBuilder copies downloader settings from configuration.
func NewDownloadBuilder(cfg config.Downloader, outputDir string) DownloadBuilder {
	return DownloadBuilder{
		YTDLP:          cfg.Binary,
		Format:         cfg.Format,
		ExtraArgs:      cfg.ExtraArgs,
		OutputDir:      outputDir,
		OutputTemplate: cfg.OutputTemplate,
	}
}

func (b DownloadBuilder) Binary() string {
	if b.YTDLP == "" {
		return "yt-dlp"
	}
	return b.YTDLP
}

// Command returns the argv for a download descriptor; d.Input is the URL.
func (b DownloadBuilder) Command(d Descriptor) ([]string, error) {
	url := strings.TrimSpace(d.Input)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "task", "build download", "url is empty", nil)
	}
	args, err := appendSplit(nil, "downloader args", b.ExtraArgs)
	if err != nil {
		return nil, err
	}
	if args, err = appendSplit(args, "downloader args", d.Args); err != nil {
		return nil, err
	}

	dl := b.command().Newline().Output(d.Output)
	if format := strings.TrimSpace(b.Format); format != "" {
		dl.Format(format)
	}
	return b.argv(dl, append(args, url)...), nil
}

// FormatsCommand returns the argv that lists the formats available for url.
func (b DownloadBuilder) FormatsCommand(url string) ([]string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "task", "build formats", "url is empty", nil)
	}
	return b.argv(b.command().ListFormats().NoPlaylist(), url), nil
}

// VersionCommand returns the argv that prints the installed yt-dlp version.
func (b DownloadBuilder) VersionCommand() []string {
	return b.argv(b.command(), "--version")
}

func (b DownloadBuilder) command() *ytdlp.Command {
	return ytdlp.New().SetExecutable(b.Binary())
}

// argv renders dl without starting it; the runner owns execution so output
// lines reach the run log and cancellation reaches the process group.
func (b DownloadBuilder) argv(dl *ytdlp.Command, args ...string) []string {
	rendered := dl.BuildCommand(context.Background(), args...).Args
	argv := make([]string, 0, len(rendered))
	argv = append(argv, b.Binary())
	if len(rendered) > 1 {
		argv = append(argv, rendered[1:]...)
	}
	return argv
}

// DownloadQueue creates one download descriptor per URL.
func (b DownloadBuilder) DownloadQueue(urls []string) []Descriptor {
	template := b.OutputTemplate
	if template == "" {
		template = "%(title)s.%(ext)s"
	}
	output := template
	if b.OutputDir != "" {
		output = strings.TrimRight(b.OutputDir, "/") + "/" + template
	}
	queue := make([]Descriptor, 0, len(urls))
	for i, url := range urls {
		queue = append(queue, Descriptor{
			Kind:      KindDownload,
			Input:     url,
			Output:    output,
			FileIndex: i + 1,
			FileCount: len(urls),
			PassIndex: 1,
			PassCount: 1,
			Index:     i + 1,
			Total:     len(urls),
		})
	}
	return queue
}

func appendSplit(argv []string, name, value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return argv, nil
	}
	words, err := shellwords.Parse(value)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "task", "split "+name, fmt.Sprintf("cannot split %q", value), err)
	}
	return append(argv, words...), nil
}
