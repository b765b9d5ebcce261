package task

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind distinguishes the external tool a descriptor targets.
type Kind string

const (
	KindEncode   Kind = "encode"
	KindDownload Kind = "download"
)

// Descriptor is one queued unit of work. It is passed by value; the queue
// never hands out a pointer to its own copy.
type Descriptor struct {
	Kind      Kind
	Input     string
	Output    string
	Args      string
	Extension string
	Suffix    string
	Volume    string
	// Duration is the input duration in seconds, or 0 when unknown.
	Duration float64

	FileIndex int
	FileCount int
	PassIndex int
	PassCount int
	Index     int
	Total     int
}

// Label returns the "File k/T" position string shown in logs and the console.
func (d Descriptor) Label() string {
	return fmt.Sprintf("File %d/%d", d.Index, d.Total)
}

// FirstPass reports whether d is the first pass for its file.
func (d Descriptor) FirstPass() bool { return d.PassIndex == 1 }

// LastPass reports whether d is the final pass for its file.
func (d Descriptor) LastPass() bool { return d.PassIndex == d.PassCount }

// Source is one input file with its per-file settings.
type Source struct {
	Input string
	// Output is the destination before pass suffixes are applied.
	Output   string
	Volume   string
	Duration float64
}

// DestinationFor returns <dir>/<input basename without extension>.<ext>. An
// ext of "copy" keeps the input's own extension.
func DestinationFor(dir, input, ext string) string {
	base := filepath.Base(input)
	srcExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, srcExt)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" || strings.EqualFold(ext, "copy") {
		ext = strings.TrimPrefix(srcExt, ".")
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if ext == "" {
		return filepath.Join(dir, stem)
	}
	return filepath.Join(dir, stem+"."+ext)
}

// BuildQueue expands sources × passes into descriptors in file-major,
// pass-minor order. ext is the output extension used for suffix placement;
// "copy" resolves per source.
func BuildQueue(sources []Source, passes []Pass, ext string) []Descriptor {
	if len(sources) == 0 || len(passes) == 0 {
		return nil
	}
	total := len(sources) * len(passes)
	queue := make([]Descriptor, 0, total)
	for fi, src := range sources {
		fileExt := resolveExtension(src, ext)
		for pi, pass := range passes {
			output := OutputName(src.Output, fileExt, pass.Suffix)
			if pass.Subdir != "" {
				output = filepath.Join(filepath.Dir(output), pass.Subdir, filepath.Base(output))
			}
			queue = append(queue, Descriptor{
				Kind:      KindEncode,
				Input:     src.Input,
				Output:    output,
				Args:      pass.Args,
				Extension: fileExt,
				Suffix:    pass.Suffix,
				Volume:    src.Volume,
				Duration:  src.Duration,
				FileIndex: fi + 1,
				FileCount: len(sources),
				PassIndex: pi + 1,
				PassCount: len(passes),
				Index:     len(queue) + 1,
				Total:     total,
			})
		}
	}
	return queue
}

func resolveExtension(src Source, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext != "" && !strings.EqualFold(ext, "copy") {
		return ext
	}
	return strings.TrimPrefix(filepath.Ext(src.Input), ".")
}
