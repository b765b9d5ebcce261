package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ffqueue/internal/logging"
	events "ffqueue/internal/progress"
	"ffqueue/internal/services"
)

// Options controls rendering.
type Options struct {
	// SuppressOutput hides raw tool output; progress and outcomes still show.
	SuppressOutput bool
	// Color enables ANSI colour when the writer is a terminal.
	Color bool
	// Bars enables the animated progress tracker when the writer is a terminal.
	Bars bool
	// Interactive overrides terminal detection (tests).
	Interactive *bool
}

var (
	colorOutput    = text.Colors{text.FgYellow}
	colorCompleted = text.Colors{text.FgGreen}
	colorFailed    = text.Colors{text.FgRed}
	colorAborted   = text.Colors{text.FgMagenta}
	colorFinished  = text.Colors{text.FgBlue}
)

// Console is a progress.Listener writing human-readable output.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	opts     Options
	colorize bool
	bars     bool

	pw      progress.Writer
	tracker *progress.Tracker
	sampler *logging.ProgressSampler
	label   string
	title   cases.Caser
}

// New constructs a Console writing to w.
func New(w io.Writer, opts Options) *Console {
	interactive := IsTerminal(w)
	if opts.Interactive != nil {
		interactive = *opts.Interactive
	}
	c := &Console{
		w:        w,
		opts:     opts,
		colorize: opts.Color && interactive,
		bars:     opts.Bars && interactive,
		sampler:  logging.NewProgressSampler(10),
		title:    cases.Title(language.Und),
	}
	if c.bars {
		pw := progress.NewWriter()
		pw.SetOutputWriter(w)
		pw.SetAutoStop(false)
		pw.SetTrackerLength(30)
		pw.SetUpdateFrequency(100 * time.Millisecond)
		pw.SetStyle(progress.StyleDefault)
		pw.Style().Visibility.ETA = true
		pw.Style().Visibility.Value = false
		c.pw = pw
		go pw.Render()
	}
	return c
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Notify renders one event.
func (c *Console) Notify(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case events.KindTaskStarted:
		c.startTask(e)
	case events.KindLine:
		c.line(e)
	case events.KindTaskFinished:
		c.finishTracker(false)
		c.print(colorCompleted, " ...Completed")
	case events.KindTaskFailed:
		c.finishTracker(true)
		if errors.Is(e.Err, services.ErrCancelled) {
			return
		}
		msg := " ...Failed"
		if e.ExitCode > 0 {
			msg = fmt.Sprintf(" ...Failed (exit status %d)", e.ExitCode)
		} else if e.Err != nil {
			msg = " ...Failed: " + e.Err.Error()
		}
		c.print(colorFailed, msg)
	case events.KindFatal:
		c.finishTracker(true)
		msg := "\n  "
		if e.Err != nil {
			msg += e.Err.Error()
		}
		if e.Hint != "" {
			msg += "\n  " + e.Hint
		}
		c.print(colorOutput, msg)
	case events.KindRunFinished:
		c.finishRun(e)
	}
}

// Close stops the progress renderer. It is safe to call more than once.
func (c *Console) Close() {
	c.mu.Lock()
	pw := c.pw
	c.pw = nil
	c.mu.Unlock()
	if pw == nil {
		return
	}
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func (c *Console) startTask(e events.Event) {
	c.sampler.Reset()
	c.label = fmt.Sprintf("File %d/%d", e.Index, e.Total)
	c.print(nil, fmt.Sprintf("\n  %s : %q", c.label, e.Source))
	if c.pw != nil {
		c.tracker = &progress.Tracker{Message: c.label, Total: 100, Units: progress.UnitsDefault}
		c.pw.AppendTracker(c.tracker)
	}
}

func (c *Console) line(e events.Event) {
	if e.Percent >= 0 {
		if c.tracker != nil {
			c.tracker.SetValue(int64(e.Percent))
			return
		}
		if c.sampler.ShouldLog(e.Percent, c.label) {
			c.print(nil, fmt.Sprintf("Percentage: %d%%", int(e.Percent)))
		}
		return
	}
	if c.opts.SuppressOutput || strings.TrimSpace(e.Line) == "" {
		return
	}
	if events.IsFFmpegStatus(e.Line) || strings.HasPrefix(strings.TrimSpace(e.Line), "[download]") {
		return
	}
	c.print(colorOutput, " "+e.Line)
}

func (c *Console) finishTracker(failed bool) {
	if c.tracker == nil {
		return
	}
	if failed {
		c.tracker.MarkAsErrored()
	} else {
		c.tracker.SetValue(100)
		c.tracker.MarkAsDone()
	}
	c.tracker = nil
}

func (c *Console) finishRun(e events.Event) {
	c.finishTracker(e.State != "completed")
	var (
		banner string
		colors text.Colors
	)
	switch e.State {
	case "completed":
		banner, colors = "All finished!", colorFinished
	case "aborted":
		banner, colors = "Interrupted Process!", colorAborted
	default:
		banner, colors = "Sorry, tasks failed!", colorFailed
	}
	c.print(colors, "\n "+banner)
	if e.State == "completed" {
		c.print(nil, "Percentage: 100%")
	}
	c.print(nil, fmt.Sprintf(" %s: %d file(s) completed in %s",
		c.title.String(e.State), len(e.Completed), e.Elapsed.Round(time.Second)))
}

func (c *Console) print(colors text.Colors, msg string) {
	if c.colorize && colors != nil {
		msg = colors.Sprint(msg)
	}
	if c.pw != nil {
		c.pw.Log("%s", msg)
		return
	}
	fmt.Fprintln(c.w, msg)
}
