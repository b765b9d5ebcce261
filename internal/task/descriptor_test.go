package task_test

import (
	"path/filepath"
	"testing"

	"ffqueue/internal/task"
)

func TestBuildQueueFileMajorOrder(t *testing.T) {
	sources := []task.Source{
		{Input: "/in/a.mov", Output: "/out/a.mkv", Duration: 10},
		{Input: "/in/b.mov", Output: "/out/b.mkv"},
		{Input: "/in/c.mov", Output: "/out/c.mkv"},
	}
	passes := []task.Pass{
		{Args: "-pass 1", Suffix: "_p1"},
		{Args: "-pass 2", Suffix: "_p2"},
	}

	queue := task.BuildQueue(sources, passes, "mkv")
	if len(queue) != 6 {
		t.Fatalf("expected 6 descriptors, got %d", len(queue))
	}

	want := []struct {
		input, output string
		file, pass    int
	}{
		{"/in/a.mov", "/out/a_p1.mkv", 1, 1},
		{"/in/a.mov", "/out/a_p2.mkv", 1, 2},
		{"/in/b.mov", "/out/b_p1.mkv", 2, 1},
		{"/in/b.mov", "/out/b_p2.mkv", 2, 2},
		{"/in/c.mov", "/out/c_p1.mkv", 3, 1},
		{"/in/c.mov", "/out/c_p2.mkv", 3, 2},
	}
	for i, w := range want {
		d := queue[i]
		if d.Input != w.input || d.Output != w.output || d.FileIndex != w.file || d.PassIndex != w.pass {
			t.Fatalf("descriptor %d = %+v, want %+v", i, d, w)
		}
		if d.Index != i+1 || d.Total != 6 {
			t.Fatalf("descriptor %d position %d/%d", i, d.Index, d.Total)
		}
		if d.Kind != task.KindEncode {
			t.Fatalf("descriptor %d kind %q", i, d.Kind)
		}
	}
	if queue[0].Label() != "File 1/6" {
		t.Fatalf("unexpected label %q", queue[0].Label())
	}
	if queue[0].Duration != 10 || queue[2].Duration != 0 {
		t.Fatal("expected per-file duration to follow its source")
	}
	if !queue[1].LastPass() || queue[1].FirstPass() {
		t.Fatal("expected second descriptor to be the last pass of file 1")
	}
}

func TestBuildQueueEmpty(t *testing.T) {
	if q := task.BuildQueue(nil, []task.Pass{{Args: "-c copy"}}, "mkv"); q != nil {
		t.Fatalf("expected nil queue, got %v", q)
	}
	if q := task.BuildQueue([]task.Source{{Input: "a"}}, nil, "mkv"); q != nil {
		t.Fatalf("expected nil queue, got %v", q)
	}
}

func TestBuildQueueCopyExtensionAndSubdir(t *testing.T) {
	sources := []task.Source{{Input: "/in/clip.webm", Output: "/out/clip.webm"}}
	passes := []task.Pass{{Args: "-c copy", Suffix: "_trim", Subdir: "trimmed"}}

	queue := task.BuildQueue(sources, passes, "copy")
	if len(queue) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(queue))
	}
	want := filepath.Join("/out", "trimmed", "clip_trim.webm")
	if queue[0].Output != want {
		t.Fatalf("output = %q, want %q", queue[0].Output, want)
	}
	if queue[0].Extension != "webm" {
		t.Fatalf("extension = %q", queue[0].Extension)
	}
}

func TestDestinationFor(t *testing.T) {
	if got := task.DestinationFor("/out", "/in/movie.mov", "mkv"); got != "/out/movie.mkv" {
		t.Fatalf("unexpected destination %q", got)
	}
	if got := task.DestinationFor("/out", "/in/movie.mov", "copy"); got != "/out/movie.mov" {
		t.Fatalf("unexpected copy destination %q", got)
	}
	if got := task.DestinationFor("", "/in/movie.mov", "mp4"); got != "/in/movie.mp4" {
		t.Fatalf("unexpected default-dir destination %q", got)
	}
}
