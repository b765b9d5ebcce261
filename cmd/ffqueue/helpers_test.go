package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ffqueue/internal/config"
	"ffqueue/internal/testsupport"
)

const (
	ffmpegWritesOutput = `for last; do :; done
echo "Input #0, matroska,webm, from 'input':"
echo "frame=   10 fps=0.0 q=-1.0 size=       0kB time=00:00:05.00 bitrate=N/A speed=10x"
echo "encoded" > "$last"
exit 0
`
	ffprobeTenSeconds = `echo '{"streams":[],"format":{"duration":"10.000000"}}'
`
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	ctx        *commandContext
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	cfg.FFmpeg.FFprobeBinary = testsupport.WriteScript(t, filepath.Join(base, "bin"), "ffprobe-stub", ffprobeTenSeconds)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "ffqueue.toml"),
		baseDir:    base,
	}
	env.writeConfig(t)
	return env
}

// writeConfig persists env.cfg so the CLI loads the same values.
func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) input(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "media", name)
	testsupport.WriteFile(t, path, 64)
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	ctx := env.ctx
	if ctx == nil {
		ctx = newCommandContext(new(string))
	}
	cmd := newRootCommandWith(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}

func runIDFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if id, ok := strings.CutPrefix(line, "Run ID: "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no run id in output:\n%s", output)
	return ""
}
