package preset_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ffqueue/internal/preset"
	"ffqueue/internal/services"
	"ffqueue/internal/testsupport"
)

func TestDirStoreListsAndLoadsProfiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePreset(t, cfg, "web", testsupport.SamplePreset)
	testsupport.WritePreset(t, cfg, "archive", `[]`)
	testsupport.WriteText(t, cfg.Paths.PresetDir+"/notes.txt", "ignored")

	store := preset.NewDirStore(cfg.Paths.PresetDir)
	ctx := context.Background()

	names, err := store.Presets(ctx)
	if err != nil {
		t.Fatalf("Presets: %v", err)
	}
	if strings.Join(names, ",") != "archive,web" {
		t.Fatalf("unexpected presets: %v", names)
	}

	profiles, err := store.Profiles(ctx, "web")
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "x264 two pass" || profiles[1].Name != "audio copy" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}

	profile, err := store.Profile(ctx, "web", "x264 two pass")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	passes, err := profile.Passes()
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}
	if len(passes) != 2 || !strings.Contains(passes[1].Args, "-pass 2") {
		t.Fatalf("unexpected passes: %+v", passes)
	}
	if profile.OutputExtension != "mp4" || profile.KeepsExtension() {
		t.Fatalf("unexpected extension handling: %+v", profile)
	}
}

func TestDirStoreMissingPresetAndProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePreset(t, cfg, "web", testsupport.SamplePreset)
	store := preset.NewDirStore(cfg.Paths.PresetDir)

	if _, err := store.Profiles(context.Background(), "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing preset, got %v", err)
	}
	if _, err := store.Profile(context.Background(), "web", "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing profile, got %v", err)
	}
	if _, err := store.Profiles(context.Background(), "../web"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for path-like name, got %v", err)
	}

	missing := preset.NewDirStore(cfg.Paths.PresetDir + "/absent")
	if _, err := missing.Presets(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing directory, got %v", err)
	}
}

func TestDirStoreMalformedKeyNamesFileAndKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WritePreset(t, cfg, "broken", `[{"Name": "a", "Description": 3, "Passes": [], "Supported_list": "", "Output_extension": ""}]`)
	store := preset.NewDirStore(cfg.Paths.PresetDir)

	_, err := store.Profiles(context.Background(), "broken")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), `"Description"`) {
		t.Fatalf("expected file and key in error, got %v", err)
	}

	testsupport.WritePreset(t, cfg, "partial", `[{"Name": "a", "Passes": []}]`)
	if _, err := store.Profiles(context.Background(), "partial"); err == nil || !strings.Contains(err.Error(), "missing key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestProfilePassesAcceptsStringEncodedCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePreset(t, cfg, "legacy", `[{"Name": "p", "Description": "", "Passes": "[[\"-c copy\", \"_x\", \"sub\"]]", "Supported_list": "", "Output_extension": ".mkv"}]`)
	store := preset.NewDirStore(cfg.Paths.PresetDir)

	profile, err := store.Profile(context.Background(), "legacy", "p")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	passes, err := profile.Passes()
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}
	if len(passes) != 1 || passes[0].Suffix != "_x" || passes[0].Subdir != "sub" {
		t.Fatalf("unexpected passes: %+v", passes)
	}
	if profile.OutputExtension != "mkv" {
		t.Fatalf("expected leading dot stripped, got %q", profile.OutputExtension)
	}
}

func TestProfileMalformedPassesFailBeforeRun(t *testing.T) {
	profile := preset.Profile{Name: "bad", RawPasses: []byte(`[["only args"]]`)}
	if _, err := profile.Passes(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileSupports(t *testing.T) {
	profile := preset.Profile{SupportedList: "MOV, .mkv avi"}
	cases := map[string]bool{
		"/a/clip.mov": true,
		"clip.MKV":    true,
		"clip.avi":    true,
		"clip.mp4":    false,
		"noext":       false,
	}
	for path, want := range cases {
		if got := profile.Supports(path); got != want {
			t.Errorf("Supports(%q) = %v, want %v", path, got, want)
		}
	}
	if !(preset.Profile{}).Supports("anything.xyz") {
		t.Fatal("expected empty list to accept every file")
	}
	if !(preset.Profile{OutputExtension: "COPY"}).KeepsExtension() {
		t.Fatal("expected copy to keep extension")
	}
}
