package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ffqueue/internal/services"
)

var requiredKeys = []string{"Name", "Description", "Passes", "Supported_list", "Output_extension"}

// DirStore reads presets from a directory of .prst files.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the preset directory.
func (s *DirStore) Dir() string { return s.dir }

// Presets lists preset names, sorted.
func (s *DirStore) Presets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "preset", "list presets",
				fmt.Sprintf("preset directory %q does not exist", s.dir), err)
		}
		return nil, fmt.Errorf("read preset directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Extension))
	}
	sort.Strings(names)
	return names, nil
}

// Profiles returns the profiles of preset in file order.
func (s *DirStore) Profiles(ctx context.Context, preset string) ([]Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	preset = strings.TrimSpace(preset)
	if preset == "" || strings.ContainsAny(preset, `/\`) {
		return nil, services.Wrap(services.ErrValidation, "preset", "load preset",
			fmt.Sprintf("invalid preset name %q", preset), nil)
	}
	path := filepath.Join(s.dir, preset+Extension)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "preset", "load preset",
				fmt.Sprintf("preset %q not found in %s", preset, s.dir), err)
		}
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	return decode(path, preset, data)
}

// Profile returns the named profile of preset.
func (s *DirStore) Profile(ctx context.Context, preset, name string) (Profile, error) {
	profiles, err := s.Profiles(ctx, preset)
	if err != nil {
		return Profile{}, err
	}
	for _, profile := range profiles {
		if profile.Name == name {
			return profile, nil
		}
	}
	return Profile{}, services.Wrap(services.ErrNotFound, "preset", "load profile",
		fmt.Sprintf("profile %q not found in preset %q", name, preset), nil)
}

func decode(path, preset string, data []byte) ([]Profile, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "preset", "decode preset",
			fmt.Sprintf("%s is not a JSON list of profiles", path), err)
	}

	profiles := make([]Profile, 0, len(entries))
	for i, entry := range entries {
		for _, key := range requiredKeys {
			if _, ok := entry[key]; !ok {
				return nil, malformedKey(path, i, key, errors.New("missing key"))
			}
		}
		profile := Profile{Preset: preset, RawPasses: entry["Passes"]}
		fields := []struct {
			key  string
			dest *string
		}{
			{"Name", &profile.Name},
			{"Description", &profile.Description},
			{"Supported_list", &profile.SupportedList},
			{"Output_extension", &profile.OutputExtension},
		}
		for _, field := range fields {
			if err := json.Unmarshal(entry[field.key], field.dest); err != nil {
				return nil, malformedKey(path, i, field.key, err)
			}
		}
		// Passes may be stored as a JSON array or as a string holding one.
		var encoded string
		if err := json.Unmarshal(profile.RawPasses, &encoded); err == nil {
			profile.RawPasses = json.RawMessage(encoded)
		}
		profile.OutputExtension = strings.TrimPrefix(strings.TrimSpace(profile.OutputExtension), ".")
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func malformedKey(path string, index int, key string, err error) error {
	return services.Wrap(services.ErrValidation, "preset", "decode preset",
		fmt.Sprintf("%s: profile %d: key %q", path, index+1, key), err)
}
