package revision

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// File is the on-disk YAML form of a revision. Scripts live in a revision
// directory, one file per revision, and are loaded at process start; they are
// code/config, never persisted as data.
type File struct {
	ID        string     `yaml:"id"`
	Down      StringList `yaml:"down,omitempty"`
	Label     string     `yaml:"label"`
	Upgrade   string     `yaml:"upgrade"`
	Downgrade string     `yaml:"downgrade"`
}

// StringList accepts either a single YAML scalar or a sequence, so a linear
// revision writes `down: abc123` while a merge revision writes a list.
type StringList []string

// UnmarshalYAML implements yaml unmarshalling for both scalar and sequence forms.
func (l *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			*l = StringList{s}
		}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Revision converts the file form into a Revision.
func (f *File) Revision() *Revision {
	return &Revision{
		ID:      f.ID,
		Down:    []string(f.Down),
		Label:   f.Label,
		UpSQL:   f.Upgrade,
		DownSQL: f.Downgrade,
	}
}

// LoadDir reads every *.yaml and *.yml file in dir into a validated Store.
// A missing directory yields an empty store, so a fresh project works before
// its first revision is authored.
func LoadDir(dir string) (*Store, error) {
	store := NewStore()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read revision directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		rev, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := store.Add(rev); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("revision directory %s: %w", dir, err)
	}

	return store, nil
}

// LoadFile reads a single YAML revision file.
func LoadFile(path string) (*Revision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read revision file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse revision file %s: %w", path, err)
	}

	if strings.TrimSpace(file.ID) == "" {
		return nil, fmt.Errorf("revision file %s: missing id", path)
	}

	return file.Revision(), nil
}
