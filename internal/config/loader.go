package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cea-hpc/milkcheck/internal/logging"
)

// Load reads every *.yaml/*.yml file directly under dir (config is
// deliberately flat, unlike the reconciler-style nested layouts some
// tools use) and merges them into a single File. Merge order is
// lexicographic by filename, so later files may not redeclare a
// service already declared by an earlier one.
func Load(dir string) (*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	merged := &File{
		Variables: make(map[string]string),
		Services:  make(map[string]Service),
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range f.Variables {
			merged.Variables[k] = v
		}
		for svc, def := range f.Services {
			if _, exists := merged.Services[svc]; exists {
				return nil, &DuplicateServiceError{Name: svc}
			}
			merged.Services[svc] = def
		}
		logging.Info("config", "loaded %s: %d service(s)", path, len(f.Services))
	}
	return merged, nil
}

func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}
