// Package batch converts many OpenRocket files listed in a TOML manifest.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Sentinel errors for manifest loading.
var (
	// ErrNoEntries indicates a manifest without any [[rocket]] entry.
	ErrNoEntries = errors.New("manifest lists no rockets")
	// ErrMissingPath indicates a [[rocket]] entry without a path.
	ErrMissingPath = errors.New("rocket entry has no path")
	// ErrNoMatch indicates a glob pattern that matched no file.
	ErrNoMatch = errors.New("pattern matched no files")
	// ErrDuplicateOutput indicates two jobs writing into the same directory.
	ErrDuplicateOutput = errors.New("output directory used by more than one rocket")
)

// Defaults apply to every entry that leaves the field unset.
type Defaults struct {
	// OutputRoot collects every job's output under one directory, one
	// subdirectory per input named after the file.
	OutputRoot string `toml:"output_root"`
	Format     string `toml:"format"`
	Notebook   bool   `toml:"notebook"`
}

// Entry is one [[rocket]] table. Path may be a glob pattern.
type Entry struct {
	Path     string `toml:"path"`
	Output   string `toml:"output"`
	Format   string `toml:"format"`
	Notebook *bool  `toml:"notebook"`
}

// Manifest is a parsed batch file.
type Manifest struct {
	Defaults Defaults `toml:"defaults"`
	Rockets  []Entry  `toml:"rocket"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

// Job is one conversion to run.
type Job struct {
	Input     string
	OutputDir string
	Format    string
	Notebook  bool
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes manifest TOML. Relative paths resolve against the working
// directory until Dir is set.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Rockets) == 0 {
		return nil, ErrNoEntries
	}
	for i, e := range m.Rockets {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("rocket %d: %w", i, ErrMissingPath)
		}
	}
	return &m, nil
}

// Jobs expands every entry into jobs, in manifest order.
func (m *Manifest) Jobs() ([]Job, error) {
	var jobs []Job
	seen := make(map[string]string)
	for i, e := range m.Rockets {
		inputs, err := m.expand(e.Path)
		if err != nil {
			return nil, fmt.Errorf("rocket %d: %w", i, err)
		}
		for _, in := range inputs {
			job := Job{
				Input:     in,
				OutputDir: m.outputDir(e, in, len(inputs) > 1),
				Format:    m.Defaults.Format,
				Notebook:  m.Defaults.Notebook,
			}
			if e.Format != "" {
				job.Format = e.Format
			}
			if e.Notebook != nil {
				job.Notebook = *e.Notebook
			}

			key := filepath.Clean(job.OutputDir)
			if prev, ok := seen[key]; ok {
				return nil, fmt.Errorf("%s (%s and %s): %w", job.OutputDir, prev, in, ErrDuplicateOutput)
			}
			seen[key] = in
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

func (m *Manifest) expand(pattern string) ([]string, error) {
	p := m.resolve(pattern)
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{p}, nil
	}
	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", pattern, ErrNoMatch)
	}
	return matches, nil
}

// outputDir picks the output directory for input. An explicit output of a
// glob entry is a parent directory shared by all its matches.
func (m *Manifest) outputDir(e Entry, input string, many bool) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	switch {
	case e.Output != "" && many:
		return filepath.Join(m.resolve(e.Output), stem)
	case e.Output != "":
		return m.resolve(e.Output)
	case m.Defaults.OutputRoot != "":
		return filepath.Join(m.resolve(m.Defaults.OutputRoot), stem)
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
