// Package artifact writes the outputs of an extraction: the parameters file
// and the two curve side files.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/rocketserializer/internal/extract"
)

// ErrUnknownFormat indicates an unsupported parameters format.
var ErrUnknownFormat = errors.New("unknown output format")

// Supported parameters formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Decimal places of the curve side files.
const (
	dragDecimals   = 6
	thrustDecimals = 5
)

// File is one named output.
type File struct {
	Name string
	Data []byte
}

// Written lists the paths produced by Write.
type Written struct {
	Parameters  string
	DragCurve   string
	ThrustCurve string
}

// ParametersFile returns the parameters file name for format.
func ParametersFile(format string) string {
	if strings.EqualFold(format, FormatYAML) {
		return "parameters.yaml"
	}
	return "parameters.json"
}

// Write serializes res into dir. Either every file is written or none is.
func Write(dir string, res *extract.Result, format string) (Written, error) {
	params, err := Marshal(res.Settings, format)
	if err != nil {
		return Written{}, err
	}
	files := []File{
		{Name: ParametersFile(format), Data: params},
		{Name: extract.DragCurveFile, Data: res.DragCurve.CSV(dragDecimals)},
		{Name: extract.ThrustCurveFile, Data: res.ThrustCurve.CSV(thrustDecimals)},
	}
	if err := WriteFiles(dir, files); err != nil {
		return Written{}, err
	}
	return Written{
		Parameters:  filepath.Join(dir, files[0].Name),
		DragCurve:   filepath.Join(dir, files[1].Name),
		ThrustCurve: filepath.Join(dir, files[2].Name),
	}, nil
}

// WriteFiles writes files into dir through a staging directory and moves
// them into place only after all of them were written. On failure the
// staging directory is removed and dir is left untouched.
func WriteFiles(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	staging, err := os.MkdirTemp(dir, ".staging-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(staging, f.Name), f.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	for _, f := range files {
		if err := os.Rename(filepath.Join(staging, f.Name), filepath.Join(dir, f.Name)); err != nil {
			return fmt.Errorf("moving %s into place: %w", f.Name, err)
		}
	}
	return nil
}

// Marshal encodes settings as JSON indented by four spaces, or as YAML.
func Marshal(settings extract.Settings, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return marshalJSON(settings)
	case FormatYAML:
		return marshalYAML(settings)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// marshalYAML goes through JSON so the json tags stay the single source of
// key names, then re-renders every node in block style.
func marshalYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding JSON as YAML: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
