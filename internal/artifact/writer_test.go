package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/rocketserializer/internal/extract"
)

func testResult() *extract.Result {
	lug := &extract.RailButtons{Name: "Upper lug", UpperPosition: 0.9, LowerPosition: 1.6, Distance: 0.7}
	return &extract.Result{
		Settings: extract.Settings{
			ID:              extract.Identification{RocketName: "Calisto", Filepath: "rockets/calisto.ork"},
			Rocket:          extract.Rocket{Radius: 0.0635, Mass: 16.5, Inertia: [3]float64{9, 9, 0.046}},
			TrapezoidalFins: map[int]extract.TrapezoidalFins{0: {Name: "Fins", Number: 4}},
			EllipticalFins:  map[int]extract.EllipticalFins{},
			Tails:           map[int]extract.Tail{},
			Parachutes:      map[int]extract.Parachute{},
			RailButtons:     extract.Some(lug),
			Motors:          extract.Motor{GrainNumber: 1},
		},
		DragCurve:   extract.Curve{{X: 0, Y: 0.5}, {X: 0.3, Y: 0.42}},
		ThrustCurve: extract.Curve{{X: 0, Y: 100}, {X: 0.5, Y: 1500}},
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")

	got, err := Write(dir, testResult(), FormatJSON)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := Written{
		Parameters:  filepath.Join(dir, "parameters.json"),
		DragCurve:   filepath.Join(dir, "drag_curve.csv"),
		ThrustCurve: filepath.Join(dir, "thrust_source.csv"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Written mismatch (-want +got):\n%s", diff)
	}

	drag, err := os.ReadFile(got.DragCurve)
	if err != nil {
		t.Fatal(err)
	}
	if string(drag) != "0.000000,0.500000\n0.300000,0.420000\n" {
		t.Errorf("drag_curve.csv = %q", drag)
	}
	thrust, err := os.ReadFile(got.ThrustCurve)
	if err != nil {
		t.Fatal(err)
	}
	if string(thrust) != "0.00000,100.00000\n0.50000,1500.00000\n" {
		t.Errorf("thrust_source.csv = %q", thrust)
	}

	params, err := os.ReadFile(got.Parameters)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(params), "\n    \"id\": {") {
		t.Errorf("parameters.json not indented by four spaces:\n%s", params)
	}
	var back extract.Settings
	if err := json.Unmarshal(params, &back); err != nil {
		t.Fatalf("parameters.json does not decode: %v", err)
	}
	if diff := cmp.Diff(testResult().Settings, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("output dir has %d entries, want 3 (no staging leftovers)", len(entries))
	}
}

func TestMarshalKeyOrder(t *testing.T) {
	t.Parallel()
	settings := testResult().Settings
	settings.Parachutes = map[int]extract.Parachute{
		10: {Name: "Drogue"},
		2:  {Name: "Main"},
		1:  {Name: "Pilot"},
	}

	data, err := Marshal(settings, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)

	if !slices.IsSorted(extract.TopLevelKeys) {
		t.Errorf("TopLevelKeys not sorted: %v", extract.TopLevelKeys)
	}

	tests := []struct {
		name string
		keys []string
	}{
		{"top level", topLevelLines()},
		{"nested fields", []string{`"base_pressure":`, `"base_temperature":`, `"date":`}},
		{"numbered records", []string{`"1": {`, `"2": {`, `"10": {`}},
	}
	for _, tt := range tests {
		last := -1
		for _, key := range tt.keys {
			i := strings.Index(out, key)
			if i < 0 {
				t.Errorf("%s: %s missing from\n%s", tt.name, key, out)
				continue
			}
			if i < last {
				t.Errorf("%s: %s written out of order", tt.name, key)
			}
			last = i
		}
	}
}

// topLevelLines returns the four-space-indented key prefixes of a record.
func topLevelLines() []string {
	lines := make([]string, 0, len(extract.TopLevelKeys))
	for _, k := range extract.TopLevelKeys {
		lines = append(lines, "\n    \""+k+"\":")
	}
	return lines
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got, err := Write(dir, testResult(), FormatYAML)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(got.Parameters) != "parameters.yaml" {
		t.Errorf("parameters file = %q", got.Parameters)
	}
	data, err := os.ReadFile(got.Parameters)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		t.Errorf("YAML rendered in flow style:\n%s", data)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	for _, key := range extract.TopLevelKeys {
		if _, ok := doc[key]; !ok {
			t.Errorf("YAML missing key %q", key)
		}
	}
	rocket := doc["rocket"].(map[string]any)
	if rocket["radius"] != 0.0635 {
		t.Errorf("rocket.radius = %v", rocket["radius"])
	}
}

func TestWriteFilesAllOrNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	err := WriteFiles(dir, []File{
		{Name: "parameters.json", Data: []byte("{}")},
		{Name: filepath.Join("missing", "drag_curve.csv"), Data: []byte("0,1\n")},
	})
	if err == nil {
		t.Fatal("expected an error writing into a missing subdirectory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("output dir not empty after failure: %v", names)
	}
}

func TestMarshalUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := Marshal(extract.Settings{}, "toml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Marshal error = %v, want ErrUnknownFormat", err)
	}
}
