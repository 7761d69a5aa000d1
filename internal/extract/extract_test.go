package extract

import (
	"encoding/json"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	t.Parallel()
	doc := openFixture(t)
	out := filepath.Join("results", "calisto")

	res, err := Extract(doc, Options{OutputDir: out})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	s := res.Settings

	if s.Rocket.DragCurve != filepath.Join(out, DragCurveFile) {
		t.Errorf("drag_curve = %q", s.Rocket.DragCurve)
	}
	if s.Motors.ThrustSource != filepath.Join(out, ThrustCurveFile) {
		t.Errorf("thrust_source = %q", s.Motors.ThrustSource)
	}

	wantRocket := Rocket{
		CenterOfMassWithoutPropellant: 1.4,
		CoordinateSystemOrientation:   "nose_to_tail",
		DragCurve:                     s.Rocket.DragCurve,
		Inertia:                       [3]float64{9, 9, 0.046},
		Mass:                          16.5,
		Radius:                        0.0635,
	}
	if diff := cmp.Diff(wantRocket, s.Rocket); diff != "" {
		t.Errorf("rocket mismatch (-want +got):\n%s", diff)
	}

	if !approx(s.Motors.Position, (1.5*20-16.5*1.4)/3.5) {
		t.Errorf("motor position = %v", s.Motors.Position)
	}
	if !s.Nosecones.Present() || s.Nosecones.Value.Kind != "Von Karman" {
		t.Errorf("nosecones = %+v", s.Nosecones.Value)
	}
	if len(s.TrapezoidalFins) != 1 || len(s.EllipticalFins) != 0 {
		t.Errorf("fins: trapezoidal=%d elliptical=%d", len(s.TrapezoidalFins), len(s.EllipticalFins))
	}
	if len(s.Tails) != 1 || len(s.Parachutes) != 2 {
		t.Errorf("tails=%d parachutes=%d", len(s.Tails), len(s.Parachutes))
	}
	if !s.RailButtons.Present() {
		t.Error("rail buttons missing")
	}
	if len(res.DragCurve) == 0 || len(res.ThrustCurve) == 0 {
		t.Error("curves must not be empty")
	}
}

func TestSettingsJSON(t *testing.T) {
	t.Parallel()
	res, err := Extract(openFixture(t), Options{OutputDir: "out"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	data, err := json.Marshal(res.Settings)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	t.Run("fixed top-level keys", func(t *testing.T) {
		t.Parallel()
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatal(err)
		}
		got := make([]string, 0, len(raw))
		for k := range raw {
			got = append(got, k)
		}
		want := append([]string(nil), TopLevelKeys...)
		sort.Strings(got)
		sort.Strings(want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("top-level keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		var back Settings
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if diff := cmp.Diff(res.Settings, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("all numbers finite", func(t *testing.T) {
		t.Parallel()
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatal(err)
		}
		walkNumbers(t, v, func(path string, f float64) {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Errorf("%s is not finite", path)
			}
		})
	})
}

func walkNumbers(t *testing.T, v any, fn func(string, float64)) {
	t.Helper()
	var walk func(string, any)
	walk = func(path string, v any) {
		switch x := v.(type) {
		case map[string]any:
			for k, e := range x {
				walk(path+"."+k, e)
			}
		case []any:
			for i, e := range x {
				walk(path+"["+strconv.Itoa(i)+"]", e)
			}
		case float64:
			fn(path, x)
		}
	}
	walk("$", v)
}

func TestOptionalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Optional[RailButtons]
		want string
	}{
		{"absent", Optional[RailButtons]{}, "{}"},
		{"present", Some(&RailButtons{Name: "lug", Distance: 1}),
			`{"angular_position":0,"distance":1,"lower_position":0,"name":"lug","upper_position":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
			var back Optional[RailButtons]
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.in, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
