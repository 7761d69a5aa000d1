package extract

import (
	"fmt"
	"testing"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// fakeComponent is a minimal in-memory component tree node.
type fakeComponent struct {
	typ      string
	name     string
	length   float64
	mode     ork.PositionMode
	offset   float64
	parent   *fakeComponent
	children []*fakeComponent
}

func (f *fakeComponent) Type() string    { return f.typ }
func (f *fakeComponent) Name() string    { return f.name }
func (f *fakeComponent) Length() float64 { return f.length }
func (f *fakeComponent) CG() float64     { return f.length / 2 }
func (f *fakeComponent) ChildCount() int { return len(f.children) }

func (f *fakeComponent) Parent() ork.Component {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func (f *fakeComponent) Child(i int) (ork.Component, error) {
	if i < 0 || i >= len(f.children) {
		return nil, fmt.Errorf("child %d: %w", i, ork.ErrNoChild)
	}
	return f.children[i], nil
}

func (f *fakeComponent) RelativePosition() ork.PositionMode { return f.mode }
func (f *fakeComponent) PositionValue() float64             { return f.offset }

func (f *fakeComponent) add(children ...*fakeComponent) *fakeComponent {
	for _, c := range children {
		c.parent = f
		f.children = append(f.children, c)
	}
	return f
}

func TestWalkPositionsFixture(t *testing.T) {
	t.Parallel()
	_, elems := fixtureTree(t, openFixture(t))

	tests := []struct {
		name string
		want float64
	}{
		{"Calisto", 0},
		{"Sustainer", 0},
		{"Nose cone", 0},
		{"Body tube", 0.5},
		{"Tail", 2.0},
		{"Fins", 1.88},
		{"Upper lug", 0.92},
		{"Lower lug", 1.64},
		{"Motor mount", 2.16},
	}
	for _, tt := range tests {
		e, ok := elems.Lookup(tt.name)
		if !ok {
			t.Errorf("%q not recorded", tt.name)
			continue
		}
		if !approx(e.Position, tt.want) {
			t.Errorf("%q position = %v, want %v", tt.name, e.Position, tt.want)
		}
		if !approx(e.DistanceToCG, 1.4-tt.want) {
			t.Errorf("%q distance to CG = %v, want %v", tt.name, e.DistanceToCG, 1.4-tt.want)
		}
	}

	for _, skipped := range []string{"Main", "Drogue"} {
		if _, ok := elems.Lookup(skipped); ok {
			t.Errorf("parachute %q must not be recorded", skipped)
		}
	}
}

func TestWalkPositionsStackSum(t *testing.T) {
	t.Parallel()

	lengths := []float64{0.3, 1.2, 0.7, 0.1}
	stage := &fakeComponent{typ: ork.TypeAxialStage, name: "stage"}
	for i, l := range lengths {
		stage.add(&fakeComponent{typ: ork.TypeBodyTube, name: fmt.Sprintf("part %d", i), length: l})
	}
	root := (&fakeComponent{typ: ork.TypeRocket, name: "rocket"}).add(stage)

	elems, err := WalkPositions(root, 0, nil)
	if err != nil {
		t.Fatalf("WalkPositions: %v", err)
	}

	// Each top-level part sits at the sum of the lengths before it.
	var sum float64
	for i, l := range lengths {
		e, ok := elems.Lookup(fmt.Sprintf("part %d", i))
		if !ok {
			t.Fatalf("part %d missing", i)
		}
		if !approx(e.Position, sum) {
			t.Errorf("part %d position = %v, want %v", i, e.Position, sum)
		}
		sum += l
	}
}

func TestWalkPositionsRelativeModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode   ork.PositionMode
		offset float64
		want   float64
	}{
		{ork.PositionTop, 0.1, 0.5 + 0.1},
		{ork.PositionAfter, 0.1, 0.5 + 0.1},
		{ork.PositionMiddle, 0.1, 0.5 + 0.1 + 0.5},
		{ork.PositionBottom, -0.2, 0.5 + -0.2 + 1.0},
		{ork.PositionAbsolute, 0.75, 0.75},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			sub := &fakeComponent{typ: ork.TypeInnerTube, name: "sub", length: 0.2, mode: tt.mode, offset: tt.offset}
			tube := (&fakeComponent{typ: ork.TypeBodyTube, name: "tube", length: 1.0}).add(sub)
			nose := &fakeComponent{typ: ork.TypeNoseCone, name: "nose", length: 0.5}
			stage := (&fakeComponent{typ: ork.TypeAxialStage, name: "stage"}).add(nose, tube)
			root := (&fakeComponent{typ: ork.TypeRocket, name: "rocket"}).add(stage)

			elems, err := WalkPositions(root, 0, nil)
			if err != nil {
				t.Fatalf("WalkPositions: %v", err)
			}
			e, _ := elems.Lookup("sub")
			if !approx(e.Position, tt.want) {
				t.Errorf("position = %v, want %v", e.Position, tt.want)
			}
		})
	}
}

func TestWalkPositionsDuplicateNames(t *testing.T) {
	t.Parallel()

	stage := (&fakeComponent{typ: ork.TypeAxialStage, name: "stage"}).add(
		&fakeComponent{typ: ork.TypeBodyTube, name: "Tube", length: 1},
		&fakeComponent{typ: ork.TypeBodyTube, name: "Tube", length: 2},
		&fakeComponent{typ: ork.TypeMassComponent, name: "Ballast", length: 0.1},
	)
	root := (&fakeComponent{typ: ork.TypeRocket, name: "rocket"}).add(stage)

	log, logs := observedLogger()
	elems, err := WalkPositions(root, 0, log)
	if err != nil {
		t.Fatalf("WalkPositions: %v", err)
	}

	e, _ := elems.Lookup("Tube")
	if e.Length != 2 || e.Position != 1 {
		t.Errorf("last write should win, got %+v", e)
	}
	if got := len(elems.All()); got != 4 {
		t.Errorf("All() = %d elements, want 4 (rocket, stage, two tubes)", got)
	}
	if elems.Len() != 3 {
		t.Errorf("Len() = %d, want 3", elems.Len())
	}
	if n := logs.FilterMessage("duplicate component name, keeping the last one").Len(); n != 1 {
		t.Errorf("duplicate warnings = %d, want 1", n)
	}
	if _, ok := elems.Lookup("Ballast"); ok {
		t.Error("mass components must not be recorded")
	}
}
