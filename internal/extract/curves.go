package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
)

// Side-file names referenced from the settings record.
const (
	DragCurveFile   = "drag_curve.csv"
	ThrustCurveFile = "thrust_source.csv"
)

// thrustFloor drops thrust samples at or below this value in newtons.
const thrustFloor = 1e-4

// Point is one row of a two-column curve.
type Point struct {
	X, Y float64
}

// Curve is a two-column numeric table.
type Curve []Point

// CSV renders the curve with decimals digits per column and no header.
func (c Curve) CSV(decimals int) []byte {
	var buf bytes.Buffer
	for _, p := range c {
		fmt.Fprintf(&buf, "%.*f,%.*f\n", decimals, p.X, decimals, p.Y)
	}
	return buf.Bytes()
}

// DragCurve builds the axial drag coefficient against Mach number from
// ignition up to apogee. Rows are sorted by Mach then Cd, exact duplicates
// are removed and only positive coefficients are kept.
func DragCurve(s *Series) (Curve, error) {
	alt, err := s.Column(ColAltitude)
	if err != nil {
		return nil, err
	}
	mach, err := s.Column(ColMach)
	if err != nil {
		return nil, err
	}
	cd, err := s.Column(ColAxialDragCoefficient)
	if err != nil {
		return nil, err
	}

	apogee := argmax(alt)
	curve := make(Curve, 0, apogee)
	for i := 0; i < apogee; i++ {
		if math.IsNaN(mach[i]) || math.IsNaN(cd[i]) {
			continue
		}
		curve = append(curve, Point{mach[i], cd[i]})
	}
	sort.Slice(curve, func(i, j int) bool {
		if curve[i].X != curve[j].X {
			return curve[i].X < curve[j].X
		}
		return curve[i].Y < curve[j].Y
	})

	out := curve[:0]
	for i, p := range curve {
		if i > 0 && p == curve[i-1] {
			continue
		}
		if p.Y > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// ThrustCurve builds thrust against time with negatives clipped to zero,
// near-zero samples removed and repeated samples collapsed.
func ThrustCurve(s *Series) (Curve, error) {
	thrust, err := s.Column(ColThrust)
	if err != nil {
		return nil, err
	}
	time := s.Time()

	curve := make(Curve, 0, len(thrust))
	for i, f := range thrust {
		if math.IsNaN(f) || math.IsNaN(time[i]) {
			continue
		}
		curve = append(curve, Point{time[i], math.Max(f, 0)})
	}
	sort.SliceStable(curve, func(i, j int) bool { return curve[i].X < curve[j].X })

	out := curve[:0]
	for _, p := range curve {
		if p.Y <= thrustFloor {
			continue
		}
		if seenAtTime(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// seenAtTime reports whether out already holds p among the samples sharing
// its time. Event rows repeat the sample they were logged at.
func seenAtTime(out Curve, p Point) bool {
	for i := len(out) - 1; i >= 0 && out[i].X == p.X; i-- {
		if out[i] == p {
			return true
		}
	}
	return false
}

// argmax returns the index of the first maximum, ignoring NaN.
func argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > values[best] {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
