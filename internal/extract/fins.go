package extract

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// TrapezoidalFins is a trapezoidal fin-set record. Sweep length and sweep
// angle are each present only when the design recorded them.
type TrapezoidalFins struct {
	CantAngle   float64  `json:"cant_angle"`
	Name        string   `json:"name"`
	Number      int      `json:"number"`
	Position    float64  `json:"position"`
	RootChord   float64  `json:"root_chord"`
	Section     string   `json:"section"`
	Span        float64  `json:"span"`
	SweepAngle  *float64 `json:"sweep_angle,omitempty"`
	SweepLength *float64 `json:"sweep_length,omitempty"`
	TipChord    float64  `json:"tip_chord"`
}

// EllipticalFins is an elliptical fin-set record.
type EllipticalFins struct {
	CantAngle float64 `json:"cant_angle"`
	Name      string  `json:"name"`
	Number    int     `json:"number"`
	Position  float64 `json:"position"`
	RootChord float64 `json:"root_chord"`
	Section   string  `json:"section"`
	Span      float64 `json:"span"`
}

// finCommon reads the fields shared by every fin-set shape.
type finCommon struct {
	name      string
	number    int
	rootChord float64
	span      float64
	cant      float64
	section   string
	position  float64
}

func readFinCommon(el *etree.Element, elems *Elements) (finCommon, error) {
	f := finCommon{name: ork.Name(el)}
	count, err := ork.Float(el, "fincount")
	if err != nil {
		return f, err
	}
	f.number = int(count)
	if f.rootChord, err = ork.Float(el, "rootchord"); err != nil {
		return f, err
	}
	if f.span, err = ork.Float(el, "height"); err != nil {
		return f, err
	}
	f.cant = ork.FloatOr(el, "cant", 0)
	f.section, _ = ork.Text(el, "crosssection")

	placed, ok := elems.Lookup(f.name)
	if !ok {
		return f, &ElementNotFoundError{Kind: "fin set", Name: f.name}
	}
	f.position = placed.Position
	return f, nil
}

// SearchTrapezoidalFins returns one record per trapezoidal fin set, keyed by
// document order.
func SearchTrapezoidalFins(doc *ork.Document, elems *Elements, log *zap.Logger) (map[int]TrapezoidalFins, error) {
	log = nopIfNil(log)
	out := make(map[int]TrapezoidalFins)
	for i, el := range doc.FindAll("trapezoidfinset") {
		c, err := readFinCommon(el, elems)
		if err != nil {
			return nil, fmt.Errorf("trapezoidal fins %d: %w", i, err)
		}
		tip, err := ork.Float(el, "tipchord")
		if err != nil {
			return nil, fmt.Errorf("trapezoidal fins %d: %w", i, err)
		}
		sweepLength, err := ork.OptionalFloat(el, "sweeplength")
		if err != nil {
			return nil, fmt.Errorf("trapezoidal fins %d: %w", i, err)
		}
		sweepAngle, err := ork.OptionalFloat(el, "sweepangle")
		if err != nil {
			return nil, fmt.Errorf("trapezoidal fins %d: %w", i, err)
		}
		out[i] = TrapezoidalFins{
			CantAngle:   c.cant,
			Name:        c.name,
			Number:      c.number,
			Position:    c.position,
			RootChord:   c.rootChord,
			Section:     c.section,
			Span:        c.span,
			SweepAngle:  sweepAngle,
			SweepLength: sweepLength,
			TipChord:    tip,
		}
		log.Info("trapezoidal fins extracted",
			zap.Int("index", i), zap.String("name", c.name), zap.Float64("position", c.position))
	}
	return out, nil
}

// SearchEllipticalFins returns one record per elliptical fin set.
func SearchEllipticalFins(doc *ork.Document, elems *Elements, log *zap.Logger) (map[int]EllipticalFins, error) {
	log = nopIfNil(log)
	out := make(map[int]EllipticalFins)
	for i, el := range doc.FindAll("ellipticalfinset") {
		c, err := readFinCommon(el, elems)
		if err != nil {
			return nil, fmt.Errorf("elliptical fins %d: %w", i, err)
		}
		out[i] = EllipticalFins{
			CantAngle: c.cant,
			Name:      c.name,
			Number:    c.number,
			Position:  c.position,
			RootChord: c.rootChord,
			Section:   c.section,
			Span:      c.span,
		}
		log.Info("elliptical fins extracted",
			zap.Int("index", i), zap.String("name", c.name), zap.Float64("position", c.position))
	}
	return out, nil
}

// CheckFreeformFins logs every free-form fin set, which RocketPy settings
// cannot describe. Free-form sets are left out of the record.
func CheckFreeformFins(doc *ork.Document, log *zap.Logger) int {
	log = nopIfNil(log)
	sets := doc.FindAll("freeformfinset")
	for _, el := range sets {
		log.Warn("free-form fin sets are not supported, skipping", zap.String("name", ork.Name(el)))
	}
	return len(sets)
}
