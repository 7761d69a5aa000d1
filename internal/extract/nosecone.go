package extract

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// noseFallbackName is the transition name OpenRocket users give a nose built
// from a transition.
const noseFallbackName = "Nosecone"

// NoseCone is the nose-cone record.
type NoseCone struct {
	BaseRadius     float64  `json:"base_radius"`
	Kind           string   `json:"kind"`
	Length         float64  `json:"length"`
	Name           string   `json:"name"`
	Position       float64  `json:"position"`
	ShapeParameter *float64 `json:"shape_parameter,omitempty"`
}

// haack shape parameters map to RocketPy kinds.
const (
	kindVonKarman = "Von Karman"
	kindLVHaack   = "lvhaack"
)

// noseElement returns the <nosecone> element or, failing that, the first
// transition named exactly "Nosecone".
func noseElement(doc *ork.Document, log *zap.Logger) *etree.Element {
	if el := doc.Find("nosecone"); el != nil {
		return el
	}
	var found *etree.Element
	n := 0
	for _, el := range doc.FindAll("transition") {
		if ork.Name(el) != noseFallbackName {
			continue
		}
		if found == nil {
			found = el
		}
		n++
	}
	if n > 1 {
		log.Warn("multiple transitions named as nose cone, using the first",
			zap.String("name", noseFallbackName), zap.Int("count", n))
	}
	return found
}

// SearchNoseCone returns the nose record, or nil when the rocket has no nose.
// An "auto" base radius resolves to the rocket radius.
func SearchNoseCone(doc *ork.Document, elems *Elements, rocketRadius float64, log *zap.Logger) (*NoseCone, error) {
	log = nopIfNil(log)

	el := noseElement(doc, log)
	if el == nil {
		log.Warn("no nose cone found")
		return nil, nil
	}

	name := ork.Name(el)
	length, err := ork.Float(el, "length")
	if err != nil {
		return nil, fmt.Errorf("nose cone: %w", err)
	}
	kind, _ := ork.Text(el, "shape")

	aft, _ := ork.Text(el, "aftradius")
	r := ork.ParseRadius(aft)
	base := r.Value
	if !r.Resolved {
		if !r.Auto {
			return nil, fmt.Errorf("nose cone: %w", &ork.FieldError{
				Component: name, Field: "aftradius", Value: aft, Err: ork.ErrInvalidValue,
			})
		}
		base = rocketRadius
	}

	placed, ok := elems.Lookup(name)
	if !ok {
		return nil, &ElementNotFoundError{Kind: "nose cone", Name: name}
	}

	nose := &NoseCone{
		BaseRadius: base,
		Kind:       kind,
		Length:     length,
		Name:       name,
		Position:   placed.Position,
	}
	if kind == "haack" {
		param := ork.FloatOr(el, "shapeparameter", 0)
		nose.ShapeParameter = &param
		if param == 0 {
			nose.Kind = kindVonKarman
		} else {
			nose.Kind = kindLVHaack
		}
	}
	log.Info("nose cone extracted",
		zap.String("name", nose.Name),
		zap.String("kind", nose.Kind),
		zap.Float64("position", nose.Position))
	return nose, nil
}
