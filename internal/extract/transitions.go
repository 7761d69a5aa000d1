package extract

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Tail is a transition record. Position is nil when the transition could not
// be placed in the component tree.
type Tail struct {
	BottomRadius float64  `json:"bottom_radius"`
	Length       float64  `json:"length"`
	Name         string   `json:"name"`
	Position     *float64 `json:"position"`
	TopRadius    float64  `json:"top_radius"`
}

// SearchTransitions returns one record per transition, keyed by document
// order. A transition already used as the nose cone is skipped.
//
// Names are not unique, so each transition is matched to its tree component
// and to its walker element by name and length together.
func SearchTransitions(doc *ork.Document, root ork.Component, elems *Elements, log *zap.Logger) (map[int]Tail, error) {
	log = nopIfNil(log)

	noseIsTransition := doc.Find("nosecone") == nil
	tree := ork.Collect(root, ork.TypeTransition)
	out := make(map[int]Tail)

	i := 0
	for _, el := range doc.FindAll("transition") {
		name := ork.Name(el)
		if noseIsTransition && name == noseFallbackName {
			continue
		}
		length, err := ork.Float(el, "length")
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		match := matchTransition(tree, name, length, log)
		top, err := topRadius(el, match, name)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		bottom, err := bottomRadius(el, match, name)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		out[i] = Tail{
			BottomRadius: bottom,
			Length:       length,
			Name:         name,
			Position:     transitionPosition(elems, name, length, log),
			TopRadius:    top,
		}
		log.Info("transition extracted",
			zap.Int("index", i), zap.String("name", name),
			zap.Float64("top_radius", top), zap.Float64("bottom_radius", bottom))
		i++
	}
	return out, nil
}

// matchTransition returns the last tree transition with the given name and
// length, or nil.
func matchTransition(tree []ork.Component, name string, length float64, log *zap.Logger) ork.RadiusBearer {
	var match ork.RadiusBearer
	n := 0
	for _, c := range tree {
		if c.Name() != name || c.Length() != length {
			continue
		}
		if rb, ok := c.(ork.RadiusBearer); ok {
			match = rb
			n++
		}
	}
	switch {
	case n == 0:
		log.Error("transition not found in component tree",
			zap.String("name", name), zap.Float64("length", length))
	case n > 1:
		log.Warn("several tree transitions share name and length, using the last",
			zap.String("name", name), zap.Float64("length", length), zap.Int("count", n))
	}
	return match
}

// topRadius prefers the tree, where "auto" resolves against the previous
// sibling, and falls back to a numeric document value.
func topRadius(el *etree.Element, match ork.RadiusBearer, name string) (float64, error) {
	if match != nil {
		if v, ok := match.ForeRadius(); ok {
			return v, nil
		}
	}
	s, _ := ork.Text(el, "foreradius")
	if r := ork.ParseRadius(s); r.Resolved {
		return r.Value, nil
	}
	return 0, &ork.FieldError{Component: name, Field: "foreradius", Value: s, Err: ork.ErrMissingField}
}

// bottomRadius prefers a numeric document value and resolves "auto" through
// the tree.
func bottomRadius(el *etree.Element, match ork.RadiusBearer, name string) (float64, error) {
	s, _ := ork.Text(el, "aftradius")
	if r := ork.ParseRadius(s); r.Resolved {
		return r.Value, nil
	}
	if match != nil {
		if v, ok := match.AftRadius(); ok {
			return v, nil
		}
	}
	return 0, &ork.FieldError{Component: name, Field: "aftradius", Value: s, Err: ork.ErrMissingField}
}

// transitionPosition finds the walker element with a case-insensitive name
// match and equal length. The last match wins.
func transitionPosition(elems *Elements, name string, length float64, log *zap.Logger) *float64 {
	var pos *float64
	n := 0
	for _, e := range elems.All() {
		if e.Type != ork.TypeTransition || !strings.EqualFold(e.Name, name) || e.Length != length {
			continue
		}
		p := e.Position
		pos = &p
		n++
	}
	switch {
	case n == 0:
		log.Error("transition position not found",
			zap.String("name", name), zap.Float64("length", length))
	case n > 1:
		log.Warn("several transitions share name and length, using the last position",
			zap.String("name", name), zap.Int("count", n))
	}
	return pos
}
