package extract

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Element is one component's resolved axial placement.
type Element struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Length float64 `json:"length"`
	// Position is the distance from the nose tip to the component's top.
	Position float64 `json:"position"`
	// DistanceToCG is the rocket's dry CG minus Position.
	DistanceToCG float64 `json:"distance_to_cg"`
}

// Elements holds walker output: a name index where the last write wins and
// the full visit sequence including duplicates.
type Elements struct {
	seq    []Element
	byName map[string]int
}

func newElements() *Elements {
	return &Elements{byName: make(map[string]int)}
}

func (e *Elements) add(el Element, log *zap.Logger) {
	if prev, dup := e.byName[el.Name]; dup {
		log.Warn("duplicate component name, keeping the last one",
			zap.String("name", el.Name),
			zap.String("previous_type", e.seq[prev].Type),
			zap.String("type", el.Type))
	}
	e.seq = append(e.seq, el)
	e.byName[el.Name] = len(e.seq) - 1
}

// Lookup returns the last element recorded under name.
func (e *Elements) Lookup(name string) (Element, bool) {
	i, ok := e.byName[name]
	if !ok {
		return Element{}, false
	}
	return e.seq[i], true
}

// All returns every recorded element in visit order.
func (e *Elements) All() []Element {
	out := make([]Element, len(e.seq))
	copy(out, e.seq)
	return out
}

// Len returns the number of distinct names.
func (e *Elements) Len() int { return len(e.byName) }

// WalkPositions walks the component tree from root and records the axial
// position of every component except parachutes and mass components.
//
// Stacking accumulates a running top position: children of a stage sit at
// the running top, sub-components are placed relative to their parent, and
// after every child the running top advances by that child's length. This
// is exact for single-stack airframes only.
func WalkPositions(root ork.Component, dryCG float64, log *zap.Logger) (*Elements, error) {
	w := &walker{elems: newElements(), dryCG: dryCG, log: nopIfNil(log)}
	if err := w.visit(root, 0, 0); err != nil {
		return nil, err
	}
	return w.elems, nil
}

type walker struct {
	elems *Elements
	dryCG float64
	log   *zap.Logger
}

func (w *walker) visit(c ork.Component, top float64, depth int) error {
	if recorded(c.Type()) {
		pos := distanceToNoseTip(c, top, depth)
		w.elems.add(Element{
			Type:         c.Type(),
			Name:         c.Name(),
			Length:       c.Length(),
			Position:     pos,
			DistanceToCG: w.dryCG - pos,
		}, w.log)
	}

	for i := 0; ; i++ {
		child, err := c.Child(i)
		if errors.Is(err, ork.ErrNoChild) {
			break
		}
		if err != nil {
			return fmt.Errorf("walking %s: %w", c.Name(), err)
		}
		if err := w.visit(child, top, depth+1); err != nil {
			return err
		}
		top += child.Length()
	}
	return nil
}

func recorded(typ string) bool {
	return typ != ork.TypeParachute && typ != ork.TypeMassComponent
}

// distanceToNoseTip places c given the running top position of its level.
// Depth 0 is the rocket, depth 1 a stage and depth 2 a top-level body part.
func distanceToNoseTip(c ork.Component, top float64, depth int) float64 {
	parent := c.Parent()
	if parent == nil {
		return 0
	}
	if ork.IsStage(parent.Type()) || depth < 3 {
		return top
	}

	p, ok := c.(ork.Positioned)
	if !ok {
		return top
	}
	offset := p.PositionValue()
	switch p.RelativePosition() {
	case ork.PositionAbsolute:
		return offset
	case ork.PositionBottom:
		return top + offset + parent.Length()
	case ork.PositionMiddle:
		return top + offset + parent.Length()/2
	default:
		return top + offset
	}
}
