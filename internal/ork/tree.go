package ork

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// OpenRocket component type names.
const (
	TypeRocket           = "Rocket"
	TypeAxialStage       = "AxialStage"
	TypeParallelStage    = "ParallelStage"
	TypePodSet           = "PodSet"
	TypeNoseCone         = "NoseCone"
	TypeBodyTube         = "BodyTube"
	TypeTransition       = "Transition"
	TypeTrapezoidFinSet  = "TrapezoidFinSet"
	TypeEllipticalFinSet = "EllipticalFinSet"
	TypeFreeformFinSet   = "FreeformFinSet"
	TypeTubeFinSet       = "TubeFinSet"
	TypeLaunchLug        = "LaunchLug"
	TypeRailButton       = "RailButton"
	TypeInnerTube        = "InnerTube"
	TypeTubeCoupler      = "TubeCoupler"
	TypeCenteringRing    = "CenteringRing"
	TypeBulkhead         = "Bulkhead"
	TypeEngineBlock      = "EngineBlock"
	TypeParachute        = "Parachute"
	TypeStreamer         = "Streamer"
	TypeShockCord        = "ShockCord"
	TypeMassComponent    = "MassComponent"
)

var componentTags = map[string]string{
	"rocket":           TypeRocket,
	"stage":            TypeAxialStage,
	"boosterset":       TypeParallelStage,
	"parallelstage":    TypeParallelStage,
	"podset":           TypePodSet,
	"nosecone":         TypeNoseCone,
	"bodytube":         TypeBodyTube,
	"transition":       TypeTransition,
	"trapezoidfinset":  TypeTrapezoidFinSet,
	"ellipticalfinset": TypeEllipticalFinSet,
	"freeformfinset":   TypeFreeformFinSet,
	"tubefinset":       TypeTubeFinSet,
	"launchlug":        TypeLaunchLug,
	"railbutton":       TypeRailButton,
	"innertube":        TypeInnerTube,
	"tubecoupler":      TypeTubeCoupler,
	"centeringring":    TypeCenteringRing,
	"bulkhead":         TypeBulkhead,
	"engineblock":      TypeEngineBlock,
	"parachute":        TypeParachute,
	"streamer":         TypeStreamer,
	"shockcord":        TypeShockCord,
	"masscomponent":    TypeMassComponent,
}

// IsStage reports whether typ is a stage-like container.
func IsStage(typ string) bool {
	switch typ {
	case TypeAxialStage, TypeParallelStage, TypePodSet:
		return true
	}
	return false
}

// PositionMode is how a component's offset relates to its parent.
type PositionMode string

// Position modes as written by OpenRocket.
const (
	PositionTop      PositionMode = "top"
	PositionMiddle   PositionMode = "middle"
	PositionBottom   PositionMode = "bottom"
	PositionAfter    PositionMode = "after"
	PositionAbsolute PositionMode = "absolute"
)

// Component is a node in the rocket's component tree.
type Component interface {
	Type() string
	Name() string
	Length() float64
	ChildCount() int
	// Child returns ErrNoChild when i is out of range.
	Child(i int) (Component, error)
	CG() float64
	Parent() Component
}

// RadiusBearer is implemented by body components with fore and aft radii.
// The bool is false when a radius is "auto" and cannot be resolved.
type RadiusBearer interface {
	ForeRadius() (float64, bool)
	AftRadius() (float64, bool)
}

// Positioned is implemented by components placed relative to their parent.
type Positioned interface {
	RelativePosition() PositionMode
	PositionValue() float64
}

// Radius is a parsed radius field. OpenRocket writes "auto", "auto 0.05" or
// a plain number.
type Radius struct {
	Value    float64
	Auto     bool
	Resolved bool
}

// ParseRadius parses a radius field value.
func ParseRadius(s string) Radius {
	s = strings.TrimSpace(s)
	auto := false
	if rest, ok := strings.CutPrefix(s, "auto"); ok {
		auto = true
		s = strings.TrimSpace(rest)
	}
	if s == "" {
		return Radius{Auto: auto}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Radius{Auto: auto}
	}
	return Radius{Value: v, Auto: auto, Resolved: true}
}

// maxAutoHops bounds sibling traversal while resolving chained auto radii.
const maxAutoHops = 4

type base struct {
	el       *etree.Element
	typ      string
	parent   Component
	index    int
	children []Component
}

func (b *base) Type() string      { return b.typ }
func (b *base) Name() string      { return Name(b.el) }
func (b *base) Parent() Component { return b.parent }
func (b *base) ChildCount() int   { return len(b.children) }

func (b *base) Child(i int) (Component, error) {
	if i < 0 || i >= len(b.children) {
		return nil, fmt.Errorf("%s: child %d: %w", b.Name(), i, ErrNoChild)
	}
	return b.children[i], nil
}

func (b *base) own(tag string) (string, bool) {
	c := b.el.SelectElement(tag)
	if c == nil {
		return "", false
	}
	return strings.TrimSpace(c.Text()), true
}

func (b *base) ownFloat(tag string) float64 {
	s, ok := b.own(tag)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// assembly is the rocket or a stage; its length is the sum of its children.
type assembly struct {
	base
}

func (a *assembly) Length() float64 {
	var total float64
	for _, c := range a.children {
		total += c.Length()
	}
	return total
}

func (a *assembly) CG() float64 { return a.Length() / 2 }

// part is any component placed inside a stage or another part.
type part struct {
	base
}

func (p *part) Length() float64 {
	switch p.typ {
	case TypeTrapezoidFinSet, TypeEllipticalFinSet:
		return p.ownFloat("rootchord")
	case TypeFreeformFinSet:
		var chord float64
		for _, pt := range p.el.FindElements("./finpoints/point") {
			if x := Attr(pt, "x", 0); x > chord {
				chord = x
			}
		}
		return chord
	case TypeRailButton:
		return p.ownFloat("outerdiameter")
	}
	return p.ownFloat("length")
}

func (p *part) CG() float64 {
	if s, ok := p.own("overridecg"); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return p.Length() / 2
}

func (p *part) RelativePosition() PositionMode {
	if c := p.el.SelectElement("axialoffset"); c != nil {
		return PositionMode(strings.ToLower(c.SelectAttrValue("method", string(PositionTop))))
	}
	if c := p.el.SelectElement("position"); c != nil {
		return PositionMode(strings.ToLower(c.SelectAttrValue("type", string(PositionTop))))
	}
	return PositionAfter
}

func (p *part) PositionValue() float64 {
	if s, ok := p.own("axialoffset"); ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	return p.ownFloat("position")
}

// body is a nose cone, body tube or transition.
type body struct {
	part
}

func (b *body) ForeRadius() (float64, bool) { return b.fore(maxAutoHops) }
func (b *body) AftRadius() (float64, bool)  { return b.aft(maxAutoHops) }

func (b *body) fore(hops int) (float64, bool) {
	switch b.typ {
	case TypeNoseCone:
		return 0, true
	case TypeBodyTube:
		return b.tube(hops)
	}
	s, _ := b.own("foreradius")
	r := ParseRadius(s)
	if r.Resolved {
		return r.Value, true
	}
	if !r.Auto || hops == 0 {
		return 0, false
	}
	if prev := b.sibling(-1); prev != nil {
		return prev.aft(hops - 1)
	}
	return 0, false
}

func (b *body) aft(hops int) (float64, bool) {
	if b.typ == TypeBodyTube {
		return b.tube(hops)
	}
	s, _ := b.own("aftradius")
	r := ParseRadius(s)
	if r.Resolved {
		return r.Value, true
	}
	if !r.Auto || hops == 0 {
		return 0, false
	}
	if next := b.sibling(1); next != nil {
		return next.fore(hops - 1)
	}
	return 0, false
}

func (b *body) tube(hops int) (float64, bool) {
	s, _ := b.own("radius")
	r := ParseRadius(s)
	if r.Resolved {
		return r.Value, true
	}
	if !r.Auto || hops == 0 {
		return 0, false
	}
	if prev := b.sibling(-1); prev != nil {
		if v, ok := prev.aft(hops - 1); ok {
			return v, true
		}
	}
	if next := b.sibling(1); next != nil {
		return next.fore(hops - 1)
	}
	return 0, false
}

func (b *body) sibling(delta int) *body {
	if b.parent == nil {
		return nil
	}
	c, err := b.parent.Child(b.index + delta)
	if err != nil {
		return nil
	}
	s, _ := c.(*body)
	return s
}

// NewTree builds the component tree of doc from its XML alone.
func NewTree(doc *Document) (Component, error) {
	root, err := doc.Root()
	if err != nil {
		return nil, err
	}
	return build(root, nil, 0), nil
}

func build(el *etree.Element, parent Component, index int) Component {
	typ := componentTags[el.Tag]
	b := base{el: el, typ: typ, parent: parent, index: index}

	var node Component
	var kids *[]Component
	switch {
	case typ == TypeRocket || IsStage(typ):
		a := &assembly{base: b}
		node, kids = a, &a.children
	case typ == TypeNoseCone || typ == TypeBodyTube || typ == TypeTransition:
		bd := &body{part: part{base: b}}
		node, kids = bd, &bd.children
	default:
		p := &part{base: b}
		node, kids = p, &p.children
	}

	subs := el.SelectElement("subcomponents")
	if subs == nil {
		return node
	}
	for _, child := range subs.ChildElements() {
		if _, ok := componentTags[child.Tag]; !ok {
			continue
		}
		*kids = append(*kids, build(child, node, len(*kids)))
	}
	return node
}

// Collect returns every component of the given type in depth-first order.
func Collect(root Component, typ string) []Component {
	var out []Component
	var walk func(c Component)
	walk = func(c Component) {
		if c.Type() == typ {
			out = append(out, c)
		}
		for i := 0; i < c.ChildCount(); i++ {
			child, err := c.Child(i)
			if err != nil {
				return
			}
			walk(child)
		}
	}
	walk(root)
	return out
}
