package extract

import (
	"sort"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// RailButtons is the rail-guide record built from the two aft-most lugs or
// buttons.
type RailButtons struct {
	AngularPosition float64 `json:"angular_position"`
	Distance        float64 `json:"distance"`
	LowerPosition   float64 `json:"lower_position"`
	Name            string  `json:"name"`
	UpperPosition   float64 `json:"upper_position"`
}

// SearchRailButtons returns nil when fewer than two lugs or buttons exist.
func SearchRailButtons(doc *ork.Document, elems *Elements, log *zap.Logger) *RailButtons {
	log = nopIfNil(log)

	var guides []Element
	for _, e := range elems.All() {
		if e.Type == ork.TypeLaunchLug || e.Type == ork.TypeRailButton {
			guides = append(guides, e)
		}
	}
	if len(guides) < 2 {
		log.Info("fewer than two rail guides, skipping rail buttons", zap.Int("count", len(guides)))
		return nil
	}
	if len(guides) > 2 {
		log.Warn("more than two rail guides, using the two aft-most",
			zap.Int("count", len(guides)))
	}
	sort.SliceStable(guides, func(i, j int) bool { return guides[i].Position < guides[j].Position })
	upper, lower := guides[len(guides)-2], guides[len(guides)-1]

	rb := &RailButtons{
		AngularPosition: angularPosition(doc, upper.Name),
		Distance:        lower.Position - upper.Position,
		LowerPosition:   lower.Position,
		Name:            upper.Name,
		UpperPosition:   upper.Position,
	}
	log.Info("rail buttons extracted",
		zap.String("name", rb.Name),
		zap.Float64("upper_position", rb.UpperPosition),
		zap.Float64("lower_position", rb.LowerPosition))
	return rb
}

// angularPosition reads the radial direction of the named lug or button,
// falling back to its angle offset and then to zero.
func angularPosition(doc *ork.Document, name string) float64 {
	for _, tag := range []string{"launchlug", "railbutton"} {
		for _, el := range doc.FindAll(tag) {
			if ork.Name(el) != name {
				continue
			}
			if v, err := ork.Float(el, "radialdirection"); err == nil {
				return v
			}
			return ork.FloatOr(el, "angleoffset", 0)
		}
	}
	return 0
}
