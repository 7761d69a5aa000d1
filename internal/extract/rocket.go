package extract

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Rocket is the rocket-level record. Mass, inertia and CG are dry values
// sampled at burnout.
type Rocket struct {
	CenterOfMassWithoutPropellant float64    `json:"center_of_mass_without_propellant"`
	CoordinateSystemOrientation   string     `json:"coordinate_system_orientation"`
	DragCurve                     string     `json:"drag_curve"`
	Inertia                       [3]float64 `json:"inertia"`
	Mass                          float64    `json:"mass"`
	Radius                        float64    `json:"radius"`
}

// radiusFields lists the tags that may carry the rocket's outer radius.
var radiusFields = []struct{ tag, field string }{
	{"bodytube", "radius"},
	{"nosecone", "aftradius"},
	{"transition", "aftradius"},
}

// RocketRadius returns the largest numeric radius found on body tubes and on
// the aft end of nose cones and transitions.
func RocketRadius(doc *ork.Document) (float64, error) {
	var tokens []string
	for _, f := range radiusFields {
		for _, el := range doc.FindAll(f.tag) {
			if s, ok := ork.Text(el, f.field); ok {
				tokens = append(tokens, s)
			}
		}
	}
	return MaxRadius(tokens)
}

// MaxRadius returns the maximum numeric value among radius tokens. An "auto "
// prefix is stripped; a bare "auto" or unparsable token is skipped.
func MaxRadius(tokens []string) (float64, error) {
	best, found := 0.0, false
	for _, tok := range tokens {
		r := ork.ParseRadius(tok)
		if !r.Resolved {
			continue
		}
		if !found || r.Value > best {
			best, found = r.Value, true
		}
	}
	if !found {
		return 0, ErrNoRadius
	}
	return best, nil
}

// SearchRocket builds the rocket record from the document and the trace.
func SearchRocket(doc *ork.Document, s *Series, b Burnout, dragCurve string, log *zap.Logger) (Rocket, error) {
	log = nopIfNil(log)

	radius, err := RocketRadius(doc)
	if err != nil {
		return Rocket{}, err
	}
	mass, err := s.At(ColMass, b.Index)
	if err != nil {
		return Rocket{}, err
	}
	longitudinal, err := s.At(ColLongitudinalMoI, b.Index)
	if err != nil {
		return Rocket{}, err
	}
	rotational, err := s.At(ColRotationalMoI, b.Index)
	if err != nil {
		return Rocket{}, err
	}
	cg, err := s.At(ColCG, b.Index)
	if err != nil {
		return Rocket{}, err
	}
	for label, v := range map[string]float64{
		ColMass:            mass,
		ColLongitudinalMoI: longitudinal,
		ColRotationalMoI:   rotational,
		ColCG:              cg,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Rocket{}, fmt.Errorf("rocket: %q is not finite at burnout (sample %d)", label, b.Index)
		}
	}

	r := Rocket{
		CenterOfMassWithoutPropellant: cg,
		CoordinateSystemOrientation:   "nose_to_tail",
		DragCurve:                     dragCurve,
		Inertia:                       [3]float64{longitudinal, longitudinal, rotational},
		Mass:                          mass,
		Radius:                        radius,
	}
	log.Info("rocket extracted",
		zap.Float64("radius", r.Radius),
		zap.Float64("mass", r.Mass),
		zap.Float64("center_of_mass_without_propellant", r.CenterOfMassWithoutPropellant))
	return r, nil
}

// MotorPosition locates the motor's centre of mass from the nose tip by
// balancing mass moments at ignition and at burnout:
//
//	cg0*(dry+prop) = dry*cgDry + prop*pos
func MotorPosition(s *Series, b Burnout) (float64, error) {
	mass0, err := s.At(ColMass, 0)
	if err != nil {
		return 0, err
	}
	dry, err := s.At(ColMass, b.Index)
	if err != nil {
		return 0, err
	}
	cg0, err := s.At(ColCG, 0)
	if err != nil {
		return 0, err
	}
	cgDry, err := s.At(ColCG, b.Index)
	if err != nil {
		return 0, err
	}
	prop := mass0 - dry
	if !(prop > 0) {
		return 0, fmt.Errorf("mass %v at ignition, %v at burnout: %w", mass0, dry, ErrNoPropellant)
	}
	return (cg0*(dry+prop) - dry*cgDry) / prop, nil
}
