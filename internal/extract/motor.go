package extract

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Burnout is the sample where normalized propellant mass first reaches zero.
// Dry quantities of the rocket are sampled at Index.
type Burnout struct {
	Index int
	Time  float64
	// PropellantMass is the total propellant at ignition.
	PropellantMass float64
	// Propellant is the normalized propellant-mass curve.
	Propellant []float64
}

// FindBurnout normalizes the propellant-mass curve so its minimum is zero and
// returns the first sample where it equals zero.
func FindBurnout(s *Series, log *zap.Logger) (Burnout, error) {
	log = nopIfNil(log)

	label := ColPropellantMass
	if !s.Has(label) {
		label = ColMotorMass
	}
	raw, err := s.Column(label)
	if err != nil {
		return Burnout{}, &MissingColumnError{Label: ColPropellantMass, Alternatives: []string{ColMotorMass}}
	}
	log.Debug("propellant mass source", zap.String("column", label))

	floor := math.Inf(1)
	for _, v := range raw {
		if !math.IsNaN(v) && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		return Burnout{}, fmt.Errorf("column %q: %w", label, ErrNoBurnout)
	}

	curve := make([]float64, len(raw))
	for i, v := range raw {
		curve[i] = v - floor
	}

	time := s.Time()
	for i, v := range curve {
		if v == 0 {
			b := Burnout{Index: i, Time: time[i], PropellantMass: curve[0], Propellant: curve}
			log.Debug("burnout found",
				zap.Int("index", i),
				zap.Float64("time", b.Time),
				zap.Float64("propellant_mass", b.PropellantMass))
			return b, nil
		}
	}
	return Burnout{}, ErrNoBurnout
}

// Motor is the solid-motor record.
type Motor struct {
	BurnTime                    float64    `json:"burn_time"`
	CenterOfDryMassPosition     float64    `json:"center_of_dry_mass_position"`
	CoordinateSystemOrientation string     `json:"coordinate_system_orientation"`
	DryInertia                  [3]float64 `json:"dry_inertia"`
	DryMass                     float64    `json:"dry_mass"`
	GrainDensity                float64    `json:"grain_density"`
	GrainInitialHeight          float64    `json:"grain_initial_height"`
	GrainInitialInnerRadius     float64    `json:"grain_initial_inner_radius"`
	GrainNumber                 int        `json:"grain_number"`
	GrainOuterRadius            float64    `json:"grain_outer_radius"`
	GrainSeparation             float64    `json:"grain_separation"`
	GrainsCenterOfMassPosition  float64    `json:"grains_center_of_mass_position"`
	NozzlePosition              float64    `json:"nozzle_position"`
	NozzleRadius                float64    `json:"nozzle_radius"`
	Position                    float64    `json:"position"`
	ThroatRadius                float64    `json:"throat_radius"`
	ThrustSource                string     `json:"thrust_source"`
}

// Fixed ratios of the single-grain motor approximation.
const (
	throatToInnerRadius = 1.0
	nozzleToInnerRadius = 1.5
)

// SearchMotor approximates the motor as one hollow cylindrical grain sized by
// the motor mount's motor length and diameter. Motor structure mass is
// already part of the rocket's burnout mass, so the dry mass is zero.
func SearchMotor(doc *ork.Document, b Burnout, position float64, thrustSource string, log *zap.Logger) (Motor, error) {
	log = nopIfNil(log)

	mount := doc.Find("motormount")
	if mount == nil {
		return Motor{}, ErrNoMotorMount
	}
	length, err := ork.Float(mount, "length")
	if err != nil {
		return Motor{}, fmt.Errorf("motor: %w", err)
	}
	diameter, err := ork.Float(mount, "diameter")
	if err != nil {
		return Motor{}, fmt.Errorf("motor: %w", err)
	}

	outer := diameter / 2
	inner := outer / 2
	volume := math.Pi * (outer*outer - inner*inner) * length
	if volume <= 0 {
		return Motor{}, fmt.Errorf("motor: non-positive grain volume (length %v, diameter %v)", length, diameter)
	}

	m := Motor{
		BurnTime:                    b.Time,
		CoordinateSystemOrientation: "nozzle_to_combustion_chamber",
		GrainDensity:                b.PropellantMass / volume,
		GrainInitialHeight:          length,
		GrainInitialInnerRadius:     inner,
		GrainNumber:                 1,
		GrainOuterRadius:            outer,
		NozzlePosition:              -length / 2,
		NozzleRadius:                nozzleToInnerRadius * inner,
		Position:                    position,
		ThroatRadius:                throatToInnerRadius * inner,
		ThrustSource:                thrustSource,
	}
	log.Info("motor extracted",
		zap.Float64("grain_density", m.GrainDensity),
		zap.Float64("burn_time", m.BurnTime),
		zap.Float64("position", m.Position))
	return m, nil
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
