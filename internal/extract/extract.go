// Package extract derives RocketPy simulation parameters from an OpenRocket
// design document and its recorded simulation trace.
//
// The pipeline runs in a fixed order: the trace is trimmed to ignition, the
// burnout sample is located, rocket-level mass properties are sampled there,
// the component tree is walked to place every part from the nose tip, and
// each aerodynamic surface is read against those placements.
package extract

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Options configures an extraction.
type Options struct {
	// OutputDir is where the curve side files will be written. Their paths
	// are recorded in the settings.
	OutputDir string
	Logger    *zap.Logger
}

// Result is everything produced by one extraction.
type Result struct {
	Settings    Settings
	DragCurve   Curve
	ThrustCurve Curve
	Elements    *Elements
	// FreeformFinSets counts fin sets left out of the settings.
	FreeformFinSets int
}

// Extract runs the pipeline on a validated document. The component tree is
// built from the document itself.
func Extract(doc *ork.Document, opts Options) (*Result, error) {
	root, err := ork.NewTree(doc)
	if err != nil {
		return nil, err
	}
	return ExtractTree(doc, root, opts)
}

// ExtractTree runs the pipeline against a caller-supplied component tree.
func ExtractTree(doc *ork.Document, root ork.Component, opts Options) (*Result, error) {
	log := nopIfNil(opts.Logger).With(zap.String("source", doc.Source))

	dragPath := filepath.Join(opts.OutputDir, DragCurveFile)
	thrustPath := filepath.Join(opts.OutputDir, ThrustCurveFile)

	series, err := LoadSeries(doc)
	if err != nil {
		return nil, fmt.Errorf("loading trace: %w", err)
	}
	log.Debug("trace loaded", zap.Int("samples", series.Len()), zap.Strings("labels", series.Labels()))

	burnout, err := FindBurnout(series, log)
	if err != nil {
		return nil, fmt.Errorf("locating burnout: %w", err)
	}

	id, err := SearchID(doc, log)
	if err != nil {
		return nil, err
	}
	env, err := SearchEnvironment(doc, log)
	if err != nil {
		return nil, err
	}
	rocket, err := SearchRocket(doc, series, burnout, dragPath, log)
	if err != nil {
		return nil, fmt.Errorf("rocket: %w", err)
	}
	motorPos, err := MotorPosition(series, burnout)
	if err != nil {
		return nil, fmt.Errorf("motor position: %w", err)
	}
	motor, err := SearchMotor(doc, burnout, motorPos, thrustPath, log)
	if err != nil {
		return nil, err
	}

	elems, err := WalkPositions(root, rocket.CenterOfMassWithoutPropellant, log)
	if err != nil {
		return nil, err
	}
	log.Debug("component tree walked", zap.Int("elements", elems.Len()))

	nose, err := SearchNoseCone(doc, elems, rocket.Radius, log)
	if err != nil {
		return nil, err
	}
	trapezoidal, err := SearchTrapezoidalFins(doc, elems, log)
	if err != nil {
		return nil, err
	}
	elliptical, err := SearchEllipticalFins(doc, elems, log)
	if err != nil {
		return nil, err
	}
	freeform := CheckFreeformFins(doc, log)
	tails, err := SearchTransitions(doc, root, elems, log)
	if err != nil {
		return nil, err
	}
	parachutes, err := SearchParachutes(doc, log)
	if err != nil {
		return nil, err
	}
	rails := SearchRailButtons(doc, elems, log)
	flight, err := SearchFlight(doc, log)
	if err != nil {
		return nil, err
	}
	stored := SearchStoredResults(doc, series, burnout, log)

	drag, err := DragCurve(series)
	if err != nil {
		return nil, fmt.Errorf("drag curve: %w", err)
	}
	thrust, err := ThrustCurve(series)
	if err != nil {
		return nil, fmt.Errorf("thrust curve: %w", err)
	}

	res := &Result{
		Settings: Settings{
			EllipticalFins:  elliptical,
			Environment:     env,
			Flight:          flight,
			ID:              id,
			Motors:          motor,
			Nosecones:       Some(nose),
			Parachutes:      parachutes,
			RailButtons:     Some(rails),
			Rocket:          rocket,
			StoredResults:   stored,
			Tails:           tails,
			TrapezoidalFins: trapezoidal,
		},
		DragCurve:       drag,
		ThrustCurve:     thrust,
		Elements:        elems,
		FreeformFinSets: freeform,
	}
	log.Info("extraction complete",
		zap.String("rocket_name", id.RocketName),
		zap.Int("drag_points", len(drag)),
		zap.Int("thrust_points", len(thrust)))
	return res, nil
}
