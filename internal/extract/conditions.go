package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Environment is the launch-site record. Date is always null; RocketPy picks
// its own forecast date.
type Environment struct {
	BasePressure    *float64 `json:"base_pressure"`
	BaseTemperature *float64 `json:"base_temperature"`
	Date            *string  `json:"date"`
	Elevation       float64  `json:"elevation"`
	GeodeticMethod  string   `json:"geodetic_method"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	WindAverage     float64  `json:"wind_average"`
	WindTurbulence  float64  `json:"wind_turbulence"`
}

// Flight is the launch-rail record.
type Flight struct {
	Heading     float64 `json:"heading"`
	Inclination float64 `json:"inclination"`
	RailLength  float64 `json:"rail_length"`
}

// Identification describes the source document.
type Identification struct {
	Comment    *string `json:"comment"`
	Designer   *string `json:"designer"`
	Filepath   string  `json:"filepath"`
	RocketName string  `json:"rocket_name"`
}

// docFloat reads the first tag anywhere in the document.
func docFloat(doc *ork.Document, tag string) (float64, error) {
	el := doc.Find(tag)
	if el == nil {
		return 0, &ork.FieldError{Component: "document", Field: tag, Err: ork.ErrMissingField}
	}
	return ork.Float(el.Parent(), tag)
}

// SearchEnvironment reads the launch-site conditions of the first simulation.
func SearchEnvironment(doc *ork.Document, log *zap.Logger) (Environment, error) {
	log = nopIfNil(log)

	var env Environment
	fields := []struct {
		tag string
		dst *float64
	}{
		{"launchlatitude", &env.Latitude},
		{"launchlongitude", &env.Longitude},
		{"launchaltitude", &env.Elevation},
		{"windaverage", &env.WindAverage},
		{"windturbulence", &env.WindTurbulence},
	}
	for _, f := range fields {
		v, err := docFloat(doc, f.tag)
		if err != nil {
			return Environment{}, fmt.Errorf("environment: %w", err)
		}
		*f.dst = v
	}
	if el := doc.Find("geodeticmethod"); el != nil {
		env.GeodeticMethod = strings.TrimSpace(el.Text())
	}

	for _, opt := range []struct {
		tag string
		dst **float64
	}{
		{"basetemperature", &env.BaseTemperature},
		{"basepressure", &env.BasePressure},
	} {
		v, err := docFloat(doc, opt.tag)
		if err != nil {
			log.Warn("optional atmosphere field missing", zap.String("field", opt.tag))
			continue
		}
		*opt.dst = &v
	}

	log.Info("environment extracted",
		zap.Float64("latitude", env.Latitude),
		zap.Float64("longitude", env.Longitude),
		zap.Float64("elevation", env.Elevation))
	return env, nil
}

// SearchFlight reads the launch-rod settings. Inclination is measured from
// the horizon, so it is 90 minus the rod angle.
func SearchFlight(doc *ork.Document, log *zap.Logger) (Flight, error) {
	log = nopIfNil(log)

	length, err := docFloat(doc, "launchrodlength")
	if err != nil {
		return Flight{}, fmt.Errorf("flight: %w", err)
	}
	angle, err := docFloat(doc, "launchrodangle")
	if err != nil {
		return Flight{}, fmt.Errorf("flight: %w", err)
	}
	heading, err := docFloat(doc, "launchroddirection")
	if err != nil {
		return Flight{}, fmt.Errorf("flight: %w", err)
	}
	f := Flight{Heading: heading, Inclination: 90 - angle, RailLength: length}
	log.Info("flight extracted",
		zap.Float64("rail_length", f.RailLength),
		zap.Float64("inclination", f.Inclination),
		zap.Float64("heading", f.Heading))
	return f, nil
}

// SearchID reads the rocket's name, comment and designer.
func SearchID(doc *ork.Document, log *zap.Logger) (Identification, error) {
	log = nopIfNil(log)

	rocket, err := doc.Root()
	if err != nil {
		return Identification{}, err
	}
	id := Identification{
		Filepath:   filepath.ToSlash(doc.Source),
		RocketName: ork.Name(rocket),
	}
	if c := rocket.SelectElement("comment"); c != nil {
		s := strings.ReplaceAll(c.Text(), "\n", "")
		id.Comment = &s
	}
	if d := rocket.SelectElement("designer"); d != nil {
		s := d.Text()
		id.Designer = &s
	}
	log.Info("id extracted", zap.String("rocket_name", id.RocketName))
	return id, nil
}
