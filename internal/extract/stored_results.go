package extract

import (
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// StoredResults are OpenRocket's own results for the first simulation, kept
// for comparison with RocketPy. Stability margins are nil when the trace has
// no usable stability column.
type StoredResults struct {
	BurnoutStabilityMargin *float64 `json:"burnout_stability_margin"`
	FlightTime             float64  `json:"flight_time"`
	GroundHitVelocity      float64  `json:"ground_hit_velocity"`
	LaunchRodVelocity      float64  `json:"launch_rod_velocity"`
	MaxAcceleration        float64  `json:"max_acceleration"`
	MaxAltitude            float64  `json:"max_altitude"`
	MaxMach                float64  `json:"max_mach"`
	MaxStabilityMargin     *float64 `json:"max_stability_margin"`
	MaxThrust              *float64 `json:"max_thrust"`
	MaxVelocity            float64  `json:"max_velocity"`
	MinStabilityMargin     *float64 `json:"min_stability_margin"`
	TimeToApogee           float64  `json:"time_to_apogee"`
}

// SearchStoredResults reads the flightdata summary attributes (missing ones
// are zero) and derives stability and thrust extremes from the trace.
func SearchStoredResults(doc *ork.Document, s *Series, b Burnout, log *zap.Logger) StoredResults {
	log = nopIfNil(log)

	data := ork.Lookup(doc.Find("simulation"), "flightdata")
	if data == nil {
		log.Warn("no flightdata summary found")
	}
	r := StoredResults{
		MaxAltitude:       ork.Attr(data, "maxaltitude", 0),
		MaxVelocity:       ork.Attr(data, "maxvelocity", 0),
		MaxAcceleration:   ork.Attr(data, "maxacceleration", 0),
		MaxMach:           ork.Attr(data, "maxmach", 0),
		TimeToApogee:      ork.Attr(data, "timetoapogee", 0),
		FlightTime:        ork.Attr(data, "flighttime", 0),
		GroundHitVelocity: ork.Attr(data, "groundhitvelocity", 0),
		LaunchRodVelocity: ork.Attr(data, "launchrodvelocity", 0),
	}

	if stab, err := s.Column(ColStabilityCalibers); err == nil {
		r.MaxStabilityMargin, r.MinStabilityMargin = extremes(stab)
		if b.Index < len(stab) && !math.IsNaN(stab[b.Index]) {
			v := math.Max(stab[b.Index], 0)
			r.BurnoutStabilityMargin = &v
		}
	} else {
		log.Warn("trace has no stability column", zap.String("column", ColStabilityCalibers))
	}

	if thrust, err := s.Column(ColThrust); err == nil {
		r.MaxThrust, _ = extremes(thrust)
	} else {
		log.Warn("trace has no thrust column", zap.String("column", ColThrust))
	}

	log.Info("stored results extracted",
		zap.Float64("max_altitude", r.MaxAltitude),
		zap.Float64("time_to_apogee", r.TimeToApogee))
	return r
}

// extremes clips negatives to zero, drops NaN and returns max and min.
func extremes(values []float64) (maxv, minv *float64) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v = math.Max(v, 0)
		if maxv == nil {
			hi, lo := v, v
			maxv, minv = &hi, &lo
			continue
		}
		if v > *maxv {
			*maxv = v
		}
		if v < *minv {
			*minv = v
		}
	}
	return maxv, minv
}
