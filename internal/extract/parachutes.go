package extract

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// autoDragCoefficient replaces a parachute Cd of "auto". The document keeps
// no computed value, so this is an approximation.
const autoDragCoefficient = 1.0

// Parachute is a recovery-device record. DeployAltitude is set only for
// altitude-triggered deployment.
type Parachute struct {
	Area           float64  `json:"area"`
	Cd             float64  `json:"cd"`
	CdS            float64  `json:"cds"`
	DeployAltitude *float64 `json:"deploy_altitude"`
	DeployDelay    float64  `json:"deploy_delay"`
	DeployEvent    string   `json:"deploy_event"`
	Name           string   `json:"name"`
}

// SearchParachutes returns one record per parachute in document order.
func SearchParachutes(doc *ork.Document, log *zap.Logger) (map[int]Parachute, error) {
	log = nopIfNil(log)
	out := make(map[int]Parachute)
	for i, el := range doc.FindAll("parachute") {
		name := ork.Name(el)

		cdText, _ := ork.Text(el, "cd")
		var cd float64
		if strings.Contains(cdText, "auto") {
			log.Warn("parachute Cd is auto, using a fixed coefficient",
				zap.String("name", name), zap.Float64("cd", autoDragCoefficient))
			cd = autoDragCoefficient
		} else {
			v, err := ork.Float(el, "cd")
			if err != nil {
				return nil, fmt.Errorf("parachute %d: %w", i, err)
			}
			cd = v
		}

		diameter, err := ork.Float(el, "diameter")
		if err != nil {
			return nil, fmt.Errorf("parachute %d: %w", i, err)
		}
		event, _ := ork.Text(el, "deployevent")
		delay := ork.FloatOr(el, "deploydelay", 0)

		area := math.Pi * diameter * diameter / 4
		p := Parachute{
			Area:        area,
			Cd:          cd,
			CdS:         cd * area,
			DeployDelay: delay,
			DeployEvent: event,
			Name:        name,
		}
		if event == "altitude" {
			alt, err := ork.Float(el, "deployaltitude")
			if err != nil {
				return nil, fmt.Errorf("parachute %d: %w", i, err)
			}
			p.DeployAltitude = &alt
		}
		out[i] = p
		log.Info("parachute extracted",
			zap.Int("index", i), zap.String("name", name), zap.String("deploy_event", event))
	}
	return out, nil
}
