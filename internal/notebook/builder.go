package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/rocketserializer/internal/artifact"
	"github.com/papapumpkin/rocketserializer/internal/extract"
)

// FileName is the name of the rendered notebook.
const FileName = "simulation.ipynb"

// Defaults applied when Options leaves a field empty.
const (
	DefaultRequirement = "rocketpy<=2.0"
	DefaultMaxTime     = 600.0
)

var (
	// ErrNoFins indicates a record without any fin set. RocketPy cannot fly
	// such a rocket.
	ErrNoFins = errors.New("no fins in parameters, add at least one fin set")
	// ErrDeployEvent indicates a parachute trigger with no RocketPy equivalent.
	ErrDeployEvent = errors.New("unsupported parachute deploy event")
	// ErrNotDirectory indicates a destination that exists but is not a directory.
	ErrNotDirectory = errors.New("destination is not a directory")
)

// Options configures a Builder.
type Options struct {
	// RocketPyRequirement is the pip requirement installed by the first
	// code cell.
	RocketPyRequirement string
	// MaxTime bounds the simulated flight, in seconds.
	MaxTime float64
	Logger  *zap.Logger
}

// Builder renders one parameters record.
type Builder struct {
	source   string
	settings extract.Settings
	opts     Options
	log      *zap.Logger
}

// New returns a Builder for settings read from source.
func New(source string, settings extract.Settings, opts Options) *Builder {
	if opts.RocketPyRequirement == "" {
		opts.RocketPyRequirement = DefaultRequirement
	}
	if opts.MaxTime <= 0 {
		opts.MaxTime = DefaultMaxTime
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{source: source, settings: settings, opts: opts, log: log}
}

// Load reads a parameters file written in JSON or, for .yaml and .yml
// files, YAML.
func Load(path string, opts Options) (*Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("notebook: reading parameters: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("notebook: decoding %s: %w", path, err)
		}
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("notebook: decoding %s: %w", path, err)
		}
	}
	var s extract.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("notebook: decoding %s: %w", path, err)
	}
	return New(path, s, opts), nil
}

// Build renders the notebook and writes it into dest, which must already
// exist. It returns the path of the written notebook.
func (b *Builder) Build(dest string) (string, error) {
	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("notebook: destination %s: %w", dest, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("notebook: %s: %w", dest, ErrNotDirectory)
	}

	nb, err := b.Render(dest)
	if err != nil {
		return "", err
	}
	data, err := nb.Encode()
	if err != nil {
		return "", fmt.Errorf("notebook: encoding: %w", err)
	}
	if err := artifact.WriteFiles(dest, []artifact.File{{Name: FileName, Data: data}}); err != nil {
		return "", fmt.Errorf("notebook: %w", err)
	}
	out := filepath.Join(dest, FileName)
	b.log.Info("notebook written", zap.String("path", out), zap.Int("cells", len(nb.Cells)))
	return out, nil
}

// Render builds the notebook in memory. Curve file paths are made relative
// to dest.
func (b *Builder) Render(dest string) (*Notebook, error) {
	s := b.settings
	if len(s.TrapezoidalFins) == 0 && len(s.EllipticalFins) == 0 {
		b.log.Warn("no fins in parameters", zap.String("source", b.source))
		return nil, fmt.Errorf("notebook: %w", ErrNoFins)
	}

	nb := newNotebook()
	b.header(nb)
	b.imports(nb)
	b.environment(nb)
	b.motor(nb, dest)
	b.surfaces(nb)
	b.rocket(nb, dest)
	if err := b.parachutes(nb); err != nil {
		return nil, err
	}
	b.flight(nb)
	b.compare(nb)
	return nb, nil
}

func (b *Builder) header(nb *Notebook) {
	var w strings.Builder
	w.WriteString("# RocketPy Simulation\n")
	w.WriteString("This notebook was generated by rocketserializer, which converts OpenRocket files to RocketPy simulations.\n")
	fmt.Fprintf(&w, "The notebook was generated using the following parameters file: `%s`\n", b.source)
	nb.markdown(w.String())
}

func (b *Builder) imports(nb *Notebook) {
	nb.code("%pip install " + b.opts.RocketPyRequirement + "\n")
	nb.code("from rocketpy import Environment, SolidMotor, Rocket, Flight, TrapezoidalFins, EllipticalFins, NoseCone, Tail\n" +
		"import datetime\n")
	b.log.Debug("notebook section created", zap.String("section", "imports"))
}

func (b *Builder) environment(nb *Notebook) {
	env := b.settings.Environment
	nb.markdown("## Environment\n")

	var w strings.Builder
	w.WriteString("env = Environment()\n")
	fmt.Fprintf(&w, "env.set_location(latitude=%s, longitude=%s)\n", pyFloat(env.Latitude), pyFloat(env.Longitude))
	fmt.Fprintf(&w, "env.set_elevation(%s)\n", pyFloat(env.Elevation))
	nb.code(w.String())

	nb.markdown("Optionally, you can set the date and atmospheric model\n")
	nb.code("tomorrow = datetime.date.today() + datetime.timedelta(days=1)\n" +
		"env.set_date((tomorrow.year, tomorrow.month, tomorrow.day, 12))\n" +
		"# env.set_atmospheric_model(type='Forecast', file='GFS')\n")
	nb.code("env.all_info()\n")
	b.log.Debug("notebook section created", zap.String("section", "environment"))
}

func (b *Builder) motor(nb *Notebook, dest string) {
	m := b.settings.Motors
	nb.markdown("## Motor\n" +
		"Only solid motors are supported. For a liquid or hybrid motor, use rocketpy directly.\n")

	var w strings.Builder
	w.WriteString("motor = SolidMotor(\n")
	fmt.Fprintf(&w, "    thrust_source=%s,\n", pyString(relPath(dest, m.ThrustSource)))
	fmt.Fprintf(&w, "    dry_mass=%s,\n", pyFloat(m.DryMass))
	fmt.Fprintf(&w, "    center_of_dry_mass_position=%s,\n", pyFloat(m.CenterOfDryMassPosition))
	fmt.Fprintf(&w, "    dry_inertia=%s,\n", pyList(m.DryInertia[:]))
	fmt.Fprintf(&w, "    grains_center_of_mass_position=%s,\n", pyFloat(m.GrainsCenterOfMassPosition))
	fmt.Fprintf(&w, "    grain_number=%d,\n", m.GrainNumber)
	fmt.Fprintf(&w, "    grain_density=%s,\n", pyFloat(m.GrainDensity))
	fmt.Fprintf(&w, "    grain_outer_radius=%s,\n", pyFloat(m.GrainOuterRadius))
	fmt.Fprintf(&w, "    grain_initial_inner_radius=%s,\n", pyFloat(m.GrainInitialInnerRadius))
	fmt.Fprintf(&w, "    grain_initial_height=%s,\n", pyFloat(m.GrainInitialHeight))
	fmt.Fprintf(&w, "    grain_separation=%s,\n", pyFloat(m.GrainSeparation))
	fmt.Fprintf(&w, "    nozzle_radius=%s,\n", pyFloat(m.NozzleRadius))
	fmt.Fprintf(&w, "    nozzle_position=%s,\n", pyFloat(m.NozzlePosition))
	fmt.Fprintf(&w, "    throat_radius=%s,\n", pyFloat(m.ThroatRadius))
	w.WriteString("    reshape_thrust_curve=False,\n")
	w.WriteString("    interpolation_method='linear',\n")
	fmt.Fprintf(&w, "    coordinate_system_orientation=%s,\n", pyString(m.CoordinateSystemOrientation))
	w.WriteString(")\n")
	nb.code(w.String())
	nb.code("motor.all_info()\n")
	b.log.Debug("notebook section created", zap.String("section", "motor"))
}

// surfaces defines the nose cone, fin sets and tails. They are attached to
// the rocket later by addSurfaces.
func (b *Builder) surfaces(nb *Notebook) {
	s := b.settings
	nb.markdown("## Rocket\n" +
		"Only single stage rockets are supported.\n" +
		"We start by defining the aerodynamic surfaces, then build the rocket.\n")

	if nose := s.Nosecones.Value; nose != nil {
		nb.markdown("### Nose cone\n")
		var w strings.Builder
		w.WriteString("nosecone = NoseCone(\n")
		fmt.Fprintf(&w, "    length=%s,\n", pyFloat(nose.Length))
		fmt.Fprintf(&w, "    kind=%s,\n", pyString(nose.Kind))
		fmt.Fprintf(&w, "    base_radius=%s,\n", pyFloat(nose.BaseRadius))
		fmt.Fprintf(&w, "    rocket_radius=%s,\n", pyFloat(s.Rocket.Radius))
		fmt.Fprintf(&w, "    name=%s,\n", pyString(nose.Name))
		w.WriteString(")\n")
		nb.code(w.String())
	} else {
		b.log.Warn("no nose cone in parameters", zap.String("source", b.source))
	}

	nb.markdown("### Fins\n" +
		"RocketPy allows several fin sets, so each kind is kept in a dictionary.\n")
	if len(s.TrapezoidalFins) > 0 {
		nb.code("trapezoidal_fins = {}\n")
		for _, i := range s.TrapezoidalFins.Keys() {
			f := s.TrapezoidalFins[i]
			var w strings.Builder
			fmt.Fprintf(&w, "trapezoidal_fins[%d] = TrapezoidalFins(\n", i)
			fmt.Fprintf(&w, "    n=%d,\n", f.Number)
			fmt.Fprintf(&w, "    root_chord=%s,\n", pyFloat(f.RootChord))
			fmt.Fprintf(&w, "    tip_chord=%s,\n", pyFloat(f.TipChord))
			fmt.Fprintf(&w, "    span=%s,\n", pyFloat(f.Span))
			fmt.Fprintf(&w, "    cant_angle=%s,\n", pyFloat(f.CantAngle))
			fmt.Fprintf(&w, "    sweep_length=%s,\n", pyOptional(f.SweepLength))
			fmt.Fprintf(&w, "    sweep_angle=%s,\n", pyOptional(f.SweepAngle))
			fmt.Fprintf(&w, "    rocket_radius=%s,\n", pyFloat(s.Rocket.Radius))
			fmt.Fprintf(&w, "    name=%s,\n", pyString(f.Name))
			w.WriteString(")\n")
			nb.code(w.String())
		}
	}
	if len(s.EllipticalFins) > 0 {
		nb.code("elliptical_fins = {}\n")
		for _, i := range s.EllipticalFins.Keys() {
			f := s.EllipticalFins[i]
			var w strings.Builder
			fmt.Fprintf(&w, "elliptical_fins[%d] = EllipticalFins(\n", i)
			fmt.Fprintf(&w, "    n=%d,\n", f.Number)
			fmt.Fprintf(&w, "    root_chord=%s,\n", pyFloat(f.RootChord))
			fmt.Fprintf(&w, "    span=%s,\n", pyFloat(f.Span))
			fmt.Fprintf(&w, "    rocket_radius=%s,\n", pyFloat(s.Rocket.Radius))
			fmt.Fprintf(&w, "    cant_angle=%s,\n", pyFloat(f.CantAngle))
			fmt.Fprintf(&w, "    name=%s,\n", pyString(f.Name))
			w.WriteString(")\n")
			nb.code(w.String())
		}
	}
	b.log.Debug("notebook section created", zap.String("section", "fins"),
		zap.Int("trapezoidal", len(s.TrapezoidalFins)), zap.Int("elliptical", len(s.EllipticalFins)))

	nb.markdown("### Transitions (Tails)\n")
	nb.code("tails = {}\n")
	for _, i := range s.Tails.Keys() {
		t := s.Tails[i]
		var w strings.Builder
		fmt.Fprintf(&w, "tails[%d] = Tail(\n", i)
		fmt.Fprintf(&w, "    top_radius=%s,\n", pyFloat(t.TopRadius))
		fmt.Fprintf(&w, "    bottom_radius=%s,\n", pyFloat(t.BottomRadius))
		fmt.Fprintf(&w, "    length=%s,\n", pyFloat(t.Length))
		fmt.Fprintf(&w, "    rocket_radius=%s,\n", pyFloat(s.Rocket.Radius))
		fmt.Fprintf(&w, "    name=%s,\n", pyString(t.Name))
		w.WriteString(")\n")
		nb.code(w.String())
	}
	b.log.Debug("notebook section created", zap.String("section", "tails"), zap.Int("count", len(s.Tails)))
}

func (b *Builder) rocket(nb *Notebook, dest string) {
	s := b.settings
	r := s.Rocket
	drag := pyString(relPath(dest, r.DragCurve))

	var w strings.Builder
	w.WriteString("rocket = Rocket(\n")
	fmt.Fprintf(&w, "    radius=%s,\n", pyFloat(r.Radius))
	fmt.Fprintf(&w, "    mass=%s,\n", pyFloat(r.Mass))
	fmt.Fprintf(&w, "    inertia=%s,\n", pyList(r.Inertia[:]))
	fmt.Fprintf(&w, "    power_off_drag=%s,\n", drag)
	fmt.Fprintf(&w, "    power_on_drag=%s,\n", drag)
	fmt.Fprintf(&w, "    center_of_mass_without_motor=%s,\n", pyFloat(r.CenterOfMassWithoutPropellant))
	fmt.Fprintf(&w, "    coordinate_system_orientation=%s,\n", pyString(r.CoordinateSystemOrientation))
	w.WriteString(")\n")
	nb.code(w.String())

	b.addSurfaces(nb)
	nb.code(fmt.Sprintf("rocket.add_motor(motor, position=%s)\n", pyFloat(s.Motors.Position)))

	if rb := s.RailButtons.Value; rb != nil {
		nb.markdown("### Rail buttons\n")
		nb.code(fmt.Sprintf("rail_buttons = rocket.set_rail_buttons(\n"+
			"    upper_button_position=%s,\n"+
			"    lower_button_position=%s,\n"+
			"    angular_position=%s,\n"+
			")\n", pyFloat(rb.UpperPosition), pyFloat(rb.LowerPosition), pyFloat(rb.AngularPosition)))
	}

	nb.markdown("### Rocket info\n")
	nb.code("rocket.all_info()\n")
	b.log.Debug("notebook section created", zap.String("section", "rocket"))
}

func (b *Builder) addSurfaces(nb *Notebook) {
	s := b.settings
	var surfaces, positions []string
	add := func(surface string, position float64) {
		surfaces = append(surfaces, surface)
		positions = append(positions, pyFloat(position))
	}

	if nose := s.Nosecones.Value; nose != nil {
		add("nosecone", nose.Position)
	}
	for _, i := range s.TrapezoidalFins.Keys() {
		add(fmt.Sprintf("trapezoidal_fins[%d]", i), s.TrapezoidalFins[i].Position)
	}
	for _, i := range s.EllipticalFins.Keys() {
		add(fmt.Sprintf("elliptical_fins[%d]", i), s.EllipticalFins[i].Position)
	}
	for _, i := range s.Tails.Keys() {
		t := s.Tails[i]
		if t.Position == nil {
			b.log.Warn("tail has no position, leaving it off the rocket", zap.String("name", t.Name))
			continue
		}
		add(fmt.Sprintf("tails[%d]", i), *t.Position)
	}

	nb.markdown("### Adding surfaces to the rocket\n")
	nb.code(fmt.Sprintf("rocket.add_surfaces(surfaces=[%s], positions=[%s])\n",
		strings.Join(surfaces, ", "), strings.Join(positions, ", ")))
}

func (b *Builder) parachutes(nb *Notebook) error {
	s := b.settings
	nb.markdown("### Parachutes\n")
	for _, i := range s.Parachutes.Keys() {
		p := s.Parachutes[i]
		var trigger string
		switch p.DeployEvent {
		case "apogee":
			trigger = pyString("apogee")
		case "altitude":
			if p.DeployAltitude == nil {
				return fmt.Errorf("notebook: parachute %q: altitude deployment without an altitude: %w", p.Name, ErrDeployEvent)
			}
			trigger = strconv.FormatFloat(*p.DeployAltitude, 'f', 3, 64)
		default:
			b.log.Warn("unsupported parachute deploy event",
				zap.String("name", p.Name), zap.String("deploy_event", p.DeployEvent))
			return fmt.Errorf("notebook: parachute %q: %w: %q", p.Name, ErrDeployEvent, p.DeployEvent)
		}

		var w strings.Builder
		w.WriteString("rocket.add_parachute(\n")
		fmt.Fprintf(&w, "    name=%s,\n", pyString(p.Name))
		fmt.Fprintf(&w, "    cd_s=%s,\n", strconv.FormatFloat(p.CdS, 'f', 3, 64))
		fmt.Fprintf(&w, "    trigger=%s,\n", trigger)
		w.WriteString("    sampling_rate=100,\n")
		fmt.Fprintf(&w, "    lag=%s,\n", pyFloat(p.DeployDelay))
		w.WriteString(")\n")
		nb.code(w.String())
	}
	b.log.Debug("notebook section created", zap.String("section", "parachutes"), zap.Int("count", len(s.Parachutes)))
	return nil
}

func (b *Builder) flight(nb *Notebook) {
	f := b.settings.Flight
	nb.markdown("## Flight\n")

	var w strings.Builder
	w.WriteString("flight = Flight(\n")
	w.WriteString("    rocket=rocket,\n")
	w.WriteString("    environment=env,\n")
	fmt.Fprintf(&w, "    rail_length=%s,\n", pyFloat(f.RailLength))
	fmt.Fprintf(&w, "    inclination=%s,\n", pyFloat(f.Inclination))
	fmt.Fprintf(&w, "    heading=%s,\n", pyFloat(f.Heading))
	w.WriteString("    terminate_on_apogee=False,\n")
	fmt.Fprintf(&w, "    max_time=%s,\n", pyFloat(b.opts.MaxTime))
	w.WriteString(")\n")
	nb.code(w.String())
	nb.code("flight.all_info()\n")
	b.log.Debug("notebook section created", zap.String("section", "flight"))
}

type metric struct {
	label string
	name  string
	ork   *float64
	rpy   string
	unit  string
}

func (b *Builder) compare(nb *Notebook) {
	r := b.settings.StoredResults
	metrics := []metric{
		{"Time to apogee", "time_to_apogee", &r.TimeToApogee, "flight.apogee_time", " s"},
		{"Flight time", "flight_time", &r.FlightTime, "flight.t_final", " s"},
		{"Ground hit velocity", "ground_hit_velocity", &r.GroundHitVelocity, "flight.impact_velocity", " m/s"},
		{"Launch rod velocity", "launch_rod_velocity", &r.LaunchRodVelocity, "flight.out_of_rail_velocity", " m/s"},
		{"Max acceleration", "max_acceleration", &r.MaxAcceleration, "flight.max_acceleration", " m/s²"},
		{"Max altitude", "max_altitude", &r.MaxAltitude, "flight.apogee - flight.env.elevation", " m"},
		{"Max Mach", "max_mach", &r.MaxMach, "flight.max_mach_number", ""},
		{"Max velocity", "max_velocity", &r.MaxVelocity, "flight.max_speed", " m/s"},
		{"Max thrust", "max_thrust", r.MaxThrust, "flight.rocket.motor.thrust.max", " N"},
		{"Burnout stability margin", "burnout_stability_margin", r.BurnoutStabilityMargin,
			"flight.stability_margin(flight.rocket.motor.burn_out_time)", ""},
		{"Max stability margin", "max_stability_margin", r.MaxStabilityMargin, "flight.max_stability_margin", ""},
		{"Min stability margin", "min_stability_margin", r.MinStabilityMargin, "flight.min_stability_margin", ""},
	}

	nb.markdown("## Compare Results\n" +
		"Compare the RocketPy simulation with the results stored in the OpenRocket file.\n")

	var w strings.Builder
	w.WriteString("### OpenRocket vs RocketPy\n")
	for _, m := range metrics {
		if m.ork == nil || math.IsNaN(*m.ork) {
			fmt.Fprintf(&w, "# %s: not recorded in the OpenRocket file\n\n", m.label)
			continue
		}
		fmt.Fprintf(&w, "%s_ork = %s\n", m.name, pyFloat(*m.ork))
		fmt.Fprintf(&w, "%s_rpy = %s\n", m.name, m.rpy)
		fmt.Fprintf(&w, "print(f\"%s (OpenRocket): {%s_ork:.3f}%s\")\n", m.label, m.name, m.unit)
		fmt.Fprintf(&w, "print(f\"%s (RocketPy):   {%s_rpy:.3f}%s\")\n", m.label, m.name, m.unit)
		fmt.Fprintf(&w, "%s_difference = %s_rpy - %s_ork\n", m.name, m.name, m.name)
		fmt.Fprintf(&w, "error_%s = abs((%s_difference)/%s_rpy)*100\n", m.name, m.name, m.name)
		fmt.Fprintf(&w, "print(f\"%s difference:   {error_%s:.3f} %%\")\n\n", m.label, m.name)
	}
	nb.code(w.String())
	b.log.Debug("notebook section created", zap.String("section", "compare"))
}

// relPath returns target relative to dir in slash form, or target itself
// when no relative path exists.
func relPath(dir, target string) string {
	if target == "" {
		return target
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return filepath.ToSlash(target)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// pyFloat formats v as a Python float literal.
func pyFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "float('nan')"
	case math.IsInf(v, 1):
		return "float('inf')"
	case math.IsInf(v, -1):
		return "float('-inf')"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func pyOptional(v *float64) string {
	if v == nil {
		return "None"
	}
	return pyFloat(*v)
}

func pyList(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = pyFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// pyString quotes s as a Python string literal.
func pyString(s string) string {
	return strconv.Quote(s)
}
