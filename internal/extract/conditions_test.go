package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSearchEnvironment(t *testing.T) {
	t.Parallel()
	got, err := SearchEnvironment(openFixture(t), nil)
	if err != nil {
		t.Fatalf("SearchEnvironment: %v", err)
	}
	want := Environment{
		BaseTemperature: ptr(288.15),
		BasePressure:    ptr(101325),
		Elevation:       1400,
		GeodeticMethod:  "spherical",
		Latitude:        32.99,
		Longitude:       -106.97,
		WindAverage:     2,
		WindTurbulence:  0.1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchEnvironmentMissingSite(t *testing.T) {
	t.Parallel()
	doc := noseDoc(t, "")
	_, err := SearchEnvironment(doc, nil)
	if err == nil {
		t.Fatal("expected error for missing launch site")
	}
}

func TestSearchFlight(t *testing.T) {
	t.Parallel()
	got, err := SearchFlight(openFixture(t), nil)
	if err != nil {
		t.Fatalf("SearchFlight: %v", err)
	}
	want := Flight{Heading: 90, Inclination: 85, RailLength: 5.2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flight mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchID(t *testing.T) {
	t.Parallel()
	got, err := SearchID(openFixture(t), nil)
	if err != nil {
		t.Fatalf("SearchID: %v", err)
	}
	comment, designer := "Two-linecomment", "Launch team"
	want := Identification{
		Comment:    &comment,
		Designer:   &designer,
		Filepath:   fixturePath,
		RocketName: "Calisto",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("id mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchStoredResults(t *testing.T) {
	t.Parallel()
	doc := openFixture(t)
	s, err := LoadSeries(doc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FindBurnout(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := SearchStoredResults(doc, s, b, nil)
	want := StoredResults{
		BurnoutStabilityMargin: ptr(2.5),
		FlightTime:             200,
		GroundHitVelocity:      5,
		LaunchRodVelocity:      25,
		MaxAcceleration:        100,
		MaxAltitude:            3000,
		MaxMach:                0.9,
		MaxStabilityMargin:     ptr(2.6),
		MaxThrust:              ptr(1500),
		MaxVelocity:            300,
		MinStabilityMargin:     ptr(0),
		TimeToApogee:           25,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored results mismatch (-want +got):\n%s", diff)
	}
}

func TestExtremes(t *testing.T) {
	t.Parallel()
	hi, lo := extremes([]float64{nan(), -1, 3, 0.5})
	if *hi != 3 || *lo != 0 {
		t.Errorf("extremes = %v, %v; want 3, 0", *hi, *lo)
	}
	hi, lo = extremes([]float64{nan()})
	if hi != nil || lo != nil {
		t.Errorf("extremes of all-NaN = %v, %v; want nil", hi, lo)
	}
}
