package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

// Column labels of an English OpenRocket simulation export.
const (
	ColTime                 = "Time"
	ColAltitude             = "Altitude"
	ColThrust               = "Thrust"
	ColMass                 = "Mass"
	ColPropellantMass       = "Propellant mass"
	ColMotorMass            = "Motor mass"
	ColCG                   = ork.CGLabel
	ColLongitudinalMoI      = "Longitudinal moment of inertia"
	ColRotationalMoI        = "Rotational moment of inertia"
	ColStabilityCalibers    = "Stability margin calibers"
	ColMach                 = "Mach number"
	ColAxialDragCoefficient = "Axial drag coefficient"
)

// Series is the recorded simulation trace, trimmed to start at ignition.
// Rows keep the document's column order; the first column is time.
type Series struct {
	labels []string
	index  map[string]int
	rows   [][]float64
}

// LoadSeries parses and normalizes the first data branch of doc.
func LoadSeries(doc *ork.Document) (*Series, error) {
	labels := doc.Labels()
	rows, err := ParseDatapoints(doc.Datapoints())
	if err != nil {
		return nil, err
	}
	return NewSeries(labels, rows)
}

// ParseDatapoints converts comma-separated datapoint texts into rows.
// "NaN" is accepted and kept.
func ParseDatapoints(texts []string) ([][]float64, error) {
	rows := make([][]float64, 0, len(texts))
	for i, text := range texts {
		fields := strings.Split(strings.TrimSpace(text), ",")
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("datapoint %d column %d: %w", i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NewSeries trims rows to the ignition window. The window starts at the last
// sample whose time is exactly zero and drops the final sample.
func NewSeries(labels []string, rows [][]float64) (*Series, error) {
	start := 0
	for i, r := range rows {
		if len(r) > 0 && r[0] == 0 {
			start = i
		}
	}
	end := len(rows) - 1
	if end <= start {
		return nil, ErrNoSamples
	}

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; !dup {
			index[l] = i
		}
	}
	return &Series{labels: labels, index: index, rows: rows[start:end]}, nil
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.rows) }

// Labels returns the column labels.
func (s *Series) Labels() []string { return s.labels }

// Has reports whether the trace carries the labelled column.
func (s *Series) Has(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Time returns the time column.
func (s *Series) Time() []float64 {
	return s.column(0)
}

// Column returns a copy of the labelled column.
func (s *Series) Column(label string) ([]float64, error) {
	i, ok := s.index[label]
	if !ok {
		return nil, &MissingColumnError{Label: label}
	}
	return s.column(i), nil
}

func (s *Series) column(i int) []float64 {
	out := make([]float64, len(s.rows))
	for r, row := range s.rows {
		if i < len(row) {
			out[r] = row[i]
		} else {
			out[r] = math.NaN()
		}
	}
	return out
}

// At returns the labelled value at sample i.
func (s *Series) At(label string, i int) (float64, error) {
	col, ok := s.index[label]
	if !ok {
		return 0, &MissingColumnError{Label: label}
	}
	if i < 0 || i >= len(s.rows) {
		return 0, fmt.Errorf("sample %d out of range [0,%d)", i, len(s.rows))
	}
	if col >= len(s.rows[i]) {
		return math.NaN(), nil
	}
	return s.rows[i][col], nil
}
