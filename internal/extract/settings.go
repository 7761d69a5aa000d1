package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Settings is the complete parameter set for one rocket. It is built once per
// extraction and not modified afterwards.
type Settings struct {
	EllipticalFins  Indexed[EllipticalFins]  `json:"elliptical_fins"`
	Environment     Environment              `json:"environment"`
	Flight          Flight                   `json:"flight"`
	ID              Identification           `json:"id"`
	Motors          Motor                    `json:"motors"`
	Nosecones       Optional[NoseCone]       `json:"nosecones"`
	Parachutes      Indexed[Parachute]       `json:"parachutes"`
	RailButtons     Optional[RailButtons]    `json:"rail_buttons"`
	Rocket          Rocket                   `json:"rocket"`
	StoredResults   StoredResults            `json:"stored_results"`
	Tails           Indexed[Tail]            `json:"tails"`
	TrapezoidalFins Indexed[TrapezoidalFins] `json:"trapezoidal_fins"`
}

// TopLevelKeys lists the fixed keys of a serialized Settings record in the
// order they are written.
var TopLevelKeys = []string{
	"elliptical_fins", "environment", "flight", "id", "motors", "nosecones",
	"parachutes", "rail_buttons", "rocket", "stored_results", "tails",
	"trapezoidal_fins",
}

// Indexed holds numbered records. Keys serialize in numeric order, so
// record 10 follows record 9.
type Indexed[V any] map[int]V

// Keys returns the record numbers in ascending order.
func (m Indexed[V]) Keys() []int {
	return slices.Sorted(maps.Keys(m))
}

func (m Indexed[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(k))
		if err := enc.Encode(m[k]); err != nil {
			return nil, fmt.Errorf("record %d: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Optional is a record that may be absent. An absent record serializes as
// an empty object.
type Optional[T any] struct {
	Value *T
}

// Some wraps v; a nil v yields an absent record.
func Some[T any](v *T) Optional[T] {
	return Optional[T]{Value: v}
}

// Present reports whether the record exists.
func (o Optional[T]) Present() bool { return o.Value != nil }

var emptyObject = []byte("{}")

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return emptyObject, nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, emptyObject) || bytes.Equal(trimmed, []byte("null")) {
		o.Value = nil
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	o.Value = v
	return nil
}
