// Package field holds the field metadata registry the scoring engine runs on.
package field

import (
	"encoding/json"
	"math"
)

// Kind is the value kind of a field.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDerived     Kind = "derived"
)

// Membership distinguishes applicant-supplied fields from computed ones.
type Membership string

const (
	MembershipBase    Membership = "base"
	MembershipDerived Membership = "derived"
)

// Definition describes one scoring field. Weight 0 excludes the field from
// the weighted aggregate. Derived fields carry a formula and an ordered
// dependency list.
type Definition struct {
	ID            string     `json:"id"`
	Label         string     `json:"label"`
	Kind          Kind       `json:"kind"`
	Membership    Membership `json:"membership"`
	Weight        float64    `json:"weight"`
	Enabled       bool       `json:"enabled"`
	Min           *float64   `json:"min,omitempty"`
	Max           *float64   `json:"max,omitempty"`
	Optimal       *float64   `json:"optimal,omitempty"`
	Formula       string     `json:"formula,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	DisplayFormat string     `json:"displayFormat,omitempty"`
}

// IsDerived reports whether the field is computed from other fields.
func (d Definition) IsDerived() bool {
	return d.Membership == MembershipDerived || d.Kind == KindDerived
}

// Snapshot is a mapping from field ID to applicant value (number or string).
// It only ever grows during a calculation pass.
type Snapshot map[string]interface{}

// Clone returns a shallow copy so derived values never leak into the input.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Number extracts a finite numeric value for the given field ID. The second
// return is false for missing, nil, non-numeric and non-finite values.
func (s Snapshot) Number(id string) (float64, bool) {
	raw, ok := s[id]
	if !ok || raw == nil {
		return 0, false
	}
	return ToNumber(raw)
}

// String extracts the string form of a value, for categorical lookups.
func (s Snapshot) String(id string) (string, bool) {
	raw, ok := s[id]
	if !ok || raw == nil {
		return "", false
	}
	str, ok := raw.(string)
	return str, ok
}

// ToNumber converts the value shapes that arrive via JSON job variables and
// REST payloads into a finite float64.
func ToNumber(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
