// Package factor implements the configurable factor scoring path: externally
// stored factor configurations evaluated with one of four calculation
// strategies.
package factor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CalculationType selects the strategy used to turn a raw value into points.
type CalculationType string

const (
	CalculationLinear      CalculationType = "linear"
	CalculationThreshold   CalculationType = "threshold"
	CalculationCategorical CalculationType = "categorical"
	CalculationOptimal     CalculationType = "optimal"
)

// Category is the closed set of factor categories for the breakdown report.
type Category string

const (
	CategoryDemographic Category = "demographic"
	CategoryFinancial   Category = "financial"
	CategoryCredit      Category = "credit"
	CategoryEmployment  Category = "employment"
	CategoryGeneral     Category = "general"
)

// Categories lists the closed category set in reporting order.
var Categories = []Category{
	CategoryDemographic,
	CategoryFinancial,
	CategoryCredit,
	CategoryEmployment,
	CategoryGeneral,
}

// Config is one stored scoring factor. MaxPoints may be negative for penalty
// factors. Thresholds is the raw JSON payload whose shape depends on the
// calculation type; OptimalValue/MaxValue live on the record itself and are
// only read by the optimal strategy.
type Config struct {
	Key             string          `json:"key"`
	Name            string          `json:"name"`
	MaxPoints       float64         `json:"maxPoints"`
	Weight          float64         `json:"weight"`
	Category        Category        `json:"category"`
	CalculationType CalculationType `json:"calculationType"`
	Thresholds      string          `json:"thresholds,omitempty"`
	OptimalValue    *float64        `json:"optimalValue,omitempty"`
	MaxValue        *float64        `json:"maxValue,omitempty"`
	Enabled         bool            `json:"enabled"`
}

// JSON Schemas for the per-type thresholds payloads. A payload that fails its
// schema degrades that factor to zero points; it never aborts the pass.
var (
	linearPayloadSchema = gojsonschema.NewStringLoader(`{
		"type": "object",
		"properties": {
			"multiplier": {"type": "number"},
			"cap":        {"type": "number"},
			"penalty":    {"type": "number"},
			"minValue":   {"type": "number"},
			"maxValue":   {"type": "number"}
		},
		"additionalProperties": false
	}`)

	thresholdPayloadSchema = gojsonschema.NewStringLoader(`{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {
			"type": "object",
			"properties": {
				"min":    {"type": "number"},
				"max":    {"type": "number"},
				"points": {"type": "number"}
			},
			"required": ["points"],
			"additionalProperties": false
		}
	}`)

	categoricalPayloadSchema = gojsonschema.NewStringLoader(`{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "number"}
	}`)
)

// linearPayload is the parsed linear thresholds payload.
type linearPayload struct {
	Multiplier *float64 `json:"multiplier"`
	Cap        *float64 `json:"cap"`
	Penalty    *float64 `json:"penalty"`
	MinValue   *float64 `json:"minValue"`
	MaxValue   *float64 `json:"maxValue"`
}

// Band is one named threshold range. Min and Max are inclusive when present.
type Band struct {
	Name   string
	Min    *float64
	Max    *float64
	Points float64
}

// Contains reports whether the value falls inside the band.
func (b Band) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// Validate checks a configuration at write time: known calculation type and a
// thresholds payload that parses for that type. The scorer still degrades
// gracefully at runtime; this is the admin surface's chance to reject bad
// payloads before they are stored.
func (c Config) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("factor key is required")
	}
	if c.Weight < 0 {
		return fmt.Errorf("factor weight must not be negative")
	}

	switch c.CalculationType {
	case CalculationLinear:
		_, err := parseLinearPayload(c.Thresholds)
		return err
	case CalculationThreshold:
		_, err := parseThresholdBands(c.Thresholds)
		return err
	case CalculationCategorical:
		_, err := parseCategoricalPayload(c.Thresholds)
		return err
	case CalculationOptimal:
		if c.OptimalValue == nil {
			return fmt.Errorf("optimal strategy requires optimalValue")
		}
		return nil
	default:
		return fmt.Errorf("unknown calculation type %q", c.CalculationType)
	}
}

func validatePayload(schema gojsonschema.JSONLoader, raw string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("thresholds payload is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("thresholds payload invalid: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func parseLinearPayload(raw string) (linearPayload, error) {
	var payload linearPayload
	if raw == "" {
		return payload, nil
	}
	if err := validatePayload(linearPayloadSchema, raw); err != nil {
		return payload, err
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// parseThresholdBands parses the threshold payload keeping the declared band
// order. Order matters: the first band containing the value wins, so band
// declaration order is the tie-breaker for boundary values. encoding/json
// maps lose key order, so the object is walked token by token.
func parseThresholdBands(raw string) ([]Band, error) {
	if err := validatePayload(thresholdPayloadSchema, raw); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("thresholds payload must be an object")
	}

	var bands []Band
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("thresholds payload has a non-string band name")
		}

		var body struct {
			Min    *float64 `json:"min"`
			Max    *float64 `json:"max"`
			Points float64  `json:"points"`
		}
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		bands = append(bands, Band{
			Name:   name,
			Min:    body.Min,
			Max:    body.Max,
			Points: body.Points,
		})
	}
	return bands, nil
}

func parseCategoricalPayload(raw string) (map[string]float64, error) {
	if err := validatePayload(categoricalPayloadSchema, raw); err != nil {
		return nil, err
	}
	var payload map[string]float64
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
