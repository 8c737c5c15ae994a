// Package capability holds the per-category rulebook of settable attributes:
// their types and ranges, how requested values are validated, and how a
// validated change is applied to a device.
package capability

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"smart-home-assistant/internal/domain"
)

type ParamKind int

const (
	KindIntRange ParamKind = iota
	KindEnum
	KindBool
)

// Param describes one settable attribute.
type Param struct {
	Name   string
	Kind   ParamKind
	Min    int
	Max    int
	Values []string
	Unit   string
}

// Allowed renders the accepted values for messages and prompts.
func (p Param) Allowed() string {
	switch p.Kind {
	case KindIntRange:
		return fmt.Sprintf("%d-%d%s", p.Min, p.Max, p.Unit)
	case KindEnum:
		return strings.Join(p.Values, ", ")
	default:
		return "true, false"
	}
}

// Validated holds canonical parameter values: int for ranges, lower-case
// string for enums, bool for flags.
type Validated map[string]any

type rules struct {
	params []Param
	index  map[string]Param
}

type Schema struct {
	categories map[domain.Category]rules
	aliases    map[string]string
}

var powerParam = Param{Name: "power", Kind: KindBool}

// New returns the schema for lamps, air conditioners and televisions.
func New() *Schema {
	s := &Schema{
		categories: make(map[domain.Category]rules),
		aliases: map[string]string{
			"input":  "input_source",
			"source": "input_source",
			"fan":    "fan_speed",
			"speed":  "fan_speed",
			"temp":   "temperature",
			"level":  "brightness",
			"colour": "color",
		},
	}

	s.register(domain.CategoryLamp,
		Param{Name: "brightness", Kind: KindIntRange, Min: 0, Max: 100, Unit: "%"},
		Param{Name: "color", Kind: KindEnum, Values: enumValues(domain.Colors)},
	)
	s.register(domain.CategoryAirConditioner,
		Param{Name: "temperature", Kind: KindIntRange, Min: 16, Max: 30, Unit: "°C"},
		Param{Name: "mode", Kind: KindEnum, Values: enumValues(domain.ACModes)},
		Param{Name: "fan_speed", Kind: KindEnum, Values: enumValues(domain.FanSpeeds)},
	)
	s.register(domain.CategoryTelevision,
		Param{Name: "channel", Kind: KindIntRange, Min: 1, Max: 999},
		Param{Name: "volume", Kind: KindIntRange, Min: 0, Max: 100},
		Param{Name: "input_source", Kind: KindEnum, Values: enumValues(domain.InputSources)},
	)

	return s
}

func (s *Schema) register(category domain.Category, params ...Param) {
	r := rules{index: make(map[string]Param, len(params)+1)}
	r.params = append(r.params, params...)
	for _, p := range params {
		r.index[p.Name] = p
	}
	r.index[powerParam.Name] = powerParam
	s.categories[category] = r
}

// Params returns the settable attributes of a category in display order.
func (s *Schema) Params(category domain.Category) []Param {
	r, ok := s.categories[category]
	if !ok {
		return nil
	}
	out := make([]Param, len(r.params))
	copy(out, r.params)
	return out
}

// Lookup finds an attribute by name or alias.
func (s *Schema) Lookup(category domain.Category, name string) (Param, bool) {
	r, ok := s.categories[category]
	if !ok {
		return Param{}, false
	}
	p, ok := r.index[s.canonicalName(name)]
	return p, ok
}

// Describe renders a category's capabilities for the LLM prompt.
func (s *Schema) Describe(category domain.Category) string {
	parts := []string{"on/off"}
	for _, p := range s.Params(category) {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Allowed()))
	}
	return strings.Join(parts, ", ")
}

// Validate checks the parameters of an action against a category's rules.
// Out-of-range numbers and unknown enum values are rejected, never clamped.
func (s *Schema) Validate(category domain.Category, action domain.ActionKind, params map[string]any) (Validated, error) {
	r, ok := s.categories[category]
	if !ok {
		return nil, &domain.ValidationError{Field: "category", Reason: domain.ReasonUnsupported, Value: category}
	}

	switch action {
	case domain.ActionPowerOn, domain.ActionPowerOff, domain.ActionToggle,
		domain.ActionStatus, domain.ActionTime:
	case domain.ActionSetAttribute:
		if len(params) == 0 {
			return nil, &domain.ValidationError{Field: "parameters", Reason: domain.ReasonMissing}
		}
	default:
		return nil, &domain.ValidationError{Field: "action", Reason: domain.ReasonUnsupported, Value: action}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Validated, len(params))
	for _, name := range names {
		raw := params[name]
		p, ok := r.index[s.canonicalName(name)]
		if !ok {
			return nil, &domain.ValidationError{
				Field:   name,
				Reason:  domain.ReasonUnsupported,
				Allowed: s.Describe(category),
			}
		}
		v, err := p.check(raw)
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func (s *Schema) canonicalName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	if alias, ok := s.aliases[key]; ok {
		return alias
	}
	return key
}

func (p Param) check(raw any) (any, error) {
	switch p.Kind {
	case KindIntRange:
		n, ok := toInt(raw)
		if !ok {
			return nil, &domain.ValidationError{Field: p.Name, Reason: domain.ReasonInvalidType, Value: raw, Allowed: p.Allowed()}
		}
		if n < p.Min || n > p.Max {
			return nil, &domain.ValidationError{Field: p.Name, Reason: domain.ReasonOutOfRange, Value: n, Allowed: p.Allowed()}
		}
		return n, nil

	case KindEnum:
		str, ok := raw.(string)
		if !ok {
			return nil, &domain.ValidationError{Field: p.Name, Reason: domain.ReasonInvalidType, Value: raw, Allowed: p.Allowed()}
		}
		folded := strings.ReplaceAll(cases.Fold().String(strings.TrimSpace(str)), " ", "")
		for _, v := range p.Values {
			if folded == v {
				return v, nil
			}
		}
		return nil, &domain.ValidationError{Field: p.Name, Reason: domain.ReasonUnknownValue, Value: str, Allowed: p.Allowed()}

	default:
		b, ok := toBool(raw)
		if !ok {
			return nil, &domain.ValidationError{Field: p.Name, Reason: domain.ReasonInvalidType, Value: raw, Allowed: p.Allowed()}
		}
		return b, nil
	}
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(s, "%")
		s = strings.TrimSuffix(s, "°C")
		s = strings.TrimSuffix(s, "°")
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	return 0, false
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes":
			return true, true
		case "false", "off", "no":
			return false, true
		}
	}
	return false, false
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
