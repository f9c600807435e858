package params

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/skiffworks/skiff/typemap"
)

// validate is shared across all checks; validator instances are safe for
// concurrent use.
var validate = validator.New()

// ValueSource supplies raw request values by location and wire name.
type ValueSource interface {
	Value(location Location, wireName string) (string, bool)
}

// MapSource is a map-backed ValueSource, mainly for tests.
type MapSource map[Location]map[string]string

// Value implements ValueSource.
func (m MapSource) Value(location Location, wireName string) (string, bool) {
	values, ok := m[location]
	if !ok {
		return "", false
	}
	v, ok := values[wireName]
	return v, ok
}

// Check validates request values against the merged constraint table.
// For each parameter the existence check runs first, then constraint checks;
// the first violation is reported. Check performs no allocation-heavy work;
// everything expensive was precomputed at merge time.
func (t *ResolvedTable) Check(source ValueSource) error {
	for i := range t.params {
		p := &t.params[i]
		raw, ok := source.Value(p.Location, p.WireName)
		if !ok {
			if p.Required {
				return &MissingParameterError{WireName: p.WireName, Location: p.Location}
			}
			continue
		}
		if _, err := p.checkValue(raw); err != nil {
			return err
		}
	}
	return nil
}

// Resolve checks and coerces request values into a map keyed by semantic
// parameter name, applying defaults for absent optional parameters.
func (t *ResolvedTable) Resolve(source ValueSource) (map[string]any, error) {
	out := make(map[string]any, len(t.params))
	for i := range t.params {
		p := &t.params[i]
		raw, ok := source.Value(p.Location, p.WireName)
		if !ok {
			if p.Required {
				return nil, &MissingParameterError{WireName: p.WireName, Location: p.Location}
			}
			if p.HasDefault {
				out[p.Name] = p.Default
			} else if p.DefaultFactory != nil {
				out[p.Name] = p.DefaultFactory()
			}
			continue
		}
		value, err := p.checkValue(raw)
		if err != nil {
			return nil, err
		}
		out[p.Name] = value
	}
	return out, nil
}

// checkValue coerces a raw value to the parameter's kind and applies the
// constraint set. Returns the coerced value or the first violation.
func (p *ResolvedParameter) checkValue(raw string) (any, error) {
	switch p.kind {
	case typemap.KindInt:
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, p.violation("type", raw)
		}
		return parsed, p.checkNumeric(float64(parsed), parsed, raw)
	case typemap.KindFloat:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, p.violation("type", raw)
		}
		return parsed, p.checkNumeric(parsed, parsed, raw)
	case typemap.KindBool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, p.violation("type", raw)
		}
		return parsed, nil
	case typemap.KindUUID:
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, p.violation("uuid", raw)
		}
		return parsed, nil
	case typemap.KindTime:
		parsed, err := parseTime(raw)
		if err != nil {
			return nil, p.violation("datetime", raw)
		}
		return parsed, nil
	default:
		return raw, p.checkString(raw)
	}
}

func (p *ResolvedParameter) checkNumeric(value float64, typed any, raw string) error {
	if p.tag != "" {
		if err := validate.Var(typed, p.tag); err != nil {
			return p.violationFromValidator(err, raw)
		}
	}
	if p.Constraints.MultipleOf != nil {
		multiple := *p.Constraints.MultipleOf
		if multiple != 0 && math.Abs(math.Mod(value, multiple)) > 1e-9 {
			return p.violation("multipleOf", raw)
		}
	}
	return nil
}

func (p *ResolvedParameter) checkString(raw string) error {
	if p.pattern != nil && !p.pattern.MatchString(raw) {
		return p.violation("pattern", raw)
	}
	if p.tag != "" {
		if err := validate.Var(raw, p.tag); err != nil {
			return p.violationFromValidator(err, raw)
		}
	}
	return nil
}

func (p *ResolvedParameter) violation(constraint, raw string) error {
	return &ValidationError{Name: p.Name, WireName: p.WireName, Constraint: constraint, Value: raw}
}

func (p *ResolvedParameter) violationFromValidator(err error, raw string) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return p.violation(verrs[0].Tag(), raw)
	}
	return p.violation("invalid", raw)
}

// buildConstraintTag compiles the declarative constraint set into a
// go-playground/validator tag expression, ordered so the first violated
// constraint reported matches declaration semantics: bounds before
// length before enumeration.
func buildConstraintTag(kind typemap.BaseKind, c Constraints) string {
	var parts []string
	switch kind {
	case typemap.KindInt, typemap.KindFloat:
		if c.Min != nil {
			if c.ExclusiveMin {
				parts = append(parts, fmt.Sprintf("gt=%s", formatNumber(*c.Min)))
			} else {
				parts = append(parts, fmt.Sprintf("gte=%s", formatNumber(*c.Min)))
			}
		}
		if c.Max != nil {
			if c.ExclusiveMax {
				parts = append(parts, fmt.Sprintf("lt=%s", formatNumber(*c.Max)))
			} else {
				parts = append(parts, fmt.Sprintf("lte=%s", formatNumber(*c.Max)))
			}
		}
	default:
		if c.MinLength != nil {
			parts = append(parts, fmt.Sprintf("min=%d", *c.MinLength))
		}
		if c.MaxLength != nil {
			parts = append(parts, fmt.Sprintf("max=%d", *c.MaxLength))
		}
	}
	if len(c.Enum) > 0 {
		parts = append(parts, "oneof="+strings.Join(c.Enum, " "))
	}
	return strings.Join(parts, ",")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseTime(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
