package actuation

import (
	"strconv"
	"strings"
)

// Display hints telling the UI how to render an actuator parameter.
const (
	DisplayRange  = "range"
	DisplayToggle = "toggle"
	DisplayList   = "list"
	DisplayText   = "text"
)

// MatchResult reports whether a candidate value satisfies a parameter
// value spec, and how the parameter should be rendered.
type MatchResult struct {
	Valid   bool
	Display string
}

// Match evaluates candidate against a parameter value spec. The spec
// grammar, in precedence order: a numeric range ("0-10"), an enumerated
// list ("on,off", a toggle when exactly two entries), or a single literal
// value. List and literal comparison is exact and case-sensitive.
//
// A range whose lower bound exceeds its upper bound ("5-3") rejects every
// candidate; such specs are an authoring mistake this core does not
// correct.
func Match(spec, candidate string) MatchResult {
	if min, max, ok := parseRange(spec); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(candidate), 64)
		return MatchResult{
			Valid:   err == nil && v >= min && v <= max,
			Display: DisplayRange,
		}
	}

	if strings.Contains(spec, ",") {
		tokens := strings.Split(spec, ",")
		display := DisplayList
		if len(tokens) == 2 {
			display = DisplayToggle
		}
		for _, t := range tokens {
			if candidate == t {
				return MatchResult{Valid: true, Display: display}
			}
		}
		return MatchResult{Valid: false, Display: display}
	}

	return MatchResult{Valid: candidate == spec, Display: DisplayText}
}

// parseRange splits a spec with exactly one "-" whose sides both parse as
// numbers.
func parseRange(spec string) (min, max float64, ok bool) {
	if strings.Count(spec, "-") != 1 {
		return 0, 0, false
	}
	i := strings.IndexByte(spec, '-')
	min, errMin := strconv.ParseFloat(strings.TrimSpace(spec[:i]), 64)
	max, errMax := strconv.ParseFloat(strings.TrimSpace(spec[i+1:]), 64)
	if errMin != nil || errMax != nil {
		return 0, 0, false
	}
	return min, max, true
}
