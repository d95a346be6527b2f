package rules

import (
	"fmt"
	"strings"
	"time"

	"devicehub/internal/models"
)

// statisticsClause is the fixed natural-language tail of a statistics
// condition; the concrete limits only exist relative to the baseline.
const statisticsClause = "Statistically defined limits"

// Compile produces the canonical form of a validated rule: condition
// sequence numbers in document order, the logic operator stamped on every
// condition after the first, trimmed values, the derived natural-language
// sentence, and owner/status taken from the calling context rather than
// client input. Compile is a pure transform; r is not modified.
func Compile(r models.Rule, owner string, status models.RuleStatus) models.Rule {
	out := r
	out.Owner = owner
	out.Status = status
	out.Conditions = make([]models.Condition, len(r.Conditions))

	phrases := make([]string, 0, len(r.Conditions))
	for i, c := range r.Conditions {
		c.Sequence = i + 1
		c.Values = trimValues(c.Values)
		if i > 0 {
			c.PreviousLogicOperator = r.LogicOperator
		} else {
			c.PreviousLogicOperator = ""
		}
		out.Conditions[i] = c
		phrases = append(phrases, conditionPhrase(&c))
	}

	out.NaturalLanguage = strings.TrimSpace(strings.Join(phrases, " "+r.LogicOperator+" "))
	return out
}

func trimValues(values []models.ConditionValue) []models.ConditionValue {
	out := make([]models.ConditionValue, len(values))
	for i, v := range values {
		out[i] = models.ConditionValue(strings.TrimSpace(string(v)))
	}
	return out
}

// conditionPhrase renders one condition as "<component> <operator>
// <values>", with the type-specific tail clauses.
func conditionPhrase(c *models.Condition) string {
	phrase := fmt.Sprintf("%s %s %s", c.Component.Name, c.Operator, joinValues(c))
	switch c.Type {
	case models.ConditionTime:
		if c.TimeLimit != nil {
			phrase += " for the last " + durationPhrase(*c.TimeLimit)
		}
	case models.ConditionStatistics:
		phrase += " " + statisticsClause
	}
	return phrase
}

// joinValues joins a condition's values: " and " for the Between and
// Not-* families, " or " for Equal, the bare first value otherwise.
func joinValues(c *models.Condition) string {
	values := make([]string, len(c.Values))
	for i, v := range c.Values {
		values[i] = string(v)
	}
	switch c.Operator {
	case models.OpBetween, models.OpNotBetween, models.OpNotEqual:
		return strings.Join(values, " and ")
	case models.OpEqual:
		return strings.Join(values, " or ")
	}
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// durationPhrase decomposes a second count into calendar units, omitting
// zero-valued ones: 3700 renders as "1 hours 1 minutes 40 seconds".
func durationPhrase(seconds int64) string {
	units := []struct {
		name string
		secs int64
	}{
		{"years", int64(365 * 24 * time.Hour / time.Second)},
		{"months", int64(30 * 24 * time.Hour / time.Second)},
		{"days", int64(24 * time.Hour / time.Second)},
		{"hours", int64(time.Hour / time.Second)},
		{"minutes", int64(time.Minute / time.Second)},
		{"seconds", 1},
	}

	var parts []string
	rest := seconds
	for _, u := range units {
		if n := rest / u.secs; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, u.name))
			rest -= n * u.secs
		}
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, " ")
}
