// Package rules implements the monitoring-rule grammar: validation
// against the condition-type/operator/data-type compatibility matrix,
// compilation to a canonical natural-language form, and the rule
// lifecycle store.
package rules

import (
	"strconv"

	"devicehub/internal/errs"
	"devicehub/internal/models"
)

// Operator families of the rule grammar.
var (
	// nonNumericOperators are the only operators usable with
	// string/boolean typed components.
	nonNumericOperators = operatorSet(models.OpEqual, models.OpNotEqual, models.OpLike)

	// numericOperators are the operators usable with Number components.
	numericOperators = operatorSet(
		models.OpGreater, models.OpGreaterEqual, models.OpLess, models.OpLessEqual,
		models.OpEqual, models.OpNotEqual, models.OpBetween, models.OpNotBetween)

	// multiValueOperators may carry more than one value.
	multiValueOperators = operatorSet(
		models.OpEqual, models.OpNotEqual, models.OpLike,
		models.OpBetween, models.OpNotBetween)
)

func operatorSet(ops ...string) map[string]bool {
	m := make(map[string]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

// Validate checks a rule document against the grammar and returns every
// violation found. All checks are independent; nothing short-circuits,
// and a failing rule never produces an error value, only violations.
func Validate(r *models.Rule) []errs.RuleViolation {
	var out []errs.RuleViolation
	add := func(code, msg string) {
		out = append(out, errs.RuleViolation{Code: code, Message: msg})
	}

	if len(r.Population.IDs) == 0 {
		add(errs.CodePopulationRequired, "rule population must reference at least one device")
	}
	if len(r.Conditions) >= 2 && r.LogicOperator == "" {
		add(errs.CodeLogicOperatorRequired, "a logic operator is required when a rule has multiple conditions")
	}

	for i := range r.Conditions {
		out = append(out, validateCondition(&r.Conditions[i])...)
	}
	return out
}

func validateCondition(c *models.Condition) []errs.RuleViolation {
	var out []errs.RuleViolation
	add := func(code, msg string) {
		out = append(out, errs.RuleViolation{Code: code, Message: msg})
	}
	name := c.Component.Name

	if c.Type == models.ConditionTime && c.TimeLimit == nil {
		add(errs.CodeTimeLimitRequired, "time-based condition on "+name+" must define a time limit")
	}

	if c.Type == models.ConditionStatistics {
		out = append(out, validateStatistics(c)...)
	}

	if c.Component.DataType != models.DataTypeNumber {
		if c.Type != models.ConditionBasic && c.Type != models.ConditionTime {
			add(errs.CodeConditionTypeNotAllowed,
				"non-numeric condition on "+name+" must be basic or time-based")
		}
		if !nonNumericOperators[c.Operator] {
			add(errs.CodeOperatorNotAllowed,
				"operator "+c.Operator+" is not usable with non-numeric component "+name)
		}
	} else if !numericOperators[c.Operator] {
		add(errs.CodeOperatorNotAllowed,
			"operator "+c.Operator+" is not usable with numeric component "+name)
	}

	if len(c.Values) > 1 && !multiValueOperators[c.Operator] {
		add(errs.CodeMultipleValuesNotAllowed,
			"operator "+c.Operator+" on "+name+" accepts a single value")
	}
	if (c.Operator == models.OpBetween || c.Operator == models.OpNotBetween) && len(c.Values) != 2 {
		add(errs.CodeTwoValuesExpected,
			"operator "+c.Operator+" on "+name+" requires exactly two values")
	}
	return out
}

// validateStatistics enforces the statistics-condition rules: all three
// baseline fields present, Equal/Not Equal disallowed, and value signs
// consistent with the operator. Statistics limits are signed
// standard-deviation offsets from a baseline average, so an upper-bound
// operator needs a non-negative offset and a lower-bound operator a
// non-positive one. Zero is accepted on either side.
func validateStatistics(c *models.Condition) []errs.RuleViolation {
	var out []errs.RuleViolation
	add := func(code, msg string) {
		out = append(out, errs.RuleViolation{Code: code, Message: msg})
	}
	name := c.Component.Name

	if c.BaselineCalcLevel == nil || c.BaselineSecondsBack == nil || c.BaselineMinInstances == nil {
		add(errs.CodeBaselineFieldsRequired,
			"statistics condition on "+name+" must define calculation level, seconds back and minimal instances")
	}

	switch c.Operator {
	case models.OpEqual, models.OpNotEqual:
		add(errs.CodeStatisticsOperator,
			"operator "+c.Operator+" is not usable with statistics condition on "+name)
	case models.OpGreater, models.OpGreaterEqual:
		if v, ok := numericValue(c, 0); ok && v < 0 {
			add(errs.CodePositiveValueExpected,
				"statistics condition on "+name+" with operator "+c.Operator+" expects a non-negative offset")
		}
	case models.OpLess, models.OpLessEqual:
		if v, ok := numericValue(c, 0); ok && v > 0 {
			add(errs.CodeNegativeValueExpected,
				"statistics condition on "+name+" with operator "+c.Operator+" expects a non-positive offset")
		}
	case models.OpBetween, models.OpNotBetween:
		if v, ok := numericValue(c, 0); ok && v > 0 {
			add(errs.CodeNegativeValueExpected,
				"statistics condition on "+name+" expects a non-positive lower offset")
		}
		if v, ok := numericValue(c, 1); ok && v < 0 {
			add(errs.CodePositiveValueExpected,
				"statistics condition on "+name+" expects a non-negative upper offset")
		}
	}
	return out
}

func numericValue(c *models.Condition, i int) (float64, bool) {
	if i >= len(c.Values) {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(c.Values[i]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidateDevicesHaveComponents runs the storage-backed population check:
// every referenced component exists on some device in the population,
// every device in the population carries at least one component, and
// every device is relevant (it owns at least one component the rule
// references). devices is the resolved population membership.
func ValidateDevicesHaveComponents(r *models.Rule, devices []models.Device) []errs.RuleViolation {
	var out []errs.RuleViolation
	add := func(code, msg string) {
		out = append(out, errs.RuleViolation{Code: code, Message: msg})
	}

	referenced := make(map[string]bool)
	for _, c := range r.Conditions {
		if c.Component.Name != "" {
			referenced[c.Component.Name] = true
		}
	}

	available := make(map[string]bool)
	for _, dev := range devices {
		if len(dev.Components) == 0 {
			add(errs.CodeDeviceWithoutComponents,
				"device "+dev.ID+" in the population has no components")
			continue
		}
		relevant := false
		for _, comp := range dev.Components {
			available[comp.Name] = true
			if referenced[comp.Name] {
				relevant = true
			}
		}
		if !relevant {
			add(errs.CodeDeviceNotReferenced,
				"device "+dev.ID+" carries no component referenced by the rule")
		}
	}

	for name := range referenced {
		if !available[name] {
			add(errs.CodeComponentNotInPopulation,
				"component "+name+" is not present on any device in the population")
		}
	}
	return out
}
