package models

import (
	"encoding/json"
	"strings"
	"time"
)

// RuleStatus is the lifecycle status of a rule.
type RuleStatus string

const (
	RuleStatusDraft    RuleStatus = "draft"
	RuleStatusActive   RuleStatus = "active"
	RuleStatusArchived RuleStatus = "archived"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s RuleStatus) Valid() bool {
	switch s {
	case RuleStatusDraft, RuleStatusActive, RuleStatusArchived:
		return true
	}
	return false
}

// ResetType controls how alerts raised by a rule are cleared.
type ResetType string

const (
	ResetManual    ResetType = "manual"
	ResetAutomatic ResetType = "automatic"
)

// ConditionType classifies one clause of a rule's trigger logic.
type ConditionType string

const (
	ConditionBasic      ConditionType = "basic"
	ConditionTime       ConditionType = "time"
	ConditionStatistics ConditionType = "statistics"
	ConditionAutomatic  ConditionType = "automatic"
)

// Condition operators. Relational operators use their symbol form, the
// rest use the spelled-out form the rule authoring UI sends.
const (
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpEqual        = "Equal"
	OpNotEqual     = "Not Equal"
	OpBetween      = "Between"
	OpNotBetween   = "Not Between"
	OpLike         = "Like"
)

// DataTypeNumber is the component data type that unlocks the relational
// and Between operator families.
const DataTypeNumber = "Number"

// ConditionValue is a condition threshold normalized to text. Numbers and
// booleans sent as raw JSON scalars unmarshal to their literal text form.
type ConditionValue string

func (v *ConditionValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = ConditionValue(s)
		return nil
	}
	*v = ConditionValue(strings.TrimSpace(string(b)))
	return nil
}

// ConditionComponent identifies the device component a condition observes.
type ConditionComponent struct {
	Name      string `json:"name"`
	DataType  string `json:"dataType"`
	CatalogID string `json:"catalogId,omitempty"`
}

// Condition is one clause of a rule's trigger logic. Sequence and
// PreviousLogicOperator are derived by the compiler, never client input.
type Condition struct {
	Sequence              int                `json:"sequence,omitempty"`
	Component             ConditionComponent `json:"component"`
	Type                  ConditionType      `json:"type"`
	Operator              string             `json:"operator"`
	Values                []ConditionValue   `json:"values"`
	TimeLimit             *int64             `json:"timeLimit,omitempty"`
	BaselineCalcLevel     *string            `json:"baselineCalculationLevel,omitempty"`
	BaselineSecondsBack   *int64             `json:"baselineSecondsBack,omitempty"`
	BaselineMinInstances  *int               `json:"baselineMinimalInstances,omitempty"`
	PreviousLogicOperator string             `json:"previousConditionLogicOperator,omitempty"`
}

// ActionActuation triggers device commands; other action kinds (mail,
// http, ...) are carried opaquely and handled by downstream listeners.
const ActionActuation = "actuation"

// Action is one configured reaction of a rule. Messages is populated
// transiently while an alert is being processed and never persisted.
type Action struct {
	Type     string             `json:"type"`
	Target   []string           `json:"target,omitempty"`
	Messages []ActuationMessage `json:"-"`
}

// Population selects the devices a rule watches, either by explicit ids
// or by attribute criteria resolved elsewhere.
type Population struct {
	IDs        []string          `json:"ids,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Rule is a stored specification of device conditions and reactions.
// NaturalLanguage is derived by the compiler on every save.
type Rule struct {
	ExternalID      string      `json:"externalId"`
	AccountID       string      `json:"accountId"`
	Name            string      `json:"name"`
	Priority        string      `json:"priority"`
	Status          RuleStatus  `json:"status"`
	ResetType       ResetType   `json:"resetType"`
	Owner           string      `json:"owner"`
	Population      Population  `json:"population"`
	Conditions      []Condition `json:"conditions"`
	LogicOperator   string      `json:"logicOperator,omitempty"`
	Actions         []Action    `json:"actions"`
	NaturalLanguage string      `json:"naturalLanguage"`
	LastUpdated     time.Time   `json:"lastUpdateDate"`
}
