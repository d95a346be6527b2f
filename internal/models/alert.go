package models

import "time"

// AlertStatus is the lifecycle status of an alert.
type AlertStatus string

const (
	AlertStatusOpen   AlertStatus = "open"
	AlertStatusClosed AlertStatus = "closed"
)

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	return s == AlertStatusOpen || s == AlertStatusClosed
}

// AlertComment is one append-only note on an alert.
type AlertComment struct {
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertCondition is the denormalized snapshot of one rule condition as it
// stood when the alert was raised.
type AlertCondition struct {
	Sequence   int      `json:"sequence"`
	Condition  string   `json:"condition"`
	Components []string `json:"components,omitempty"`
}

// Alert records one rule trigger occurrence for one device. Alerts are
// created once per trigger event and never deleted.
type Alert struct {
	AccountID        string           `json:"accountId"`
	AlertID          string           `json:"alertId"`
	DeviceID         string           `json:"deviceId"`
	RuleID           string           `json:"ruleId"`
	RuleName         string           `json:"ruleName"`
	Priority         string           `json:"priority"`
	Triggered        time.Time        `json:"triggered"`
	NaturalLangAlert string           `json:"naturalLangAlert"`
	ResetType        ResetType        `json:"resetType"`
	Conditions       []AlertCondition `json:"conditions"`
	Status           AlertStatus      `json:"status"`
	Comments         []AlertComment   `json:"comments,omitempty"`
	Created          time.Time        `json:"created"`
}
