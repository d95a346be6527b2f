// Package errs defines the closed set of error kinds the alerting and
// actuation core produces: accumulated validation failures, missing
// entities, failed store writes and internal faults. Errors are
// constructed once at the source and propagated unchanged.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes for the rule grammar and command parameters.
const (
	CodePopulationRequired       = "Rule.PopulationRequired"
	CodeLogicOperatorRequired    = "Rule.LogicOperatorRequired"
	CodeTimeLimitRequired        = "Rule.TimeLimitRequired"
	CodeBaselineFieldsRequired   = "Rule.BaselineFieldsRequired"
	CodeStatisticsOperator       = "Rule.StatisticsOperatorNotAllowed"
	CodePositiveValueExpected    = "Rule.PositiveValueExpected"
	CodeNegativeValueExpected    = "Rule.NegativeValueExpected"
	CodeConditionTypeNotAllowed  = "Rule.ConditionTypeNotAllowed"
	CodeOperatorNotAllowed       = "Rule.OperatorNotAllowed"
	CodeMultipleValuesNotAllowed = "Rule.MultipleValuesNotAllowed"
	CodeTwoValuesExpected        = "Rule.TwoValuesExpected"
	CodeInvalidStatus            = "Rule.InvalidStatus"
	CodeAlertInvalidStatus       = "Alert.InvalidStatus"
	CodeComponentNotInPopulation = "Rule.ComponentNotInPopulation"
	CodeDeviceWithoutComponents  = "Rule.DeviceWithoutComponents"
	CodeDeviceNotReferenced      = "Rule.DeviceNotReferenced"
	CodeCommandInvalidValue      = "ComponentCommands.InvalidValue"
)

// Saving error codes.
const (
	CodeSavingNonDraft  = "Rule.SavingNonDraftError"
	CodeRuleSaving      = "Rule.SavingError"
	CodeAlertSaving     = "Alert.SavingError"
	CodeComplexSaving   = "ComplexCommand.SavingError"
	CodeActuationSaving = "Actuation.SavingError"
)

// Not-found error codes by entity.
const (
	CodeRuleNotFound      = "Rule.NotFound"
	CodeAlertNotFound     = "Alert.NotFound"
	CodeComponentNotFound = "ComponentCommands.NotFound"
	CodeComplexNotFound   = "ComplexCommand.NotFound"
	CodeDeviceNotFound    = "Device.NotFound"
)

// RuleViolation is one structured validation failure.
type RuleViolation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries the full accumulated list of violations found
// before any write was attempted.
type ValidationError struct {
	Violations []RuleViolation
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return "validation failed: " + strings.Join(codes, ", ")
}

// NewValidation builds a single-violation ValidationError.
func NewValidation(code, format string, args ...any) *ValidationError {
	return &ValidationError{Violations: []RuleViolation{
		{Code: code, Message: fmt.Sprintf(format, args...)},
	}}
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Code string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", e.Code, e.ID)
}

// NewNotFound builds a NotFoundError for the given entity code and id.
func NewNotFound(code, id string) *NotFoundError {
	return &NotFoundError{Code: code, ID: id}
}

// SavingError signals a failed store write.
type SavingError struct {
	Code string
	Err  error
}

func (e *SavingError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *SavingError) Unwrap() error { return e.Err }

// NewSaving wraps a store write failure under the given code.
func NewSaving(code string, err error) *SavingError {
	return &SavingError{Code: code, Err: err}
}

// InternalError signals an unexpected fault with no user-actionable code.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %v", e.Err) }

func (e *InternalError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
