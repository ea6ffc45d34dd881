package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrApprovedImmutable = errors.New("approved voucher cannot be deleted; post a reversing voucher")
	ErrClosedFiscalYear  = errors.New("fiscal year is closed")
)

// Tolerance is the largest debit/credit difference still treated as balanced.
var Tolerance = decimal.New(1, -2)

// Balanced reports whether two amounts agree within Tolerance.
func Balanced(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// Validation rule names.
const (
	RuleMinEntries     = "min-entries"
	RuleBalanced       = "balanced"
	RuleNonNegative    = "non-negative"
	RuleSingleSide     = "single-side"
	RuleUnknownLedger  = "unknown-ledger"
	RuleInactiveLedger = "inactive-ledger"
	RulePrecision      = "precision"
	RuleFiscalYear     = "fiscal-year"
	RuleVoucherType    = "voucher-type"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        string
	Ref         string
	Description string
}

func (e ValidationError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s: %s", e.Rule, e.Description)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Ref, e.Description)
}

// ValidationErrors collects every violation found in one input.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (errs ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether any violation carries the given rule.
func (errs ValidationErrors) Has(rule string) bool {
	for _, e := range errs {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

// TransitionError reports a rejected lifecycle move.
type TransitionError struct {
	VoucherID uuid.UUID
	From      VoucherStatus
	To        VoucherStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("voucher %s: cannot move from %s to %s", e.VoucherID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotFound wraps ErrNotFound with the kind and key that were looked up.
func NotFound(kind string, key any) error {
	return fmt.Errorf("%s %v: %w", kind, key, ErrNotFound)
}
