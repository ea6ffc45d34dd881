package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PostingFilter selects voucher entries for balance computation. Build it
// once per report and call Validate before querying.
type PostingFilter struct {
	TenantID  uuid.UUID
	From      time.Time // inclusive; zero = from the beginning
	To        time.Time // inclusive; required
	Statuses  []VoucherStatus
	LedgerIDs []uuid.UUID // empty = every ledger
}

// ApprovedOnly returns the statuses eligible for audited figures.
func ApprovedOnly() []VoucherStatus {
	return []VoucherStatus{StatusApproved}
}

// ReportStatuses returns the statuses a report reads; pending vouchers join
// only when asked for. Drafts never contribute.
func ReportStatuses(includeUnapproved bool) []VoucherStatus {
	if includeUnapproved {
		return []VoucherStatus{StatusApproved, StatusPending}
	}
	return ApprovedOnly()
}

// Validate checks the filter is bounded and well-formed.
func (f PostingFilter) Validate() error {
	var errs []error
	if f.TenantID == uuid.Nil {
		errs = append(errs, errors.New("tenant is required"))
	}
	if f.To.IsZero() {
		errs = append(errs, errors.New("an end date is required"))
	}
	if !f.From.IsZero() && !f.To.IsZero() && Day(f.From).After(Day(f.To)) {
		errs = append(errs, errors.New("start date is after end date"))
	}
	if len(f.Statuses) == 0 {
		errs = append(errs, errors.New("at least one status is required"))
	}
	for _, s := range f.Statuses {
		if s == StatusDraft || s == StatusCancelled || s == StatusRejected {
			errs = append(errs, errors.New("only approved or pending vouchers carry balances"))
			break
		}
	}
	return errors.Join(errs...)
}

// TradeFilter selects invoices or bills for aging.
type TradeFilter struct {
	TenantID uuid.UUID
	Kind     TradeKind
	PartyID  uuid.UUID // uuid.Nil = every party
	AsOf     time.Time // documents issued after AsOf are excluded
}

// Validate checks the filter is well-formed.
func (f TradeFilter) Validate() error {
	var errs []error
	if f.TenantID == uuid.Nil {
		errs = append(errs, errors.New("tenant is required"))
	}
	if f.Kind != TradeInvoice && f.Kind != TradeBill {
		errs = append(errs, errors.New("kind must be INVOICE or BILL"))
	}
	if f.AsOf.IsZero() {
		errs = append(errs, errors.New("as-of date is required"))
	}
	return errors.Join(errs...)
}
