// Package voucher posts balanced vouchers and drives their lifecycle.
package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/metrics"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Service provides business logic for vouchers.
type Service struct {
	store    *store.Store
	accounts *accounts.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a voucher Service. A nil logger uses slog.Default().
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		accounts: accounts.NewService(st),
		logger:   logger,
		now:      time.Now,
	}
}

// Line is one requested voucher entry.
type Line struct {
	LedgerID   uuid.UUID
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Narration  string
	CostCenter string
	Project    string
}

// Input holds parameters for creating a voucher.
type Input struct {
	TenantID  uuid.UUID
	Type      model.VoucherType
	Date      time.Time
	Narration string
	CreatedBy string
	Lines     []Line
}

// Post validates and persists a voucher as PENDING. Validation, number
// issuance and the header+entries insert form one unit of work.
func (s *Service) Post(ctx context.Context, in Input) (model.Voucher, error) {
	return s.create(ctx, in, model.StatusPending, nil)
}

// SaveDraft persists a DRAFT voucher. Lines are checked individually but
// the voucher need not balance yet.
func (s *Service) SaveDraft(ctx context.Context, in Input) (model.Voucher, error) {
	return s.create(ctx, in, model.StatusDraft, nil)
}

func (s *Service) create(ctx context.Context, in Input, status model.VoucherStatus, within func(*store.Tx, model.Voucher) error) (model.Voucher, error) {
	chart, err := s.accounts.Load(ctx, in.TenantID)
	if err != nil {
		return model.Voucher{}, err
	}

	v := s.build(in, status)

	var verrs model.ValidationErrors
	if !v.Type.Valid() {
		verrs = append(verrs, model.ValidationError{
			Rule:        model.RuleVoucherType,
			Description: fmt.Sprintf("unknown voucher type %q", v.Type),
		})
	}
	if status == model.StatusDraft {
		verrs = append(verrs, validateLines(v.Entries, chart)...)
	} else {
		verrs = append(verrs, ValidateEntries(v.Entries, chart)...)
	}

	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		// The fiscal year is read in the same transaction as the insert so
		// a concurrent close cannot land in between.
		fy, err := tx.FiscalYearFor(ctx, v.TenantID, v.Date)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		verrs = append(verrs, validateFiscalYear(fy, err == nil, v)...)
		if len(verrs) > 0 {
			return verrs
		}
		v.FiscalYearID = fy.ID

		n, err := tx.NextNumber(ctx, v.TenantID, string(v.Type))
		if err != nil {
			return err
		}
		v.Number = id.FormatNumber(string(v.Type), n)

		if err := tx.InsertVoucher(ctx, v); err != nil {
			return err
		}
		if err := tx.InsertAudit(ctx, s.audit(v, in.CreatedBy, auditlog.ActionCreate, "", v.Status, "")); err != nil {
			return err
		}
		if within != nil {
			return within(tx, v)
		}
		return nil
	})
	if errors.As(err, &verrs) {
		s.rejectInput(v, verrs)
		return model.Voucher{}, verrs
	}
	if err != nil {
		return model.Voucher{}, fmt.Errorf("posting %s voucher: %w", v.Type, err)
	}

	metrics.VouchersPosted.WithLabelValues(string(v.Type)).Inc()
	s.logger.Info("voucher created",
		"tenant", v.TenantID, "number", v.Number, "type", v.Type,
		"status", v.Status, "amount", v.TotalDebit.StringFixed(2))
	return v, nil
}

func (s *Service) build(in Input, status model.VoucherStatus) model.Voucher {
	v := model.Voucher{
		ID:        uuid.New(),
		TenantID:  in.TenantID,
		Type:      in.Type,
		Date:      model.Day(in.Date),
		Narration: in.Narration,
		Status:    status,
		CreatedBy: in.CreatedBy,
		CreatedAt: s.now().UTC(),
	}
	for i, l := range in.Lines {
		v.Entries = append(v.Entries, model.VoucherEntry{
			ID:         uuid.New(),
			VoucherID:  v.ID,
			LedgerID:   l.LedgerID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			Narration:  l.Narration,
			CostCenter: l.CostCenter,
			Project:    l.Project,
			Sequence:   i + 1,
		})
	}
	v.TotalDebit, v.TotalCredit = model.Totals(v.Entries)
	return v
}

func (s *Service) rejectInput(v model.Voucher, verrs model.ValidationErrors) {
	for _, ve := range verrs {
		metrics.ValidationFailures.WithLabelValues(ve.Rule).Inc()
	}
	s.logger.Warn("voucher rejected",
		"tenant", v.TenantID, "type", v.Type, "date", v.Date.Format("2006-01-02"), "error", verrs.Error())
}

// Submit moves a DRAFT voucher to PENDING after full validation.
func (s *Service) Submit(ctx context.Context, tenantID, voucherID uuid.UUID, actor string) (model.Voucher, error) {
	chart, err := s.accounts.Load(ctx, tenantID)
	if err != nil {
		return model.Voucher{}, err
	}
	return s.transition(ctx, tenantID, voucherID, model.StatusPending, actor, auditlog.ActionSubmit,
		func(tx *store.Tx, v *model.Voucher) error {
			verrs := ValidateEntries(v.Entries, chart)
			fy, err := tx.GetFiscalYear(ctx, tenantID, v.FiscalYearID)
			if err != nil && !errors.Is(err, model.ErrNotFound) {
				return err
			}
			verrs = append(verrs, validateFiscalYear(fy, err == nil, *v)...)
			if len(verrs) > 0 {
				s.rejectInput(*v, verrs)
				return verrs
			}
			return nil
		})
}

// Approve moves a PENDING voucher to APPROVED and records the approver.
// Only approved vouchers carry balances by default.
func (s *Service) Approve(ctx context.Context, tenantID, voucherID uuid.UUID, approver string) (model.Voucher, error) {
	return s.transition(ctx, tenantID, voucherID, model.StatusApproved, approver, auditlog.ActionApprove,
		func(tx *store.Tx, v *model.Voucher) error {
			fy, err := tx.GetFiscalYear(ctx, tenantID, v.FiscalYearID)
			if err != nil {
				return err
			}
			if fy.Closed {
				return fmt.Errorf("voucher %s: %w", v.Number, model.ErrClosedFiscalYear)
			}
			v.Posted = true
			v.ApprovedBy = approver
			v.ApprovedAt = s.now().UTC()
			return nil
		})
}

// Reject moves a PENDING voucher to REJECTED. The reviewer is kept in the
// approval fields.
func (s *Service) Reject(ctx context.Context, tenantID, voucherID uuid.UUID, reviewer string) (model.Voucher, error) {
	return s.transition(ctx, tenantID, voucherID, model.StatusRejected, reviewer, auditlog.ActionReject,
		func(_ *store.Tx, v *model.Voucher) error {
			v.ApprovedBy = reviewer
			v.ApprovedAt = s.now().UTC()
			return nil
		})
}

// Cancel moves a DRAFT, PENDING or REJECTED voucher to CANCELLED. Approved
// vouchers must be reversed instead.
func (s *Service) Cancel(ctx context.Context, tenantID, voucherID uuid.UUID, actor string) (model.Voucher, error) {
	return s.transition(ctx, tenantID, voucherID, model.StatusCancelled, actor, auditlog.ActionCancel, nil)
}

func (s *Service) transition(ctx context.Context, tenantID, voucherID uuid.UUID, to model.VoucherStatus, actor string,
	action auditlog.Action, apply func(*store.Tx, *model.Voucher) error) (model.Voucher, error) {
	var out model.Voucher
	var from model.VoucherStatus
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		v, err := tx.GetVoucher(ctx, tenantID, voucherID)
		if err != nil {
			return err
		}
		from = v.Status
		if !model.CanTransition(from, to) {
			return &model.TransitionError{VoucherID: v.ID, From: from, To: to}
		}
		if apply != nil {
			if err := apply(tx, &v); err != nil {
				return err
			}
		}
		v.Status = to
		if err := tx.UpdateVoucherStatus(ctx, v); err != nil {
			return err
		}
		if err := tx.InsertAudit(ctx, s.audit(v, actor, action, from, to, "")); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return model.Voucher{}, err
	}

	metrics.VoucherTransitions.WithLabelValues(string(to)).Inc()
	s.logger.Info("voucher transition",
		"tenant", tenantID, "number", out.Number, "from", from, "to", to, "actor", actor)
	return out, nil
}

// Delete removes a DRAFT, REJECTED or CANCELLED voucher. Deleting an
// APPROVED voucher returns model.ErrApprovedImmutable; PENDING vouchers
// must be cancelled first.
func (s *Service) Delete(ctx context.Context, tenantID, voucherID uuid.UUID, actor string) error {
	var number string
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		v, err := tx.GetVoucher(ctx, tenantID, voucherID)
		if err != nil {
			return err
		}
		number = v.Number
		if v.Status == model.StatusApproved {
			return fmt.Errorf("voucher %s: %w", v.Number, model.ErrApprovedImmutable)
		}
		if !v.Status.Deletable() {
			return &model.TransitionError{VoucherID: v.ID, From: v.Status, To: "DELETED"}
		}
		if err := tx.InsertAudit(ctx, s.audit(v, actor, auditlog.ActionDelete, v.Status, "", "")); err != nil {
			return err
		}
		return tx.DeleteVoucher(ctx, tenantID, voucherID)
	})
	if err != nil {
		if errors.Is(err, model.ErrApprovedImmutable) {
			s.logger.Error("attempt to delete approved voucher", "tenant", tenantID, "voucher", voucherID, "actor", actor)
		}
		return err
	}
	s.logger.Info("voucher deleted", "tenant", tenantID, "number", number, "actor", actor)
	return nil
}

// Reverse posts a PENDING journal voucher that swaps every debit and credit
// of an APPROVED voucher. A zero date reuses the original date.
func (s *Service) Reverse(ctx context.Context, tenantID, voucherID uuid.UUID, actor string, date time.Time) (model.Voucher, error) {
	orig, err := s.store.GetVoucher(ctx, tenantID, voucherID)
	if err != nil {
		return model.Voucher{}, err
	}
	if orig.Status != model.StatusApproved {
		return model.Voucher{}, fmt.Errorf("voucher %s is %s; only approved vouchers are reversed: %w",
			orig.Number, orig.Status, model.ErrInvalidTransition)
	}
	if date.IsZero() {
		date = orig.Date
	}

	in := Input{
		TenantID:  tenantID,
		Type:      model.VoucherJournal,
		Date:      date,
		Narration: "Reversal of " + orig.Number,
		CreatedBy: actor,
	}
	for _, e := range orig.Entries {
		in.Lines = append(in.Lines, Line{
			LedgerID:   e.LedgerID,
			Debit:      e.Credit,
			Credit:     e.Debit,
			Narration:  e.Narration,
			CostCenter: e.CostCenter,
			Project:    e.Project,
		})
	}

	return s.create(ctx, in, model.StatusPending, func(tx *store.Tx, rev model.Voucher) error {
		return tx.InsertAudit(ctx, s.audit(orig, actor, auditlog.ActionReverse, orig.Status, orig.Status, "reversed by "+rev.Number))
	})
}

// Get returns a voucher with its entries.
func (s *Service) Get(ctx context.Context, tenantID, voucherID uuid.UUID) (model.Voucher, error) {
	return s.store.GetVoucher(ctx, tenantID, voucherID)
}

// Find returns a voucher by type and number.
func (s *Service) Find(ctx context.Context, tenantID uuid.UUID, vt model.VoucherType, number string) (model.Voucher, error) {
	return s.store.FindVoucher(ctx, tenantID, vt, number)
}

// List returns voucher headers dated within [from, to].
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.Voucher, error) {
	return s.store.ListVouchers(ctx, tenantID, from, to)
}

func (s *Service) audit(v model.Voucher, actor string, action auditlog.Action, from, to model.VoucherStatus, details string) auditlog.Entry {
	return auditlog.Entry{
		Timestamp:     s.now().UTC(),
		TenantID:      v.TenantID,
		Actor:         actor,
		Action:        action,
		VoucherID:     v.ID,
		VoucherNumber: v.Number,
		From:          from,
		To:            to,
		Details:       details,
	}
}
