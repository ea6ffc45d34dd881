package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherType is the semantic classification of a voucher.
type VoucherType string

const (
	VoucherPayment    VoucherType = "PAYMENT"
	VoucherReceipt    VoucherType = "RECEIPT"
	VoucherContra     VoucherType = "CONTRA"
	VoucherJournal    VoucherType = "JOURNAL"
	VoucherSales      VoucherType = "SALES"
	VoucherPurchase   VoucherType = "PURCHASE"
	VoucherDebitNote  VoucherType = "DEBIT_NOTE"
	VoucherCreditNote VoucherType = "CREDIT_NOTE"
)

// VoucherTypes lists every voucher type.
var VoucherTypes = []VoucherType{
	VoucherPayment, VoucherReceipt, VoucherContra, VoucherJournal,
	VoucherSales, VoucherPurchase, VoucherDebitNote, VoucherCreditNote,
}

// Valid reports whether t is a known voucher type.
func (t VoucherType) Valid() bool {
	for _, v := range VoucherTypes {
		if v == t {
			return true
		}
	}
	return false
}

// VoucherStatus represents the lifecycle state of a voucher.
type VoucherStatus string

const (
	StatusDraft     VoucherStatus = "DRAFT"
	StatusPending   VoucherStatus = "PENDING"
	StatusApproved  VoucherStatus = "APPROVED"
	StatusRejected  VoucherStatus = "REJECTED"
	StatusCancelled VoucherStatus = "CANCELLED"
)

var transitions = map[VoucherStatus][]VoucherStatus{
	StatusDraft:    {StatusPending, StatusCancelled},
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusRejected: {StatusCancelled},
}

// CanTransition reports whether a voucher may move from one status to another.
func CanTransition(from, to VoucherStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Deletable reports whether a voucher in this status may be removed outright.
func (s VoucherStatus) Deletable() bool {
	return s == StatusDraft || s == StatusRejected || s == StatusCancelled
}

// Voucher is an atomic financial transaction.
type Voucher struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Type         VoucherType
	FiscalYearID uuid.UUID
	Number       string
	Date         time.Time
	Narration    string
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	Status       VoucherStatus
	Posted       bool
	CreatedBy    string
	ApprovedBy   string
	ApprovedAt   time.Time
	CreatedAt    time.Time
	Entries      []VoucherEntry
}

// VoucherEntry is one line of a voucher.
type VoucherEntry struct {
	ID         uuid.UUID
	VoucherID  uuid.UUID
	LedgerID   uuid.UUID
	Debit      decimal.Decimal // zero if credit side
	Credit     decimal.Decimal // zero if debit side
	Narration  string
	CostCenter string
	Project    string
	Sequence   int
}

// Totals sums debits and credits across entries.
func Totals(entries []VoucherEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// Posting is a voucher entry joined with the header fields the reports filter on.
type Posting struct {
	LedgerID      uuid.UUID
	VoucherID     uuid.UUID
	VoucherNumber string
	VoucherType   VoucherType
	Status        VoucherStatus
	Date          time.Time
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}
