package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeKind separates receivable documents from payable ones.
type TradeKind string

const (
	TradeInvoice TradeKind = "INVOICE" // receivable
	TradeBill    TradeKind = "BILL"    // payable
)

// TradeStatus is the settlement state of an invoice or bill.
type TradeStatus string

const (
	TradeDraft         TradeStatus = "DRAFT"
	TradeOpen          TradeStatus = "OPEN"
	TradePartiallyPaid TradeStatus = "PARTIALLY_PAID"
	TradePaid          TradeStatus = "PAID"
	TradeCancelled     TradeStatus = "CANCELLED"
)

// TradeDocument is an invoice or bill produced by the trade modules.
type TradeDocument struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Kind        TradeKind
	Number      string
	PartyID     uuid.UUID
	PartyName   string
	IssueDate   time.Time
	DueDate     time.Time
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
	Status      TradeStatus
}

// AmountDue is the unpaid remainder.
func (d TradeDocument) AmountDue() decimal.Decimal {
	return d.TotalAmount.Sub(d.AmountPaid)
}

// Open reports whether the document still carries an outstanding amount.
func (d TradeDocument) Open() bool {
	if d.Status == TradePaid || d.Status == TradeCancelled || d.Status == TradeDraft {
		return false
	}
	return d.AmountDue().IsPositive()
}

// CashKind classifies cash documents for the cash flow statement.
type CashKind string

const (
	CashCustomerReceipt CashKind = "CUSTOMER_RECEIPT"
	CashOtherReceipt    CashKind = "OTHER_RECEIPT"
	CashVendorPayment   CashKind = "VENDOR_PAYMENT"
	CashPayroll         CashKind = "PAYROLL"
	CashExpenseClaim    CashKind = "EXPENSE_CLAIM"
	CashOtherPayment    CashKind = "OTHER_PAYMENT"
)

// CashKinds lists every cash kind, inflows first.
var CashKinds = []CashKind{
	CashCustomerReceipt, CashOtherReceipt,
	CashVendorPayment, CashPayroll, CashExpenseClaim, CashOtherPayment,
}

// Inflow reports whether the kind brings cash in.
func (k CashKind) Inflow() bool {
	return k == CashCustomerReceipt || k == CashOtherReceipt
}

// Valid reports whether k is a known cash kind.
func (k CashKind) Valid() bool {
	for _, c := range CashKinds {
		if c == k {
			return true
		}
	}
	return false
}

// CashDocument is a settled receipt, payment, payroll run or reimbursed claim.
type CashDocument struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Kind      CashKind
	Number    string
	Date      time.Time
	Amount    decimal.Decimal
	Cancelled bool
}
