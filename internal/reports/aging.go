package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Bucket is a days-overdue range.
type Bucket string

const (
	BucketCurrent Bucket = "Current"
	Bucket1To30   Bucket = "1-30 Days"
	Bucket31To60  Bucket = "31-60 Days"
	Bucket61To90  Bucket = "61-90 Days"
	BucketOver90  Bucket = "90+ Days"
)

// Buckets lists every bucket in ascending age.
var Buckets = []Bucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor classifies a days-overdue count.
func BucketFor(daysOverdue int) Bucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// DaysOverdue is the whole days between due and asOf, never negative.
func DaysOverdue(due, asOf time.Time) int {
	days := int(model.Day(asOf).Sub(model.Day(due)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// AgingParams selects a receivables or payables aging.
type AgingParams struct {
	TenantID uuid.UUID
	Kind     model.TradeKind // INVOICE for receivables, BILL for payables
	AsOf     time.Time
	PartyID  uuid.UUID // uuid.Nil = every party
}

// BucketTotal aggregates one bucket.
type BucketTotal struct {
	Bucket Bucket          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// AgingDocument is one open invoice or bill.
type AgingDocument struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	PartyID     uuid.UUID       `json:"party_id"`
	PartyName   string          `json:"party_name"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	DaysOverdue int             `json:"days_overdue"`
	Bucket      Bucket          `json:"bucket"`
}

// PartyAging is one party's outstanding amounts per bucket.
type PartyAging struct {
	PartyID   uuid.UUID       `json:"party_id"`
	PartyName string          `json:"party_name"`
	Buckets   []BucketTotal   `json:"buckets"`
	Total     decimal.Decimal `json:"total"`
}

// AgingSummary carries the headline figures.
type AgingSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	DocumentCount    int             `json:"document_count"`
	PartyCount       int             `json:"party_count"`
}

// Aging is a receivables or payables aging report.
type Aging struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	Kind      model.TradeKind `json:"kind"`
	AsOf      time.Time       `json:"as_of"`
	Buckets   []BucketTotal   `json:"buckets"`
	Parties   []PartyAging    `json:"parties"`
	Documents []AgingDocument `json:"documents"`
	Summary   AgingSummary    `json:"summary"`
	// IsBalanced reports whether the buckets add up to the outstanding total.
	IsBalanced bool            `json:"is_balanced"`
	Difference decimal.Decimal `json:"difference"`
}

// Aging builds the aging report. Parties sort by total outstanding,
// largest first, then by name.
func (g *Generator) Aging(ctx context.Context, p AgingParams) (*Aging, error) {
	began := time.Now()
	if err := requireDate("as-of", p.AsOf); err != nil {
		return nil, err
	}
	asOf := model.Day(p.AsOf)
	if _, err := g.src.GetTenant(ctx, p.TenantID); err != nil {
		return nil, err
	}

	docs, err := g.src.ListTradeDocuments(ctx, model.TradeFilter{
		TenantID: p.TenantID, Kind: p.Kind, PartyID: p.PartyID, AsOf: asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("loading trade documents: %w", err)
	}

	ag := &Aging{
		TenantID:  p.TenantID,
		Kind:      p.Kind,
		AsOf:      asOf,
		Buckets:   emptyBuckets(),
		Parties:   []PartyAging{},
		Documents: []AgingDocument{},
	}
	total := decimal.Zero
	parties := make(map[uuid.UUID]*PartyAging)
	for _, d := range docs {
		if !d.Open() || model.Day(d.IssueDate).After(asOf) {
			continue
		}
		days := DaysOverdue(d.DueDate, asOf)
		b := BucketFor(days)
		due := d.AmountDue()
		ag.Documents = append(ag.Documents, AgingDocument{
			ID: d.ID, Number: d.Number, PartyID: d.PartyID, PartyName: d.PartyName,
			IssueDate: d.IssueDate, DueDate: d.DueDate, TotalAmount: d.TotalAmount,
			AmountPaid: d.AmountPaid, AmountDue: due, DaysOverdue: days, Bucket: b,
		})
		total = total.Add(due)

		i := bucketIndex(b)
		ag.Buckets[i].Amount = ag.Buckets[i].Amount.Add(due)
		ag.Buckets[i].Count++

		pa, ok := parties[d.PartyID]
		if !ok {
			pa = &PartyAging{PartyID: d.PartyID, PartyName: d.PartyName, Buckets: emptyBuckets(), Total: decimal.Zero}
			parties[d.PartyID] = pa
		}
		pa.Buckets[i].Amount = pa.Buckets[i].Amount.Add(due)
		pa.Buckets[i].Count++
		pa.Total = pa.Total.Add(due)
	}

	for _, pa := range parties {
		ag.Parties = append(ag.Parties, *pa)
	}
	sort.Slice(ag.Parties, func(i, j int) bool {
		a, b := ag.Parties[i], ag.Parties[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		if a.PartyName != b.PartyName {
			return a.PartyName < b.PartyName
		}
		return a.PartyID.String() < b.PartyID.String()
	})

	bucketSum := decimal.Zero
	for _, b := range ag.Buckets {
		bucketSum = bucketSum.Add(b.Amount)
	}
	ag.Summary = AgingSummary{TotalOutstanding: total, DocumentCount: len(ag.Documents), PartyCount: len(ag.Parties)}
	ag.Difference = bucketSum.Sub(total)
	ag.IsBalanced = ag.Difference.IsZero()
	g.observe("aging", ag.IsBalanced, began, ag.Difference)
	return ag, nil
}

func emptyBuckets() []BucketTotal {
	out := make([]BucketTotal, len(Buckets))
	for i, b := range Buckets {
		out[i] = BucketTotal{Bucket: b, Amount: decimal.Zero}
	}
	return out
}

func bucketIndex(b Bucket) int {
	for i, x := range Buckets {
		if x == b {
			return i
		}
	}
	return len(Buckets) - 1
}
