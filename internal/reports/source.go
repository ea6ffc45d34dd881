// Package reports derives financial statements from posted vouchers.
//
// Generators load a flat snapshot (chart, fiscal years, postings) once per
// call and fold it in memory. Consistency failures are reported on the
// result, never as errors.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/metrics"
	"github.com/cleared-dev/books/internal/model"
)

// Source is the read side the generators need. *store.Store satisfies it.
type Source interface {
	GetTenant(ctx context.Context, id uuid.UUID) (model.Tenant, error)
	ListGroups(ctx context.Context, tenantID uuid.UUID) ([]model.LedgerGroup, error)
	ListLedgers(ctx context.Context, tenantID uuid.UUID) ([]model.Ledger, error)
	ListFiscalYears(ctx context.Context, tenantID uuid.UUID) ([]model.FiscalYear, error)
	ListPostings(ctx context.Context, f model.PostingFilter) ([]model.Posting, error)
	ListTradeDocuments(ctx context.Context, f model.TradeFilter) ([]model.TradeDocument, error)
	ListCashDocuments(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.CashDocument, error)
}

// Generator builds reports from a Source.
type Generator struct {
	src    Source
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator. A nil logger uses slog.Default().
func NewGenerator(src Source, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{src: src, logger: logger, now: time.Now}
}

// snapshot is everything a ledger-based report reads, fetched once.
type snapshot struct {
	chart    *accounts.Chart
	years    []model.FiscalYear
	postings []model.Posting
	byLedger map[uuid.UUID][]model.Posting
	// mismatches counts groups whose nature differs from an ancestor.
	mismatches int
}

// load fetches the chart, fiscal years and every posting up to asOf
// concurrently. Unknown tenants return model.ErrNotFound.
func (g *Generator) load(ctx context.Context, tenantID uuid.UUID, asOf time.Time, includeUnapproved bool) (*snapshot, error) {
	if _, err := g.src.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	var (
		groups   []model.LedgerGroup
		ledgers  []model.Ledger
		years    []model.FiscalYear
		postings []model.Posting
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		groups, err = g.src.ListGroups(ctx, tenantID)
		return err
	})
	eg.Go(func() error {
		var err error
		ledgers, err = g.src.ListLedgers(ctx, tenantID)
		return err
	})
	eg.Go(func() error {
		var err error
		years, err = g.src.ListFiscalYears(ctx, tenantID)
		return err
	})
	eg.Go(func() error {
		var err error
		postings, err = g.src.ListPostings(ctx, model.PostingFilter{
			TenantID: tenantID,
			To:       asOf,
			Statuses: model.ReportStatuses(includeUnapproved),
		})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("loading ledger data: %w", err)
	}

	chart, err := accounts.NewChart(groups, ledgers)
	if err != nil {
		return nil, err
	}
	mismatches := chart.NatureMismatches()
	for _, m := range mismatches {
		g.logger.Warn("group nature differs from ancestor; root nature applies",
			"group", m.Group.Name, "nature", m.Group.Nature, "ancestor", m.Ancestor.Name, "ancestor_nature", m.Ancestor.Nature)
	}

	byLedger := make(map[uuid.UUID][]model.Posting)
	for _, p := range postings {
		byLedger[p.LedgerID] = append(byLedger[p.LedgerID], p)
	}
	return &snapshot{chart: chart, years: years, postings: postings, byLedger: byLedger, mismatches: len(mismatches)}, nil
}

// fiscalYearFor returns the fiscal year containing d.
func (s *snapshot) fiscalYearFor(d time.Time) (model.FiscalYear, bool) {
	for _, fy := range s.years {
		if fy.Contains(d) {
			return fy, true
		}
	}
	return model.FiscalYear{}, false
}

func (s *snapshot) fiscalYear(id uuid.UUID) (model.FiscalYear, bool) {
	for _, fy := range s.years {
		if fy.ID == id {
			return fy, true
		}
	}
	return model.FiscalYear{}, false
}

// nature returns the nature that governs a ledger's sign.
func (s *snapshot) nature(l model.Ledger) model.Nature {
	n, _ := s.chart.Nature(l.ID)
	return n
}

func (g *Generator) observe(report string, balanced bool, start time.Time, diff fmt.Stringer) {
	metrics.ObserveReport(report, balanced, time.Since(start).Seconds())
	if !balanced {
		g.logger.Warn("report out of balance", "report", report, "difference", diff.String())
	}
}

func requireDate(name string, d time.Time) error {
	if d.IsZero() {
		return fmt.Errorf("%s date is required", name)
	}
	return nil
}
