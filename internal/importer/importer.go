// Package importer turns CSV files into vouchers and posts them.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/voucher"
)

// Voucher is a parsed voucher whose ledgers are still referenced by code or
// name.
type Voucher struct {
	Ref       string
	Type      model.VoucherType
	Date      time.Time
	Narration string
	Lines     []Line
}

// Line is one parsed entry.
type Line struct {
	Ledger     string // ledger code or name
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Narration  string
	CostCenter string
	Project    string
}

// Parser converts a CSV file into vouchers.
type Parser interface {
	Parse(r io.Reader) ([]Voucher, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with the native voucher format and a
// bank statement format that books every line against contra.
func DefaultRegistry(bankLedger, contraLedger string) *Registry {
	r := NewRegistry()
	r.Register(&BooksParser{})
	r.Register(&BankParser{BankLedger: bankLedger, ContraLedger: contraLedger})
	return r
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// ChartLoader loads a tenant's chart of accounts.
type ChartLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID) (*accounts.Chart, error)
}

// Poster posts one voucher.
type Poster interface {
	Post(ctx context.Context, in voucher.Input) (model.Voucher, error)
}

// Importer posts parsed vouchers for one tenant.
type Importer struct {
	chart  ChartLoader
	poster Poster
	logger *slog.Logger
}

// New creates an Importer. A nil logger uses slog.Default().
func New(chart ChartLoader, poster Poster, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{chart: chart, poster: poster, logger: logger}
}

// Failure is a voucher that could not be posted.
type Failure struct {
	Ref string
	Err error
}

// Result summarizes an import run.
type Result struct {
	Posted []model.Voucher
	Failed []Failure
}

// Import posts every voucher independently. A voucher that fails to resolve
// or validate is recorded in Failed and the rest still post; only infra
// errors abort the run.
func (im *Importer) Import(ctx context.Context, tenantID uuid.UUID, vouchers []Voucher, actor string) (Result, error) {
	chart, err := im.chart.Load(ctx, tenantID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, pv := range vouchers {
		in, err := resolve(chart, tenantID, pv, actor)
		if err == nil {
			var v model.Voucher
			v, err = im.poster.Post(ctx, in)
			if err == nil {
				res.Posted = append(res.Posted, v)
				continue
			}
		}
		if !errors.Is(err, model.ErrValidation) {
			return res, fmt.Errorf("importing %s: %w", pv.Ref, err)
		}
		im.logger.Warn("import voucher rejected", "ref", pv.Ref, "error", err)
		res.Failed = append(res.Failed, Failure{Ref: pv.Ref, Err: err})
	}
	im.logger.Info("import finished", "tenant", tenantID, "posted", len(res.Posted), "failed", len(res.Failed))
	return res, nil
}

// resolve maps ledger references onto chart IDs, trying the code first.
func resolve(chart *accounts.Chart, tenantID uuid.UUID, pv Voucher, actor string) (voucher.Input, error) {
	in := voucher.Input{
		TenantID:  tenantID,
		Type:      pv.Type,
		Date:      pv.Date,
		Narration: pv.Narration,
		CreatedBy: actor,
	}
	var verrs model.ValidationErrors
	for i, l := range pv.Lines {
		led, ok := chart.LedgerByCode(l.Ledger)
		if !ok {
			led, ok = chart.LedgerByName(l.Ledger)
		}
		if !ok {
			verrs = append(verrs, model.ValidationError{
				Rule:        model.RuleUnknownLedger,
				Ref:         fmt.Sprintf("line %d", i+1),
				Description: fmt.Sprintf("no ledger with code or name %q", l.Ledger),
			})
			continue
		}
		in.Lines = append(in.Lines, voucher.Line{
			LedgerID:   led.ID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			Narration:  l.Narration,
			CostCenter: l.CostCenter,
			Project:    l.Project,
		})
	}
	if len(verrs) > 0 {
		return voucher.Input{}, verrs
	}
	return in, nil
}
