// Package auditlog describes voucher lifecycle events and their CSV export.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// Action names a lifecycle event.
type Action string

const (
	ActionCreate  Action = "create"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionDelete  Action = "delete"
	ActionReverse Action = "reverse"
)

// Entry is one row in the audit trail.
type Entry struct {
	Timestamp     time.Time
	TenantID      uuid.UUID
	Actor         string
	Action        Action
	VoucherID     uuid.UUID
	VoucherNumber string
	From          model.VoucherStatus
	To            model.VoucherStatus
	Details       string
}

// Header is the CSV header for audit exports.
const Header = "timestamp,actor,action,voucher_id,voucher_number,from_status,to_status,details"

const (
	numFields     = 8
	colTimestamp  = 0
	colActor      = 1
	colAction     = 2
	colVoucherID  = 3
	colVoucherNum = 4
	colFrom       = 5
	colTo         = 6
	colDetails    = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = string(e.Action)
	row[colVoucherID] = e.VoucherID.String()
	row[colVoucherNum] = e.VoucherNumber
	row[colFrom] = string(e.From)
	row[colTo] = string(e.To)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry. TenantID is not exported
// and stays zero.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	vid, err := uuid.Parse(record[colVoucherID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing voucher_id %q: %w", record[colVoucherID], err)
	}

	return Entry{
		Timestamp:     ts,
		Actor:         record[colActor],
		Action:        Action(record[colAction]),
		VoucherID:     vid,
		VoucherNumber: record[colVoucherNum],
		From:          model.VoucherStatus(record[colFrom]),
		To:            model.VoucherStatus(record[colTo]),
		Details:       record[colDetails],
	}, nil
}

// Write writes entries as CSV, header included.
func Write(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a CSV export produced by Write.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
