package auditlog

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/model"
)

func TestWriteRead(t *testing.T) {
	vid := uuid.New()
	entries := []Entry{
		{
			Timestamp:     time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
			Actor:         "asha",
			Action:        ActionCreate,
			VoucherID:     vid,
			VoucherNumber: "RCT-00001",
			To:            model.StatusPending,
		},
		{
			Timestamp:     time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
			Actor:         "ravi",
			Action:        ActionApprove,
			VoucherID:     vid,
			VoucherNumber: "RCT-00001",
			From:          model.StatusPending,
			To:            model.StatusApproved,
			Details:       "checked, against bank statement",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))
	assert.Contains(t, buf.String(), Header)

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[1].Details, got[1].Details)
	assert.Equal(t, entries[1].From, got[1].From)
	assert.Equal(t, vid, got[0].VoucherID)
	assert.True(t, entries[0].Timestamp.Equal(got[0].Timestamp))
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"x"})
	assert.ErrorContains(t, err, "expected 8 fields")

	_, err = UnmarshalEntry([]string{"yesterday", "a", "create", uuid.NewString(), "", "", "", ""})
	assert.ErrorContains(t, err, "parsing timestamp")

	_, err = UnmarshalEntry([]string{"2025-06-01T00:00:00Z", "a", "create", "nope", "", "", "", ""})
	assert.ErrorContains(t, err, "parsing voucher_id")
}

func TestRead_Empty(t *testing.T) {
	got, err := Read(bytes.NewBufferString(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
