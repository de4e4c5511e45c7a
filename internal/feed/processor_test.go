package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const processorJSON = `{
  "transactions": [
    {"id": "TXN001", "amount_cents": 7500, "timestamp": "2025-01-15T09:30:00Z", "merchant": "Coffee Machines Ltd", "status": "successful"},
    {"id": " TXN002 ", "amount_cents": 125050, "timestamp": "2025-01-16T23:59:59+05:00", "merchant": " Office Rent ", "status": "processing"},
    {"id": "TXN003", "timestamp": "not-a-time", "merchant": "Refund", "status": "REVERSED"}
  ]
}`

func TestProcessorParser_Parse(t *testing.T) {
	p := &ProcessorParser{}
	txns, err := p.Parse(strings.NewReader(processorJSON))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	// Minor units convert exactly, not through floats.
	assert.Equal(t, "TXN001", txns[0].ID)
	assert.Equal(t, "75", txns[0].Amount.String())
	assert.Equal(t, "75.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "completed", txns[0].Status)
	assert.Equal(t, 15, txns[0].Date.Day())

	// Trimming and status translation.
	assert.Equal(t, "TXN002", txns[1].ID)
	assert.Equal(t, "Office Rent", txns[1].Description)
	assert.Equal(t, "pending", txns[1].Status)
	// The +05:00 instant falls on Jan 16 in UTC.
	assert.Equal(t, 16, txns[1].Date.Day())

	// Absent amount is zero; unknown status passes through lower-cased;
	// bad timestamp yields a zero date without dropping the record.
	assert.True(t, txns[2].Amount.IsZero())
	assert.Equal(t, "reversed", txns[2].Status)
	assert.True(t, txns[2].Date.IsZero())
}

func TestProcessorParser_AmountExactness(t *testing.T) {
	p := &ProcessorParser{}
	txns, err := p.Parse(strings.NewReader(`{"transactions":[{"id":"A","amount_cents":7500}]}`))
	require.NoError(t, err)
	assert.True(t, txns[0].Amount.Equal(txns[0].Amount.Round(2)))
	assert.Equal(t, "75.00", txns[0].Amount.StringFixed(2))
}

func TestProcessorParser_MissingArray(t *testing.T) {
	p := &ProcessorParser{}
	txns, err := p.Parse(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestProcessorParser_StatusTable(t *testing.T) {
	cases := map[string]string{
		"successful": "completed",
		"Processing": "pending",
		"ERROR":      "failed",
		"declined":   "declined",
		"":           "",
	}
	p := &ProcessorParser{}
	for in, want := range cases {
		txns, err := p.Parse(strings.NewReader(`{"transactions":[{"id":"A","status":"` + in + `"}]}`))
		require.NoError(t, err)
		assert.Equal(t, want, txns[0].Status, "status %q", in)
	}
}

func TestProcessorParser_MalformedJSON(t *testing.T) {
	p := &ProcessorParser{}
	_, err := p.Parse(strings.NewReader(`{"transactions": [`))
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "JSON", formatErr.Format)
}

func TestProcessorParser_Source(t *testing.T) {
	p := &ProcessorParser{}
	assert.Equal(t, "processor", p.Source())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&BankParser{})
	require.NotNil(t, r.Get("bank"))
	assert.NotNil(t, r.Get("BANK"))
	assert.Nil(t, r.Get("processor"))

	assert.Panics(t, func() { r.Register(&BankParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("bank"))
	assert.NotNil(t, r.Get("processor"))
}
