package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// BankParser parses bank statement CSV exports into canonical transactions.
// The header row is required; recognized columns are matched by name,
// case-insensitively and in any order, and unrecognized columns are ignored.
type BankParser struct{}

const bankDateFormat = "02/01/2006"

// bankDateFallbacks are tried when the primary day/month/year format fails.
var bankDateFallbacks = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Source returns the parser name.
func (p *BankParser) Source() string { return "bank" }

// Parse reads a bank CSV and returns canonical transactions in row order.
// Malformed tabular structure (unbalanced quoting, a missing header row)
// aborts the whole parse with a FormatError.
func (p *BankParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &FormatError{Format: "CSV", Err: fmt.Errorf("missing header row")}
	}
	if err != nil {
		return nil, &FormatError{Format: "CSV", Err: err}
	}

	cols := resolveBankColumns(header)

	txns := make([]model.Transaction, 0)
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Format: "CSV", Err: err}
		}

		amount, err := parseBankAmount(cols.field(rec, cols.amount))
		if err != nil {
			return nil, &FormatError{Format: "CSV", Err: fmt.Errorf("row %d: %w", row, err)}
		}

		txns = append(txns, model.Transaction{
			ID:          strings.TrimSpace(cols.field(rec, cols.id)),
			Amount:      amount,
			Date:        parseBankDate(cols.field(rec, cols.date)),
			Description: strings.TrimSpace(cols.field(rec, cols.description)),
			Status:      strings.ToLower(strings.TrimSpace(cols.field(rec, cols.status))),
		})
	}
	return txns, nil
}

// bankColumns maps recognized fields to header positions; -1 means absent.
type bankColumns struct {
	id          int
	date        int
	amount      int
	description int
	status      int
}

func resolveBankColumns(header []string) bankColumns {
	cols := bankColumns{id: -1, date: -1, amount: -1, description: -1, status: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "transaction_id", "transaction id", "id":
			cols.id = i
		case "date":
			cols.date = i
		case "amount":
			cols.amount = i
		case "description":
			cols.description = i
		case "status":
			cols.status = i
		}
	}
	return cols
}

func (c bankColumns) field(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return rec[col]
}

// parseBankAmount strips everything that is not a digit, '.', or '-' before
// parsing, so currency symbols and thousands separators pass through. An
// empty or all-stripped value yields zero, never an error.
func parseBankAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return amount, nil
}

// parseBankDate tries day/month/year first, then the fallback layouts. A
// value no layout accepts yields a zero date rather than an error; the
// record still matches by id and amount.
func parseBankDate(raw string) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}
	}

	if t, err := time.Parse(bankDateFormat, value); err == nil {
		return dateOnly(t)
	}
	for _, layout := range bankDateFallbacks {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t)
		}
	}
	return time.Time{}
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
