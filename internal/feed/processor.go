package feed

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// ProcessorParser parses payment processor JSON exports into canonical
// transactions. Expected shape:
//
//	{"transactions": [{"id", "timestamp", "amount_cents", "merchant", "status"}]}
//
// A missing transactions array yields an empty sequence, not an error.
type ProcessorParser struct{}

// processorStatuses maps processor vocabulary onto the bank feed's status
// domain. Anything else passes through lower-cased.
var processorStatuses = map[string]string{
	"successful": "completed",
	"processing": "pending",
	"error":      "failed",
}

var processorTimestampFallbacks = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type processorFile struct {
	Transactions []processorRecord `json:"transactions"`
}

type processorRecord struct {
	ID          string `json:"id"`
	AmountCents *int64 `json:"amount_cents"`
	Timestamp   string `json:"timestamp"`
	Merchant    string `json:"merchant"`
	Status      string `json:"status"`
}

// Source returns the parser name.
func (p *ProcessorParser) Source() string { return "processor" }

// Parse reads a processor JSON export and returns canonical transactions in
// element order. Malformed JSON aborts with a FormatError.
func (p *ProcessorParser) Parse(r io.Reader) ([]model.Transaction, error) {
	var file processorFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, &FormatError{Format: "JSON", Err: err}
	}

	txns := make([]model.Transaction, 0, len(file.Transactions))
	for _, rec := range file.Transactions {
		txns = append(txns, model.Transaction{
			ID:          strings.TrimSpace(rec.ID),
			Amount:      centsToAmount(rec.AmountCents),
			Date:        parseProcessorTimestamp(rec.Timestamp),
			Description: strings.TrimSpace(rec.Merchant),
			Status:      normalizeProcessorStatus(rec.Status),
		})
	}
	return txns, nil
}

// centsToAmount converts minor units to a decimal amount by shifting the
// exponent, so 7500 becomes exactly 75.00. An absent amount yields zero.
func centsToAmount(cents *int64) decimal.Decimal {
	if cents == nil {
		return decimal.Zero
	}
	return decimal.New(*cents, -2)
}

// parseProcessorTimestamp parses a timezone-aware instant and truncates it
// to a calendar date in UTC. Unparseable timestamps yield a zero date,
// mirroring the bank parser's permissiveness.
func parseProcessorTimestamp(raw string) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return dateOnly(t)
	}
	for _, layout := range processorTimestampFallbacks {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t)
		}
	}
	return time.Time{}
}

func normalizeProcessorStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := processorStatuses[status]; ok {
		return mapped
	}
	return status
}
