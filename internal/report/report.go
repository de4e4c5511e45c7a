// Package report builds the persisted report payload from a match result.
// The payload is stored verbatim on the reconciliation entity; rendering a
// human-readable document from it is someone else's job.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Summary carries the four partition sizes.
type Summary struct {
	Matched       int `json:"matched"`
	BankOnly      int `json:"bank_only"`
	ProcessorOnly int `json:"processor_only"`
	Discrepancies int `json:"discrepancies"`
}

// DiscrepancyDetail reports one same-id pair whose amounts disagree beyond
// tolerance. Amounts serialize as decimal strings to preserve precision.
type DiscrepancyDetail struct {
	TransactionID   string          `json:"transaction_id"`
	BankAmount      decimal.Decimal `json:"bank_amount"`
	ProcessorAmount decimal.Decimal `json:"processor_amount"`
	Difference      decimal.Decimal `json:"difference"`
}

// Payload is the report's data contract.
type Payload struct {
	Summary            Summary             `json:"summary"`
	DiscrepancyDetails []DiscrepancyDetail `json:"discrepancy_details"`
	BankOnlyIDs        []string            `json:"bank_only_ids"`
	ProcessorOnlyIDs   []string            `json:"processor_only_ids"`
}

// Build serializes a match result into the report payload.
func Build(result model.MatchResult) ([]byte, error) {
	counts := result.Counts()
	payload := Payload{
		Summary: Summary{
			Matched:       counts.Matched,
			BankOnly:      counts.BankOnly,
			ProcessorOnly: counts.ProcessorOnly,
			Discrepancies: counts.Discrepancies,
		},
		DiscrepancyDetails: make([]DiscrepancyDetail, 0, len(result.Discrepancies)),
		BankOnlyIDs:        make([]string, 0, len(result.BankOnly)),
		ProcessorOnlyIDs:   make([]string, 0, len(result.ProcessorOnly)),
	}

	for _, d := range result.Discrepancies {
		payload.DiscrepancyDetails = append(payload.DiscrepancyDetails, DiscrepancyDetail{
			TransactionID:   d.ID,
			BankAmount:      d.BankAmount,
			ProcessorAmount: d.ProcessorAmount,
			Difference:      d.Difference,
		})
	}
	for _, tx := range result.BankOnly {
		payload.BankOnlyIDs = append(payload.BankOnlyIDs, tx.ID)
	}
	for _, tx := range result.ProcessorOnly {
		payload.ProcessorOnlyIDs = append(payload.ProcessorOnlyIDs, tx.ID)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return data, nil
}
