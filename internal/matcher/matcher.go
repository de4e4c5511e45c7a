// Package matcher classifies two canonical record sequences by join key and
// amount tolerance. It is pure: no side effects, deterministic for a given
// input.
package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Tolerance is the maximum absolute amount difference still considered a
// match: one cent, to absorb rounding between the two feeds. The comparison
// is inclusive, so a difference of exactly one cent matches.
var Tolerance = decimal.New(1, -2)

// Match partitions both feeds into matched pairs, one-sided records, and
// discrepancies. Classification reads only ID and Amount.
//
// Duplicate ids within the processor feed resolve last-write-wins: the last
// record seen for an id is the one a bank record can pair with, and earlier
// duplicates are dropped.
func Match(bank, processor []model.Transaction) model.MatchResult {
	result := model.MatchResult{
		Matched:       make([]model.MatchedPair, 0),
		BankOnly:      make([]model.Transaction, 0),
		ProcessorOnly: make([]model.Transaction, 0),
		Discrepancies: make([]model.Discrepancy, 0),
	}

	byID := make(map[string]int, len(processor))
	for i, tx := range processor {
		byID[tx.ID] = i
	}

	for _, bankTx := range bank {
		i, ok := byID[bankTx.ID]
		if !ok {
			result.BankOnly = append(result.BankOnly, bankTx)
			continue
		}
		delete(byID, bankTx.ID)

		procTx := processor[i]
		diff := bankTx.Amount.Sub(procTx.Amount).Abs()
		if diff.LessThanOrEqual(Tolerance) {
			result.Matched = append(result.Matched, model.MatchedPair{Bank: bankTx, Processor: procTx})
		} else {
			result.Discrepancies = append(result.Discrepancies, model.Discrepancy{
				ID:              bankTx.ID,
				BankAmount:      bankTx.Amount,
				ProcessorAmount: procTx.Amount,
				Difference:      diff,
			})
		}
	}

	// Whatever the bank scan did not claim is processor-only, in feed order.
	for i, procTx := range processor {
		if j, ok := byID[procTx.ID]; ok && j == i {
			result.ProcessorOnly = append(result.ProcessorOnly, procTx)
		}
	}

	return result
}
