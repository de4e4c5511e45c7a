package matcher_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/matcher"
	"github.com/tally-dev/tally/internal/model"
)

func tx(id, amount string) model.Transaction {
	return model.Transaction{ID: id, Amount: decimal.RequireFromString(amount)}
}

func TestMatch_EndToEndScenario(t *testing.T) {
	bank := []model.Transaction{tx("A", "100.00"), tx("B", "50.00"), tx("C", "10.00")}
	processor := []model.Transaction{tx("A", "100.00"), tx("B", "50.02"), tx("D", "5.00")}

	result := matcher.Match(bank, processor)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "A", result.Matched[0].Bank.ID)

	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "B", result.Discrepancies[0].ID)
	assert.Equal(t, "0.02", result.Discrepancies[0].Difference.StringFixed(2))
	assert.Equal(t, "50.00", result.Discrepancies[0].BankAmount.StringFixed(2))
	assert.Equal(t, "50.02", result.Discrepancies[0].ProcessorAmount.StringFixed(2))

	require.Len(t, result.BankOnly, 1)
	assert.Equal(t, "C", result.BankOnly[0].ID)

	require.Len(t, result.ProcessorOnly, 1)
	assert.Equal(t, "D", result.ProcessorOnly[0].ID)

	assert.Equal(t, model.Counts{Matched: 1, BankOnly: 1, ProcessorOnly: 1, Discrepancies: 1}, result.Counts())
}

func TestMatch_ToleranceBoundary(t *testing.T) {
	// A one-cent difference is inclusive: still a match.
	result := matcher.Match(
		[]model.Transaction{tx("A", "10.00")},
		[]model.Transaction{tx("A", "10.01")},
	)
	assert.Len(t, result.Matched, 1)
	assert.Empty(t, result.Discrepancies)

	// Two cents is beyond tolerance.
	result = matcher.Match(
		[]model.Transaction{tx("A", "10.00")},
		[]model.Transaction{tx("A", "10.02")},
	)
	assert.Empty(t, result.Matched)
	assert.Len(t, result.Discrepancies, 1)
}

func TestMatch_ZeroAmounts(t *testing.T) {
	result := matcher.Match(
		[]model.Transaction{tx("A", "0")},
		[]model.Transaction{tx("A", "0.00")},
	)
	assert.Len(t, result.Matched, 1)
}

func TestMatch_DuplicateProcessorIDsLastWins(t *testing.T) {
	bank := []model.Transaction{tx("A", "20.00")}
	processor := []model.Transaction{tx("A", "10.00"), tx("A", "20.00")}

	result := matcher.Match(bank, processor)

	// The bank record pairs with the last duplicate; the earlier one is
	// dropped entirely, not reported as processor-only.
	require.Len(t, result.Matched, 1)
	assert.Equal(t, "20.00", result.Matched[0].Processor.Amount.StringFixed(2))
	assert.Empty(t, result.ProcessorOnly)
	assert.Empty(t, result.Discrepancies)
}

func TestMatch_NullDateStillClassified(t *testing.T) {
	bank := []model.Transaction{{ID: "A", Amount: decimal.RequireFromString("5.00")}}
	processor := []model.Transaction{{ID: "A", Amount: decimal.RequireFromString("5.00"), Description: "Merchant"}}

	result := matcher.Match(bank, processor)
	assert.Len(t, result.Matched, 1)
}

func TestMatch_EmptyFeeds(t *testing.T) {
	result := matcher.Match(nil, nil)
	assert.Empty(t, result.Matched)
	assert.Empty(t, result.BankOnly)
	assert.Empty(t, result.ProcessorOnly)
	assert.Empty(t, result.Discrepancies)
}

func TestMatch_PartitionInvariant(t *testing.T) {
	// Overlapping feeds with agreeing, disagreeing, and one-sided ids.
	var bank, processor []model.Transaction
	for i := 0; i < 20; i++ {
		bank = append(bank, tx(fmt.Sprintf("B%d", i), fmt.Sprintf("%d.00", i)))
	}
	for i := 10; i < 30; i++ {
		amount := fmt.Sprintf("%d.00", i)
		if i%3 == 0 {
			amount = fmt.Sprintf("%d.75", i)
		}
		processor = append(processor, tx(fmt.Sprintf("B%d", i), amount))
	}

	result := matcher.Match(bank, processor)

	seenBank := make(map[string]int)
	for _, pair := range result.Matched {
		seenBank[pair.Bank.ID]++
	}
	for _, rec := range result.BankOnly {
		seenBank[rec.ID]++
	}
	for _, d := range result.Discrepancies {
		seenBank[d.ID]++
	}
	require.Len(t, seenBank, len(bank))
	for id, n := range seenBank {
		assert.Equal(t, 1, n, "bank record %s classified %d times", id, n)
	}

	seenProcessor := make(map[string]int)
	for _, pair := range result.Matched {
		seenProcessor[pair.Processor.ID]++
	}
	for _, rec := range result.ProcessorOnly {
		seenProcessor[rec.ID]++
	}
	for _, d := range result.Discrepancies {
		seenProcessor[d.ID]++
	}
	require.Len(t, seenProcessor, len(processor))
	for id, n := range seenProcessor {
		assert.Equal(t, 1, n, "processor record %s classified %d times", id, n)
	}
}

func TestMatch_ProcessorOnlyKeepsFeedOrder(t *testing.T) {
	processor := []model.Transaction{tx("Z", "1.00"), tx("M", "2.00"), tx("A", "3.00")}
	result := matcher.Match(nil, processor)

	require.Len(t, result.ProcessorOnly, 3)
	assert.Equal(t, "Z", result.ProcessorOnly[0].ID)
	assert.Equal(t, "M", result.ProcessorOnly[1].ID)
	assert.Equal(t, "A", result.ProcessorOnly[2].ID)
}
