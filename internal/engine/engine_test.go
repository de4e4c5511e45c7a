package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/engine"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/report"
)

const bankCSV = `transaction_id,date,amount,description,status
A,15/01/2024,$100.00,Coffee,settled
B,15/01/2024,50.00,Lunch,settled
C,16/01/2024,10.00,Taxi,settled
`

const processorJSON = `{
  "transactions": [
    {"id": "A", "amount_cents": 10000, "timestamp": "2024-01-15T10:00:00Z", "status": "successful"},
    {"id": "B", "amount_cents": 5002, "timestamp": "2024-01-15T12:00:00Z", "status": "successful"},
    {"id": "D", "amount_cents": 500, "timestamp": "2024-01-16T09:00:00Z", "status": "processing"}
  ]
}`

func TestEvaluate_Completed(t *testing.T) {
	outcome := engine.New().Evaluate([]byte(bankCSV), []byte(processorJSON))

	assert.Equal(t, model.StatusCompleted, outcome.Status)
	assert.Empty(t, outcome.ErrorMessage)
	assert.Equal(t, model.Counts{Matched: 1, BankOnly: 1, ProcessorOnly: 1, Discrepancies: 1}, outcome.Counts)

	var payload report.Payload
	require.NoError(t, json.Unmarshal(outcome.Report, &payload))
	assert.Equal(t, []string{"C"}, payload.BankOnlyIDs)
	assert.Equal(t, []string{"D"}, payload.ProcessorOnlyIDs)
	require.Len(t, payload.DiscrepancyDetails, 1)
	assert.Equal(t, "B", payload.DiscrepancyDetails[0].TransactionID)
}

func TestEvaluate_BankFormatError(t *testing.T) {
	outcome := engine.New().Evaluate([]byte("id,amount\n\"unbalanced,1.00\n"), []byte(processorJSON))

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "bank file parsing failed")
	assert.Empty(t, outcome.Report)
	assert.Zero(t, outcome.Counts)
}

func TestEvaluate_ProcessorFormatError(t *testing.T) {
	outcome := engine.New().Evaluate([]byte(bankCSV), []byte("{not json"))

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "processor file parsing failed")
}

func TestEvaluate_MissingInputs(t *testing.T) {
	outcome := engine.New().Evaluate(nil, []byte(processorJSON))
	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Equal(t, "bank file parsing failed: no file attached", outcome.ErrorMessage)

	outcome = engine.New().Evaluate([]byte(bankCSV), nil)
	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Equal(t, "processor file parsing failed: no file attached", outcome.ErrorMessage)
}

func TestEvaluate_EmptyFeedsComplete(t *testing.T) {
	// Attached but header-only / empty-array feeds reconcile to zero counts.
	outcome := engine.New().Evaluate(
		[]byte("transaction_id,date,amount,description,status\n"),
		[]byte(`{"transactions": []}`),
	)

	assert.Equal(t, model.StatusCompleted, outcome.Status)
	assert.Equal(t, model.Counts{}, outcome.Counts)
}
