// Package engine evaluates one reconciliation run: parse both feeds, match,
// build the report. It is side-effect free; the pipeline applies the
// returned Outcome to the entity store.
package engine

import (
	"bytes"
	"fmt"

	"github.com/tally-dev/tally/internal/feed"
	"github.com/tally-dev/tally/internal/matcher"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/report"
)

// Outcome is the typed terminal result of one evaluation. Status is always
// completed or failed: parse and report failures are contained here, never
// raised to the caller.
type Outcome struct {
	Status       model.Status
	Counts       model.Counts
	Report       []byte
	ErrorMessage string
}

// Engine evaluates raw feed bytes into an Outcome.
type Engine struct {
	bank      feed.Parser
	processor feed.Parser
}

// New creates an Engine wired with the default feed parsers.
func New() *Engine {
	reg := feed.DefaultRegistry()
	return &Engine{bank: reg.Get("bank"), processor: reg.Get("processor")}
}

// Evaluate runs parse, match, and report over the two raw feeds. A nil
// slice means the file was never attached; empty but attached content is a
// parser concern.
func (e *Engine) Evaluate(bankData, processorData []byte) Outcome {
	if bankData == nil {
		return failure("bank file parsing failed: %v", feed.ErrNoInput)
	}
	if processorData == nil {
		return failure("processor file parsing failed: %v", feed.ErrNoInput)
	}

	bankTxns, err := e.bank.Parse(bytes.NewReader(bankData))
	if err != nil {
		return failure("bank file parsing failed: %v", err)
	}

	processorTxns, err := e.processor.Parse(bytes.NewReader(processorData))
	if err != nil {
		return failure("processor file parsing failed: %v", err)
	}

	result := matcher.Match(bankTxns, processorTxns)

	payload, err := report.Build(result)
	if err != nil {
		return failure("report generation failed: %v", err)
	}

	return Outcome{
		Status: model.StatusCompleted,
		Counts: result.Counts(),
		Report: payload,
	}
}

func failure(format string, args ...any) Outcome {
	return Outcome{
		Status:       model.StatusFailed,
		ErrorMessage: fmt.Sprintf(format, args...),
	}
}
