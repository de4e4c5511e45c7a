package model

import "github.com/shopspring/decimal"

// MatchedPair is a bank record and its processor counterpart whose amounts
// agree within tolerance.
type MatchedPair struct {
	Bank      Transaction
	Processor Transaction
}

// Discrepancy is a same-id pair whose amounts disagree beyond tolerance.
type Discrepancy struct {
	ID              string
	BankAmount      decimal.Decimal
	ProcessorAmount decimal.Decimal
	Difference      decimal.Decimal
}

// MatchResult partitions the union of both feeds by join key. Every bank
// record lands in exactly one of Matched, BankOnly, or Discrepancies; every
// processor record in exactly one of Matched, ProcessorOnly, or
// Discrepancies.
type MatchResult struct {
	Matched       []MatchedPair
	BankOnly      []Transaction
	ProcessorOnly []Transaction
	Discrepancies []Discrepancy
}

// Counts holds the sizes of the four match partitions.
type Counts struct {
	Matched       int
	BankOnly      int
	ProcessorOnly int
	Discrepancies int
}

// Counts returns the partition sizes persisted on a completed reconciliation.
func (r MatchResult) Counts() Counts {
	return Counts{
		Matched:       len(r.Matched),
		BankOnly:      len(r.BankOnly),
		ProcessorOnly: len(r.ProcessorOnly),
		Discrepancies: len(r.Discrepancies),
	}
}
