package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical record shape both feed parsers produce.
// ID is the join key used for matching. A zero Date means the source value
// was absent or unparseable; matching only looks at ID and Amount, so such
// records still participate.
type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Status      string
}
