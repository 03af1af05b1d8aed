// Package budget accumulates token usage across model calls and prices it
// against a per-model table.
package budget

import (
	"sync"

	"github.com/shopspring/decimal"
)

// MaxDecimal stands in for the remaining amount of an unlimited budget.
var MaxDecimal = decimal.New(1, 18)

// Usage holds token counts for a single model call.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:              u.InputTokens + o.InputTokens,
		OutputTokens:             u.OutputTokens + o.OutputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens + o.CacheReadInputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens + o.CacheCreationInputTokens,
	}
}

// Tracker tracks cumulative usage and cost. It is safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	maxBudget  decimal.Decimal // 0 = unlimited
	totalCost  decimal.Decimal
	totalUsage Usage
	pricing    Table
}

// NewTracker creates a tracker. A zero maxBudget means unlimited; a nil
// pricing table selects DefaultPricing.
func NewTracker(maxBudget decimal.Decimal, pricing Table) *Tracker {
	if pricing == nil {
		pricing = DefaultPricing
	}
	return &Tracker{maxBudget: maxBudget, totalCost: decimal.Zero, pricing: pricing}
}

// RecordUsage adds the usage of one call made against model.
func (b *Tracker) RecordUsage(model string, usage Usage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalUsage = b.totalUsage.Add(usage)

	pricing, ok := b.pricing.Lookup(model)
	if !ok {
		return // counted, not priced
	}

	totalInput := usage.InputTokens + usage.CacheReadInputTokens + usage.CacheCreationInputTokens
	inputCost := pricing.CostForInput(usage.InputTokens, usage.CacheReadInputTokens, usage.CacheCreationInputTokens, totalInput)
	outputCost := pricing.CostForOutput(usage.OutputTokens, totalInput)
	b.totalCost = b.totalCost.Add(inputCost).Add(outputCost)
}

// TotalCost returns the cumulative cost.
func (b *Tracker) TotalCost() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalCost
}

// TotalUsage returns the cumulative token usage.
func (b *Tracker) TotalUsage() Usage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalUsage
}

// Remaining returns the unspent budget, or MaxDecimal when unlimited.
func (b *Tracker) Remaining() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxBudget.IsZero() {
		return MaxDecimal
	}
	return b.maxBudget.Sub(b.totalCost)
}

// Exhausted reports whether cost has reached the budget. An unlimited
// budget is never exhausted.
func (b *Tracker) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxBudget.IsZero() {
		return false
	}
	return b.totalCost.GreaterThanOrEqual(b.maxBudget)
}
