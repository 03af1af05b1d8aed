package budget

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/shopspring/decimal"
)

// ModelPricing holds per-model token prices in USD per million tokens.
type ModelPricing struct {
	InputPerMTok         decimal.Decimal
	OutputPerMTok        decimal.Decimal
	LongInputPerMTok     decimal.Decimal // premium rate when total input > LongContextThreshold
	LongOutputPerMTok    decimal.Decimal
	CacheWritePerMTok    decimal.Decimal
	CacheReadPerMTok     decimal.Decimal
	LongContextThreshold int // 0 = no long context pricing
}

// Table maps model names to prices.
type Table map[string]ModelPricing

var million = decimal.NewFromInt(1_000_000)

// CostForInput prices the input side of a call. totalInputTokens decides
// whether the long context rate applies.
func (p ModelPricing) CostForInput(inputTokens, cacheReadTokens, cacheWriteTokens, totalInputTokens int) decimal.Decimal {
	rate := p.InputPerMTok
	if p.LongContextThreshold > 0 && totalInputTokens > p.LongContextThreshold {
		rate = p.LongInputPerMTok
	}

	cost := decimal.NewFromInt(int64(inputTokens)).Mul(rate).Div(million)
	cost = cost.Add(decimal.NewFromInt(int64(cacheReadTokens)).Mul(p.CacheReadPerMTok).Div(million))
	cost = cost.Add(decimal.NewFromInt(int64(cacheWriteTokens)).Mul(p.CacheWritePerMTok).Div(million))
	return cost
}

// CostForOutput prices the output side of a call.
func (p ModelPricing) CostForOutput(outputTokens, totalInputTokens int) decimal.Decimal {
	rate := p.OutputPerMTok
	if p.LongContextThreshold > 0 && totalInputTokens > p.LongContextThreshold {
		rate = p.LongOutputPerMTok
	}
	return decimal.NewFromInt(int64(outputTokens)).Mul(rate).Div(million)
}

// Lookup returns the pricing for model. Dated snapshots such as
// "gpt-4o-2024-08-06" fall back to the longest listed prefix.
func (t Table) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t[model]; ok {
		return p, true
	}
	best := ""
	for name := range t {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return ModelPricing{}, false
	}
	return t[best], true
}

// DefaultPricing holds built-in prices for the models the providers default to.
var DefaultPricing = Table{
	string(anthropic.ModelClaudeOpus4_6): {
		InputPerMTok:         decimal.NewFromFloat(5),
		OutputPerMTok:        decimal.NewFromFloat(25),
		LongInputPerMTok:     decimal.NewFromFloat(10),
		LongOutputPerMTok:    decimal.NewFromFloat(37.5),
		CacheWritePerMTok:    decimal.NewFromFloat(6.25),
		CacheReadPerMTok:     decimal.NewFromFloat(0.5),
		LongContextThreshold: 200_000,
	},
	string(anthropic.ModelClaudeSonnet4_5): {
		InputPerMTok:         decimal.NewFromFloat(3),
		OutputPerMTok:        decimal.NewFromFloat(15),
		LongInputPerMTok:     decimal.NewFromFloat(6),
		LongOutputPerMTok:    decimal.NewFromFloat(22.5),
		CacheWritePerMTok:    decimal.NewFromFloat(3.75),
		CacheReadPerMTok:     decimal.NewFromFloat(0.3),
		LongContextThreshold: 200_000,
	},
	string(anthropic.ModelClaudeHaiku4_5): {
		InputPerMTok:      decimal.NewFromFloat(1),
		OutputPerMTok:     decimal.NewFromFloat(5),
		CacheWritePerMTok: decimal.NewFromFloat(1.25),
		CacheReadPerMTok:  decimal.NewFromFloat(0.1),
	},
	string(openai.ChatModelGPT4o): {
		InputPerMTok:     decimal.NewFromFloat(2.5),
		OutputPerMTok:    decimal.NewFromFloat(10),
		CacheReadPerMTok: decimal.NewFromFloat(1.25),
	},
	string(openai.ChatModelGPT4oMini): {
		InputPerMTok:     decimal.NewFromFloat(0.15),
		OutputPerMTok:    decimal.NewFromFloat(0.6),
		CacheReadPerMTok: decimal.NewFromFloat(0.075),
	},
}
