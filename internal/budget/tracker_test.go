package budget

import (
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	opus   = string(anthropic.ModelClaudeOpus4_6)
	sonnet = string(anthropic.ModelClaudeSonnet4_5)
	haiku  = string(anthropic.ModelClaudeHaiku4_5)
)

func TestCostForInput_StandardPricing(t *testing.T) {
	p := DefaultPricing[opus]

	// 1000 input tokens at $5/MTok = $0.005
	cost := p.CostForInput(1000, 0, 0, 1000)
	expected := decimal.NewFromFloat(0.005)
	assert.True(t, expected.Equal(cost), "expected %s, got %s", expected, cost)
}

func TestCostForOutput_LongContext(t *testing.T) {
	p := DefaultPricing[opus]

	// 1000 output at $37.50/MTok = $0.0375
	cost := p.CostForOutput(1000, 250_000)
	expected := decimal.NewFromFloat(0.0375)
	assert.True(t, expected.Equal(cost), "expected %s, got %s", expected, cost)
}

func TestCostForInput_HaikuNoLongContext(t *testing.T) {
	p := DefaultPricing[haiku]

	// 500000 * $1/MTok = $0.50
	cost := p.CostForInput(500_000, 0, 0, 500_000)
	expected := decimal.NewFromFloat(0.5)
	assert.True(t, expected.Equal(cost), "expected %s, got %s", expected, cost)
}

func TestTable_LookupPrefix(t *testing.T) {
	p, ok := DefaultPricing.Lookup("gpt-4o-2024-08-06")
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(2.5).Equal(p.InputPerMTok))

	// gpt-4o-mini must not resolve to gpt-4o
	p, ok = DefaultPricing.Lookup("gpt-4o-mini-2024-07-18")
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(0.15).Equal(p.InputPerMTok))

	_, ok = DefaultPricing.Lookup("llama-3")
	assert.False(t, ok)
}

func TestRecordUsage_StandardOpus(t *testing.T) {
	bt := NewTracker(decimal.Zero, nil)
	bt.RecordUsage(opus, Usage{InputTokens: 1000, OutputTokens: 500})

	// 1000 * $5/MTok + 500 * $25/MTok = $0.0175
	expected := decimal.NewFromFloat(0.0175)
	assert.True(t, expected.Equal(bt.TotalCost()), "expected %s, got %s", expected, bt.TotalCost())
	assert.Equal(t, Usage{InputTokens: 1000, OutputTokens: 500}, bt.TotalUsage())
}

func TestRecordUsage_OpenAI(t *testing.T) {
	bt := NewTracker(decimal.Zero, nil)
	bt.RecordUsage(string(openai.ChatModelGPT4o), Usage{InputTokens: 2000, OutputTokens: 1000})

	// 2000 * $2.50/MTok + 1000 * $10/MTok = $0.015
	expected := decimal.NewFromFloat(0.015)
	assert.True(t, expected.Equal(bt.TotalCost()), "expected %s, got %s", expected, bt.TotalCost())
}

func TestRecordUsage_WithCacheTokens(t *testing.T) {
	bt := NewTracker(decimal.Zero, DefaultPricing)
	bt.RecordUsage(sonnet, Usage{
		InputTokens:              5000,
		OutputTokens:             2000,
		CacheReadInputTokens:     1000,
		CacheCreationInputTokens: 500,
	})

	expected := decimal.NewFromFloat(0.015).
		Add(decimal.NewFromFloat(0.0003)).
		Add(decimal.NewFromFloat(0.001875)).
		Add(decimal.NewFromFloat(0.030))
	assert.True(t, expected.Equal(bt.TotalCost()), "expected %s, got %s", expected, bt.TotalCost())
}

func TestBudgetUnlimited(t *testing.T) {
	bt := NewTracker(decimal.Zero, nil)
	bt.RecordUsage(opus, Usage{InputTokens: 1_000_000, OutputTokens: 500_000})

	assert.False(t, bt.Exhausted())
	assert.True(t, MaxDecimal.Equal(bt.Remaining()))
}

func TestBudgetExhaustion(t *testing.T) {
	bt := NewTracker(decimal.NewFromFloat(0.01), nil)
	assert.False(t, bt.Exhausted())

	bt.RecordUsage(opus, Usage{InputTokens: 1000, OutputTokens: 500})
	assert.True(t, bt.Exhausted())
}

func TestExhaustedExact(t *testing.T) {
	bt := NewTracker(decimal.NewFromFloat(0.005), nil)
	bt.RecordUsage(opus, Usage{InputTokens: 1000})

	assert.True(t, bt.Exhausted())
	assert.True(t, decimal.Zero.Equal(bt.Remaining()))
}

func TestRecordUsage_UnknownModel(t *testing.T) {
	bt := NewTracker(decimal.Zero, nil)
	bt.RecordUsage("unknown-model", Usage{InputTokens: 1000, OutputTokens: 500})

	assert.Equal(t, 1000, bt.TotalUsage().InputTokens)
	assert.True(t, decimal.Zero.Equal(bt.TotalCost()))
}

func TestConcurrentAccess(t *testing.T) {
	bt := NewTracker(decimal.Zero, nil)

	var wg sync.WaitGroup
	goroutines := 100
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bt.RecordUsage(opus, Usage{InputTokens: 1000, OutputTokens: 500})
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*1000, bt.TotalUsage().InputTokens)
	expected := decimal.NewFromFloat(0.0175).Mul(decimal.NewFromInt(int64(goroutines)))
	require.True(t, expected.Equal(bt.TotalCost()), "expected %s, got %s", expected, bt.TotalCost())
}

func TestMultipleRecordUsageCumulative(t *testing.T) {
	bt := NewTracker(decimal.NewFromFloat(10.0), nil)

	bt.RecordUsage(opus, Usage{InputTokens: 1000})
	bt.RecordUsage(sonnet, Usage{OutputTokens: 2000})
	bt.RecordUsage(haiku, Usage{InputTokens: 500, OutputTokens: 500})

	assert.Equal(t, 1500, bt.TotalUsage().InputTokens)
	assert.Equal(t, 2500, bt.TotalUsage().OutputTokens)

	expected := decimal.NewFromFloat(0.038)
	assert.True(t, expected.Equal(bt.TotalCost()), "expected %s, got %s", expected, bt.TotalCost())
	assert.True(t, decimal.NewFromFloat(9.962).Equal(bt.Remaining()))
}
