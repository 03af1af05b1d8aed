package thinkmachine

import (
	"errors"

	"github.com/intelcave/thinkmachine/internal/engine"
)

// Sentinel errors returned by the orchestrator.
var (
	ErrUnknownProvider   = errors.New("thinkmachine: unknown provider")
	ErrNoMemoryPath      = errors.New("thinkmachine: durable memory path is required")
	ErrNoTranscriptStore = errors.New("thinkmachine: no transcript store configured")
	ErrUnknownMemory     = errors.New("thinkmachine: unknown memory backend")
	ErrNoTranscripts     = errors.New("thinkmachine: no saved transcripts")
	ErrInvalidMaxTurns   = errors.New("thinkmachine: max turns must not be negative")
	ErrInvalidBudget     = errors.New("thinkmachine: max budget must not be negative")
	ErrBudgetExhausted   = engine.ErrBudgetExhausted
	ErrPromptBlocked     = errors.New("thinkmachine: prompt blocked")
)
