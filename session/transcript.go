package session

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/subagent"
)

// Sentinel errors for transcript stores.
var (
	ErrNotFound  = errors.New("session: transcript not found")
	ErrInvalidID = errors.New("session: invalid transcript id")
	ErrNil       = errors.New("session: transcript is nil")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// Transcript is the resumable state of one session.
type Transcript struct {
	ID        string                `json:"id"`
	Turns     []conversation.Turn   `json:"turns"`
	Agent     string                `json:"agent,omitempty"`
	Agents    []subagent.Definition `json:"agents,omitempty"`
	Usage     budget.Usage          `json:"usage"`
	TotalCost string                `json:"total_cost,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// New returns an empty transcript with a fresh ID.
func New() *Transcript {
	now := time.Now().UTC()
	return &Transcript{ID: NewID(), CreatedAt: now, UpdatedAt: now}
}

// NewID returns a new transcript ID.
func NewID() string {
	return "sess_" + uuid.NewString()
}

// Clone deep-copies t.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Turns = conversation.Clone(t.Turns)
	if t.Agents != nil {
		cp.Agents = append([]subagent.Definition(nil), t.Agents...)
	}
	return &cp
}

// Store persists transcripts.
type Store interface {
	Save(ctx context.Context, t *Transcript) error
	Load(ctx context.Context, id string) (*Transcript, error)
	List(ctx context.Context) ([]*Transcript, error)
	Delete(ctx context.Context, id string) error
}

// ValidID reports whether id can be used as a transcript ID.
func ValidID(id string) bool {
	return validID.MatchString(id)
}
