// Package memory provides the key/value stores agents use to remember facts:
// a process-lifetime session store and durable stores that survive restarts.
//
// All stores map string keys to string values. Retrieval of an absent key is
// not an error; it yields a Lookup with Found set to false whose Text is the
// human-readable not-found message.
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Scope names a store in the messages returned to agents.
type Scope string

const (
	Temporary  Scope = "temporary"
	Persistent Scope = "persistent"
)

// Store is implemented by every memory backend.
type Store interface {
	Scope() Scope
	Keys(ctx context.Context) ([]string, error)
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (Lookup, error)
	Delete(ctx context.Context, key string) error
}

// Lookup is the result of a Get.
type Lookup struct {
	Scope Scope
	Key   string
	Value string
	Found bool
}

// Text returns the stored value, or the not-found message when the key is absent.
func (l Lookup) Text() string {
	if !l.Found {
		return NotFoundMessage(l.Scope, l.Key)
	}
	return l.Value
}

// StoredMessage is the status returned after a successful store.
func StoredMessage(scope Scope, key string) string {
	return fmt.Sprintf("Stored '%s' in %s memory.", key, scope)
}

// NotFoundMessage is the text standing in for an absent key.
func NotFoundMessage(scope Scope, key string) string {
	return fmt.Sprintf("No value found for key in %s memory: %s", scope, key)
}

// RemovedMessage is the status returned after a remove, whether or not the key existed.
func RemovedMessage(scope Scope, key string) string {
	return fmt.Sprintf("Removed '%s' from %s memory.", key, scope)
}

// FilterKeys returns the keys matching a doublestar glob pattern, sorted.
// An empty pattern keeps every key.
func FilterKeys(keys []string, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid key pattern %q", pattern)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if pattern != "" {
			ok, err := doublestar.Match(pattern, k)
			if err != nil {
				return nil, fmt.Errorf("match key pattern: %w", err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
