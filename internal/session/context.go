// Package session holds the per-conversation memory record and its
// TTL-bounded stores.
package session

import (
	"fmt"
	"time"

	"github.com/thebtf/blink/pkg/models"
)

// Key uniquely identifies one conversation thread.
type Key struct {
	Channel   string `json:"channel"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// String renders the key for logs and store keys.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Channel, k.UserID, k.SessionID)
}

// Meta carries session identity and lifecycle timestamps. LastSeenAt is
// bumped on every turn and drives expiry.
type Meta struct {
	Channel    string    `json:"channel"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// State is the high-level conversational state: which scenario is active,
// which step ran last, the scratchpad, and the completion latch.
type State struct {
	Flow       string            `json:"flow,omitempty"`
	Step       string            `json:"step,omitempty"`
	Scratchpad models.Scratchpad `json:"scratchpad"`
	Done       bool              `json:"done"`
}

// ShortTerm is the append-only message history plus turn bookkeeping.
// TurnCount counts user messages only.
type ShortTerm struct {
	History           []models.Message `json:"history"`
	TurnCount         int              `json:"turn_count"`
	LastUserMessageAt *time.Time       `json:"last_user_message_at,omitempty"`
}

// Context is everything the orchestrator knows about one session.
type Context struct {
	Meta      Meta      `json:"meta"`
	State     State     `json:"state"`
	ShortTerm ShortTerm `json:"short_term"`
}

// New creates a fresh Context for the given key.
func New(key Key, now time.Time) *Context {
	return &Context{
		Meta: Meta{
			Channel:    key.Channel,
			UserID:     key.UserID,
			SessionID:  key.SessionID,
			CreatedAt:  now,
			LastSeenAt: now,
		},
	}
}

// Key derives the store key from the session's identity.
func (c *Context) Key() Key {
	return Key{Channel: c.Meta.Channel, UserID: c.Meta.UserID, SessionID: c.Meta.SessionID}
}

// Touch updates LastSeenAt, keeping it monotonically non-decreasing.
func (c *Context) Touch(now time.Time) {
	if now.After(c.Meta.LastSeenAt) {
		c.Meta.LastSeenAt = now
	}
}

// Expired reports whether the session fell out of its TTL window.
func (c *Context) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.Meta.LastSeenAt) > ttl
}

// AppendUserMessage adds a user message to history and bumps the turn
// counters.
func (c *Context) AppendUserMessage(text string, now time.Time) {
	c.ShortTerm.History = append(c.ShortTerm.History, models.Message{
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: now,
	})
	c.ShortTerm.TurnCount++
	ts := now
	c.ShortTerm.LastUserMessageAt = &ts
	c.Touch(now)
}

// AppendAssistantMessage adds an assistant reply to history.
func (c *Context) AppendAssistantMessage(text string, now time.Time) {
	c.ShortTerm.History = append(c.ShortTerm.History, models.Message{
		Role:      models.RoleAssistant,
		Text:      text,
		Timestamp: now,
	})
	c.Touch(now)
}

// RecentHistory returns up to n most recent messages, oldest first.
func (c *Context) RecentHistory(n int) []models.Message {
	if n <= 0 || len(c.ShortTerm.History) <= n {
		return c.ShortTerm.History
	}
	return c.ShortTerm.History[len(c.ShortTerm.History)-n:]
}

// MarkDone latches the session as completed. There is deliberately no way
// to unset it.
func (c *Context) MarkDone() {
	c.State.Done = true
}

// Snapshot builds the immutable memory view returned with a turn response.
func (c *Context) Snapshot() models.MemorySnapshot {
	snap := models.MemorySnapshot{
		Flow:       c.State.Flow,
		Step:       c.State.Step,
		Scratchpad: c.State.Scratchpad,
		TurnCount:  c.ShortTerm.TurnCount,
	}
	if c.ShortTerm.LastUserMessageAt != nil {
		ts := *c.ShortTerm.LastUserMessageAt
		snap.LastUserMessageAt = &ts
	}
	return snap
}
