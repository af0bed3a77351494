package models

import "time"

// TurnRequest is the inbound payload for one conversational turn.
type TurnRequest struct {
	Channel   string `json:"channel"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Scratchpad is the session's typed working memory. The dispatcher only
// ever reads and writes the named fields; Extra carries forward
// non-contractual values without the dispatcher touching them.
type Scratchpad struct {
	Menu           []MenuEntry    `json:"menu_items,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	LastOrderID    string         `json:"last_order_id,omitempty"`
	LastOrderItems []MenuEntry    `json:"last_order_items,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// MemorySnapshot is the immutable view of session memory returned with
// every turn response.
type MemorySnapshot struct {
	Flow              string     `json:"flow,omitempty"`
	Step              string     `json:"step,omitempty"`
	Scratchpad        Scratchpad `json:"scratchpad"`
	LastUserMessageAt *time.Time `json:"last_user_message_at,omitempty"`
	TurnCount         int        `json:"turn_count"`
}

// TurnResponse is the outbound payload for one conversational turn.
type TurnResponse struct {
	ReplyText      string         `json:"reply_text"`
	SessionDone    bool           `json:"session_done"`
	MemorySnapshot MemorySnapshot `json:"memory_snapshot"`
}
